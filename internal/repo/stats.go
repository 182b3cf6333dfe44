// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file holds the aggregate queries behind the weak ETags
// of the listing endpoints.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/domain"
)

// SessionsStats returns how many sessions playerID has and the newest
// updated_at among them (nil when there are none). A status change or a new
// turn moves updated_at, so the pair changes whenever the listing would.
func SessionsStats(ctx context.Context, db *gorm.DB, playerID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Session{}).Where("player_id = ?", playerID)
	return countAndLatest(q, "updated_at", "updated_at DESC")
}

// InteractionsStats returns the number of interactions in a session and the
// creation time of the newest one. Interactions are immutable, so the pair
// changes exactly when the log grows.
func InteractionsStats(ctx context.Context, db *gorm.DB, sessionID string) (count int64, latest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Interaction{}).Where("session_id = ?", sessionID)
	return countAndLatest(q, "created_at", "seq DESC")
}

// countAndLatest counts q and reads column from its first row under order.
// The timestamp is scanned from a row rather than MAX(), which SQLite returns
// as TEXT.
func countAndLatest(q *gorm.DB, column, order string) (int64, *time.Time, error) {
	var n int64
	if err := q.Session(&gorm.Session{}).Count(&n).Error; err != nil {
		return 0, nil, err
	}
	if n == 0 {
		return 0, nil, nil
	}
	var row struct{ TS time.Time }
	if err := q.Session(&gorm.Session{}).Select(column + " AS ts").Order(order).Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return n, &row.TS, nil
}
