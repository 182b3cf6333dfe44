// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// append-only Interaction log.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/domain"
)

// NextInteractionSeq returns the sequence number the next interaction of
// sessionID should carry. Callers hold the session lock.
func NextInteractionSeq(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	var row struct{ Seq int64 }
	err := db.WithContext(ctx).
		Model(&domain.Interaction{}).
		Select("seq").
		Where("session_id = ?", sessionID).
		Order("seq DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return 0, err
	}
	return row.Seq + 1, nil
}

// CreateInteraction appends in to its session log. ID and CreatedAt are
// filled when missing.
func CreateInteraction(ctx context.Context, db *gorm.DB, in *domain.Interaction) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(in).Error
}

// GetInteraction fetches an interaction by ID within a session.
func GetInteraction(ctx context.Context, db *gorm.DB, id, sessionID string) (*domain.Interaction, error) {
	var in domain.Interaction
	err := db.WithContext(ctx).
		Where("id = ? AND session_id = ?", id, sessionID).
		First(&in).Error
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// ListInteractions returns the full log of a session in chronological order.
func ListInteractions(ctx context.Context, db *gorm.DB, sessionID string) ([]domain.Interaction, error) {
	var out []domain.Interaction
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Find(&out).Error
	return out, err
}

// CountInteractions uses a raw COUNT so a missing table surfaces as an error.
func CountInteractions(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM session_interactions WHERE session_id = ?", sessionID).
		Scan(&total).Error
	return total, err
}

// ListInteractionsPage returns a page of the log, newest first.
func ListInteractionsPage(ctx context.Context, db *gorm.DB, sessionID string, offset, limit int) ([]domain.Interaction, error) {
	var out []domain.Interaction
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
