// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for
// LLMConfiguration, including the usage counters updated after each call.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/domain"
)

// CreateLLMConfig inserts c, assigning an ID when missing.
func CreateLLMConfig(ctx context.Context, db *gorm.DB, c *domain.LLMConfiguration) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(c).Error
}

// ListActiveLLMConfigs returns the active configurations usable by gameID:
// the game's own first, then global ones, each in creation order.
func ListActiveLLMConfigs(ctx context.Context, db *gorm.DB, gameID string) ([]domain.LLMConfiguration, error) {
	var out []domain.LLMConfiguration
	err := db.WithContext(ctx).
		Where("is_active = ? AND (game_id = ? OR game_id IS NULL)", true, gameID).
		Order("CASE WHEN game_id IS NULL THEN 1 ELSE 0 END, created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// ListLLMConfigs returns every configuration, optionally narrowed to the
// ones usable by gameID.
func ListLLMConfigs(ctx context.Context, db *gorm.DB, gameID string) ([]domain.LLMConfiguration, error) {
	var out []domain.LLMConfiguration
	q := db.WithContext(ctx).Order("created_at ASC, id ASC")
	if gameID != "" {
		q = q.Where("game_id = ? OR game_id IS NULL", gameID)
	}
	err := q.Find(&out).Error
	return out, err
}

// RecordLLMUsage adds one request worth of usage to a configuration. Latency
// feeds a decayed moving average (avg*0.9 + new*0.1), seeded by the first
// sample. Everything happens in one UPDATE so concurrent sessions sharing a
// configuration never overwrite each other's samples.
func RecordLLMUsage(ctx context.Context, db *gorm.DB, id string, tokens int, cost float64, latency time.Duration) error {
	secs := latency.Seconds()
	res := db.WithContext(ctx).
		Model(&domain.LLMConfiguration{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_requests": gorm.Expr("total_requests + ?", 1),
			"total_tokens":   gorm.Expr("total_tokens + ?", tokens),
			"total_cost":     gorm.Expr("total_cost + ?", cost),
			"avg_response_time": gorm.Expr(
				"CASE WHEN avg_response_time = 0 THEN ? ELSE avg_response_time * 0.9 + ? * 0.1 END",
				secs, secs,
			),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
