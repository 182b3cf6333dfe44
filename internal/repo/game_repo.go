// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the read-only
// game catalog: games, their scenes and their rule documents.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - CreateGame / CreateScene / CreateRule
//     Insert catalog rows; used by fixtures and tests. Empty IDs are filled
//     with a UUID.
//
//   - GetGame(ctx, db, id) -> *domain.Game, error
//
//   - ListGames(ctx, db) -> []domain.Game, error
//     Active games ordered by title.
//
//   - ListActiveScenes(ctx, db, gameID) -> []domain.Scene, error
//     Active scenes ordered by (phase, order). This is the list the scene
//     graph is built from.
//
//   - ListActiveRules(ctx, db, gameID) -> []domain.GameRule, error
//     Active, non-deleted rule documents in creation order.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateGame inserts g, assigning an ID and timestamps when missing.
func CreateGame(ctx context.Context, db *gorm.DB, g *domain.Game) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(g).Error
}

// GetGame fetches a game by ID.
func GetGame(ctx context.Context, db *gorm.DB, id string) (*domain.Game, error) {
	var g domain.Game
	if err := db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGames returns active games ordered by title.
func ListGames(ctx context.Context, db *gorm.DB) ([]domain.Game, error) {
	var out []domain.Game
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("title ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CreateScene inserts s, assigning an ID and timestamps when missing.
func CreateScene(ctx context.Context, db *gorm.DB, s *domain.Scene) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(s).Error
}

// ListActiveScenes returns the active scenes of a game ordered by
// (phase, order). Ties fall back to name so the order is total.
func ListActiveScenes(ctx context.Context, db *gorm.DB, gameID string) ([]domain.Scene, error) {
	var out []domain.Scene
	err := db.WithContext(ctx).
		Where("game_id = ? AND is_active = ?", gameID, true).
		Order("phase ASC, sort_order ASC, name ASC").
		Find(&out).Error
	return out, err
}

// CreateRule inserts r, assigning an ID and timestamps when missing.
func CreateRule(ctx context.Context, db *gorm.DB, r *domain.GameRule) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(r).Error
}

// ListActiveRules returns the active rule documents of a game in creation
// order. Soft-deleted rows are excluded by GORM.
func ListActiveRules(ctx context.Context, db *gorm.DB, gameID string) ([]domain.GameRule, error) {
	var out []domain.GameRule
	err := db.WithContext(ctx).
		Where("game_id = ? AND is_active = ?", gameID, true).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
