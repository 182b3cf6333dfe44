// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Session
// model. Every lookup that serves a player is scoped by player_id so a
// foreign session reads as not found.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/domain"
)

// CreateSession inserts s, assigning an ID and timestamps when missing.
func CreateSession(ctx context.Context, db *gorm.DB, s *domain.Session) error {
	now := time.Now().UTC()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = domain.SessionActive
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.LastActivity.IsZero() {
		s.LastActivity = now
	}
	return db.WithContext(ctx).Create(s).Error
}

// GetSession fetches a session by ID and owner. A session owned by someone
// else returns ErrNotFound.
func GetSession(ctx context.Context, db *gorm.DB, id, playerID string) (*domain.Session, error) {
	var s domain.Session
	err := db.WithContext(ctx).
		Where("id = ? AND player_id = ?", id, playerID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSessionByID fetches a session regardless of owner (admin tooling).
func GetSessionByID(ctx context.Context, db *gorm.DB, id string) (*domain.Session, error) {
	var s domain.Session
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindResumableSession returns the player's most recent active or paused
// session for a game, or ErrNotFound.
func FindResumableSession(ctx context.Context, db *gorm.DB, playerID, gameID string) (*domain.Session, error) {
	var s domain.Session
	err := db.WithContext(ctx).
		Where("player_id = ? AND game_id = ? AND status IN ?", playerID, gameID,
			[]string{domain.SessionActive, domain.SessionPaused}).
		Order("created_at DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CountSessions returns how many sessions playerID owns.
func CountSessions(ctx context.Context, db *gorm.DB, playerID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("player_id = ?", playerID).
		Count(&total).Error
	return total, err
}

// ListSessionsPage returns a page of playerID's sessions, most recent first.
func ListSessionsPage(ctx context.Context, db *gorm.DB, playerID string, offset, limit int) ([]domain.Session, error) {
	var out []domain.Session
	err := db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateSessionStatus sets status for a session owned by playerID and bumps
// last_activity. It returns ErrNotFound when no row matched.
func UpdateSessionStatus(ctx context.Context, db *gorm.DB, id, playerID, status string) error {
	res := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND player_id = ?", id, playerID).
		Updates(map[string]any{
			"status":        status,
			"last_activity": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SessionProgress is the state written back after a successful interaction.
type SessionProgress struct {
	Status       string
	SceneID      *string
	SceneIndex   int
	StartSceneID *string
	Provider     string
	Model        string
	LastActivity time.Time
}

// SaveSessionProgress writes the scene pointer, status and provider choice of
// a session. Empty Provider/Model leave the stored values untouched, and a nil
// StartSceneID never overwrites the recorded start scene.
func SaveSessionProgress(ctx context.Context, db *gorm.DB, id string, p SessionProgress) error {
	fields := map[string]any{
		"status":              p.Status,
		"current_scene_id":    p.SceneID,
		"current_scene_index": p.SceneIndex,
		"last_activity":       p.LastActivity,
	}
	if p.StartSceneID != nil {
		fields["start_scene_id"] = p.StartSceneID
	}
	if p.Provider != "" {
		fields["llm_provider"] = p.Provider
		fields["llm_model"] = p.Model
	}
	res := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
