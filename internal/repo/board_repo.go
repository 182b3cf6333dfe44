// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for PlayerBoard
// and the room roster it falls back to.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-narrator-backend/internal/domain"
)

// GetBoard returns the active board of (sessionID, playerID) or ErrNotFound.
func GetBoard(ctx context.Context, db *gorm.DB, sessionID, playerID string) (*domain.PlayerBoard, error) {
	var b domain.PlayerBoard
	err := db.WithContext(ctx).
		Where("session_id = ? AND player_id = ? AND is_active = ?", sessionID, playerID, true).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpsertBoard stores state for (sessionID, playerID), creating the row on
// first use. There is at most one row per pair.
func UpsertBoard(ctx context.Context, db *gorm.DB, sessionID, playerID string, state datatypes.JSON) error {
	now := time.Now().UTC()
	b := &domain.PlayerBoard{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		PlayerID:  playerID,
		State:     state,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "player_id"}},
			DoUpdates: clause.Assignments(map[string]any{"state": state, "is_active": true, "updated_at": now}),
		}).
		Create(b).Error
}

// CreateRoom inserts r, assigning an ID when missing.
func CreateRoom(ctx context.Context, db *gorm.DB, r *domain.Room) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(r).Error
}

// AddRoomMember seats a player in a room.
func AddRoomMember(ctx context.Context, db *gorm.DB, m *domain.RoomMember) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(m).Error
}

// ListRoomMembers returns the roster of a room in seating order.
func ListRoomMembers(ctx context.Context, db *gorm.DB, roomID string) ([]domain.RoomMember, error) {
	var out []domain.RoomMember
	err := db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("position ASC, created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
