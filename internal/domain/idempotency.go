package domain

import "time"

// Idempotency records the interaction produced for a client-supplied key,
// scoped to (player_id, session_id, key). A retried POST with the same key
// returns that interaction instead of running the engine again.
type Idempotency struct {
	ID            string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	PlayerID      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_player_session_key,priority:1"`
	SessionID     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_player_session_key,priority:2"`
	Key           string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_player_session_key,priority:3"`
	InteractionID string    `gorm:"type:TEXT NOT NULL"`
	Status        int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt     time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt     time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
