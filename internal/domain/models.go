// Package domain defines the persistence models for games, their scenes and
// rule documents, play sessions and the interaction log. These types are
// mapped with GORM and form the core data layer of the narrator backend.
package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Game scopes scenes, rule documents, LLM configurations and sessions.
// Soft-deleting a game hides its children from every query that joins on it.
type Game struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Title       string         `json:"title"       gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text"`
	IsActive    bool           `json:"is_active"   gorm:"not null;default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Game.
func (Game) TableName() string { return "games" }

// Scene is a unit of narrative content. Its name encodes its position in the
// scene graph ("Introdução", "Cena 0A - Portal da Água", "Cena 01 - ...") and
// FileContent holds the text that is segmented at runtime.
//
// Fields:
//   - Phase / Order: sort key within the game (ascending).
//   - FileContent: plain text extracted from the uploaded document.
//   - IsActive: inactive scenes are invisible to the navigator.
type Scene struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	GameID      string         `json:"game_id"      gorm:"type:char(36);not null;index:idx_game_scenes,priority:1"`
	Name        string         `json:"name"         gorm:"type:varchar(255);not null"`
	Phase       int            `json:"phase"        gorm:"not null;default:0;index:idx_game_scenes,priority:2"`
	Order       int            `json:"order"        gorm:"column:sort_order;not null;default:0;index:idx_game_scenes,priority:3"`
	FileContent string         `json:"file_content,omitempty" gorm:"type:text"`
	IsActive    bool           `json:"is_active"    gorm:"not null;default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`

	Game Game `json:"-" gorm:"foreignKey:GameID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Scene.
func (Scene) TableName() string { return "scenes" }

// GameRule is a rule document. Its title decides when the content is sent to
// the narrator.
type GameRule struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	GameID    string         `json:"game_id"    gorm:"type:char(36);not null;index"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null"`
	Content   string         `json:"content"    gorm:"type:text"`
	IsActive  bool           `json:"is_active"  gorm:"not null;default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	Game Game `json:"-" gorm:"foreignKey:GameID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for GameRule.
func (GameRule) TableName() string { return "game_rules" }

// Room groups players of one game around a facilitator.
type Room struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	GameID        string         `json:"game_id"        gorm:"type:char(36);not null;index"`
	Name          string         `json:"name"           gorm:"type:varchar(255);not null"`
	FacilitatorID string         `json:"facilitator_id" gorm:"type:varchar(64);index"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`
}

// TableName returns the database table name for Room.
func (Room) TableName() string { return "rooms" }

// RoomMember seats a player in a room. Position orders the roster.
type RoomMember struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	RoomID      string    `json:"room_id"      gorm:"type:char(36);not null;uniqueIndex:ux_room_player,priority:1"`
	PlayerID    string    `json:"player_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_room_player,priority:2"`
	DisplayName string    `json:"display_name" gorm:"type:varchar(255)"`
	Position    int       `json:"position"     gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`

	Room Room `json:"-" gorm:"foreignKey:RoomID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RoomMember.
func (RoomMember) TableName() string { return "room_members" }

// Session statuses.
const (
	SessionActive   = "active"
	SessionPaused   = "paused"
	SessionFinished = "finished"
)

// Session is one player's run through a game.
//
// CurrentSceneID and CurrentSceneIndex cache the navigator position after the
// last successful interaction; the interaction log is authoritative. The
// index only has meaning relative to CurrentSceneID.
type Session struct {
	ID                string         `json:"id"                  gorm:"type:char(36);primaryKey"`
	GameID            string         `json:"game_id"             gorm:"type:char(36);not null;index"`
	PlayerID          string         `json:"player_id"           gorm:"type:varchar(64);not null;index:idx_player_sessions"`
	RoomID            *string        `json:"room_id,omitempty"   gorm:"type:char(36);index"`
	StartSceneID      *string        `json:"start_scene_id,omitempty" gorm:"type:char(36)"`
	CurrentSceneID    *string        `json:"current_scene_id,omitempty" gorm:"type:char(36)"`
	CurrentSceneIndex int            `json:"current_scene_index" gorm:"not null;default:0"`
	Status            string         `json:"status"              gorm:"type:varchar(16);not null;default:'active';check:status IN ('active','paused','finished')"`
	LLMProvider       string         `json:"llm_provider,omitempty" gorm:"type:varchar(64)"`
	LLMModel          string         `json:"llm_model,omitempty"    gorm:"type:varchar(128)"`
	LastActivity      time.Time      `json:"last_activity"`
	CreatedAt         time.Time      `json:"created_at"          gorm:"index:idx_player_sessions"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-"                   gorm:"index"`

	Game Game `json:"-" gorm:"foreignKey:GameID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "game_sessions" }

// Interaction is one immutable exchange in a session. The ordered log of a
// session's interactions is what replay folds over; Seq is its 1-based
// position in that log.
type Interaction struct {
	ID              string    `json:"id"                gorm:"type:char(36);primaryKey"`
	SessionID       string    `json:"session_id"        gorm:"type:char(36);not null;uniqueIndex:ux_session_seq,priority:1;index:idx_session_interactions,priority:1"`
	Seq             int64     `json:"seq"               gorm:"not null;uniqueIndex:ux_session_seq,priority:2"`
	PlayerInput     string    `json:"player_input"      gorm:"type:text;not null"`
	PlayerInputType string    `json:"player_input_type" gorm:"type:varchar(16);not null;default:'text'"`
	AIResponse      string    `json:"ai_response"       gorm:"type:text;not null"`
	AudioURL        *string   `json:"audio_url,omitempty" gorm:"type:varchar(512)"`
	Provider        string    `json:"llm_provider"      gorm:"type:varchar(64)"`
	Model           string    `json:"llm_model"         gorm:"type:varchar(128)"`
	TokensUsed      int       `json:"tokens_used"       gorm:"not null;default:0"`
	Cost            float64   `json:"cost"              gorm:"not null;default:0"`
	LatencyMS       int64     `json:"response_time_ms"  gorm:"not null;default:0"`
	SceneID         *string   `json:"scene_id,omitempty" gorm:"type:char(36)"`
	SceneIndex      int       `json:"scene_index"       gorm:"not null;default:0"`
	Transition      string    `json:"transition,omitempty" gorm:"type:varchar(32)"`
	Element         string    `json:"element,omitempty"    gorm:"type:varchar(16)"`
	CreatedAt       time.Time `json:"created_at"        gorm:"index:idx_session_interactions,priority:2"`

	Session Session `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Interaction.
func (Interaction) TableName() string { return "session_interactions" }

// PlayerBoard stores the board document for a (session, player) pair.
type PlayerBoard struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	SessionID string         `json:"session_id" gorm:"type:char(36);not null;uniqueIndex:ux_board_session_player,priority:1"`
	PlayerID  string         `json:"player_id"  gorm:"type:varchar(64);not null;uniqueIndex:ux_board_session_player,priority:2"`
	State     datatypes.JSON `json:"state"`
	IsActive  bool           `json:"is_active"  gorm:"not null;default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	Session Session `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for PlayerBoard.
func (PlayerBoard) TableName() string { return "player_boards" }

// LLMConfiguration is a provider/model pair with pricing and running usage
// counters. A nil GameID makes the configuration available to every game.
type LLMConfiguration struct {
	ID              string         `json:"id"                gorm:"type:char(36);primaryKey"`
	GameID          *string        `json:"game_id,omitempty" gorm:"type:char(36);index"`
	Provider        string         `json:"provider"          gorm:"type:varchar(64);not null"`
	ModelName       string         `json:"model_name"        gorm:"type:varchar(128);not null"`
	APIKey          string         `json:"-"                 gorm:"type:varchar(512)"`
	BaseURL         string         `json:"base_url,omitempty" gorm:"type:varchar(512)"`
	IsActive        bool           `json:"is_active"         gorm:"not null;default:true"`
	CostPerToken    float64        `json:"cost_per_token"    gorm:"not null;default:0"`
	MaxTokens       int            `json:"max_tokens"        gorm:"not null;default:0"`
	Temperature     float64        `json:"temperature"       gorm:"not null;default:0"`
	TotalRequests   int64          `json:"total_requests"    gorm:"not null;default:0"`
	TotalTokens     int64          `json:"total_tokens"      gorm:"not null;default:0"`
	TotalCost       float64        `json:"total_cost"        gorm:"not null;default:0"`
	AvgResponseTime float64        `json:"avg_response_time" gorm:"not null;default:0"` // seconds
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-"                 gorm:"index"`
}

// TableName returns the database table name for LLMConfiguration.
func (LLMConfiguration) TableName() string { return "llm_configurations" }
