// Package services – SessionService
//
// This file implements SessionService, which manages the lifecycle of game
// sessions: creation (reusing the player's open session for the same game),
// lookup, pagination and the active/paused/finished status machine.
//
// Ownership is enforced at the repository level: a session owned by another
// player is reported as ErrSessionNotFound.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/domain"
	"github.com/tbourn/go-narrator-backend/internal/scenegraph"
	"github.com/tbourn/go-narrator-backend/internal/utils"
)

// SessionRepo defines the repository contract required by SessionService.
type SessionRepo interface {
	// GetGame fetches a game by ID.
	GetGame(ctx context.Context, db *gorm.DB, id string) (*domain.Game, error)

	// ListActiveScenes returns the active scenes of a game in play order.
	ListActiveScenes(ctx context.Context, db *gorm.DB, gameID string) ([]domain.Scene, error)

	// FindResumableSession returns the player's newest active or paused
	// session for a game.
	FindResumableSession(ctx context.Context, db *gorm.DB, playerID, gameID string) (*domain.Session, error)

	// CreateSession inserts a new session row.
	CreateSession(ctx context.Context, db *gorm.DB, s *domain.Session) error

	// GetSession fetches a session by ID ensuring it belongs to the player.
	GetSession(ctx context.Context, db *gorm.DB, id, playerID string) (*domain.Session, error)

	// UpdateSessionStatus sets the status of a session owned by the player.
	UpdateSessionStatus(ctx context.Context, db *gorm.DB, id, playerID, status string) error

	// CountSessions returns the total number of sessions of a player.
	CountSessions(ctx context.Context, db *gorm.DB, playerID string) (int64, error)

	// ListSessionsPage returns a page of a player's sessions, newest first.
	ListSessionsPage(ctx context.Context, db *gorm.DB, playerID string, offset, limit int) ([]domain.Session, error)
}

// SessionService provides session lifecycle operations.
type SessionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the session repository used by this service.
	Repo SessionRepo
}

// NewSessionService constructs a SessionService.
func NewSessionService(db *gorm.DB, r SessionRepo) *SessionService {
	return &SessionService{DB: db, Repo: r}
}

// CreateSessionRequest describes a new session.
type CreateSessionRequest struct {
	PlayerID string
	GameID   string
	RoomID   string
}

// Create opens a session for the player on gameID. When the player already
// has an active or paused session for that game it is returned instead and
// created is false. New sessions start on the game's base scene.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (sess *domain.Session, created bool, err error) {
	gameID := strings.TrimSpace(req.GameID)
	if gameID == "" {
		return nil, false, ErrGameNotFound
	}
	if _, err := s.Repo.GetGame(ctx, s.DB, gameID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrGameNotFound
		}
		return nil, false, err
	}

	existing, err := s.Repo.FindResumableSession(ctx, s.DB, req.PlayerID, gameID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, err
	}

	scenes, err := s.Repo.ListActiveScenes(ctx, s.DB, gameID)
	if err != nil {
		return nil, false, err
	}

	sess = &domain.Session{
		GameID:   gameID,
		PlayerID: req.PlayerID,
		Status:   domain.SessionActive,
	}
	if room := strings.TrimSpace(req.RoomID); room != "" {
		sess.RoomID = &room
	}
	if base, ok := baseScene(scenes); ok {
		sess.CurrentSceneID = &base.ID
		sess.StartSceneID = &base.ID
	}
	if err := s.Repo.CreateSession(ctx, s.DB, sess); err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

func baseScene(scenes []domain.Scene) (scenegraph.Scene, bool) {
	nodes := make([]scenegraph.Scene, len(scenes))
	for i, sc := range scenes {
		nodes[i] = scenegraph.Scene{ID: sc.ID, Name: sc.Name}
	}
	return scenegraph.New(nodes).Base("")
}

// Get returns one of the player's sessions.
func (s *SessionService) Get(ctx context.Context, playerID, sessionID string) (*domain.Session, error) {
	sess, err := s.Repo.GetSession(ctx, s.DB, sessionID, playerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

// ListPage returns a page of the player's sessions and the total count.
func (s *SessionService) ListPage(ctx context.Context, playerID string, page, pageSize int) ([]domain.Session, int64, error) {
	page, pageSize = utils.ClampPage(page, pageSize, utils.DefaultPageSize, 0)
	offset := utils.Offset(page, pageSize)

	total, err := s.Repo.CountSessions(ctx, s.DB, playerID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Session{}, 0, nil
	}

	items, err := s.Repo.ListSessionsPage(ctx, s.DB, playerID, offset, pageSize)
	return items, total, err
}

// Pause marks an active session as paused. Pausing a paused session is a
// no-op.
func (s *SessionService) Pause(ctx context.Context, playerID, sessionID string) (*domain.Session, error) {
	return s.transition(ctx, playerID, sessionID, domain.SessionPaused, domain.SessionActive, domain.SessionPaused)
}

// Resume reactivates a paused session.
func (s *SessionService) Resume(ctx context.Context, playerID, sessionID string) (*domain.Session, error) {
	return s.transition(ctx, playerID, sessionID, domain.SessionActive, domain.SessionActive, domain.SessionPaused)
}

// Finish closes a session for good.
func (s *SessionService) Finish(ctx context.Context, playerID, sessionID string) (*domain.Session, error) {
	return s.transition(ctx, playerID, sessionID, domain.SessionFinished, domain.SessionActive, domain.SessionPaused, domain.SessionFinished)
}

// transition moves a session to status when its current status is one of from.
func (s *SessionService) transition(ctx context.Context, playerID, sessionID, status string, from ...string) (*domain.Session, error) {
	sess, err := s.Get(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, f := range from {
		if sess.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvalidTransition
	}
	if sess.Status == status {
		return sess, nil
	}
	if err := s.Repo.UpdateSessionStatus(ctx, s.DB, sessionID, playerID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	sess.Status = status
	return sess, nil
}
