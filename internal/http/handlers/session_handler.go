// Session HTTP handlers.
//
// This file exposes REST endpoints for game sessions:
//   - POST /sessions               (create, or return the resumable one)
//   - GET  /sessions               (list own sessions, paginated, ETag support)
//   - GET  /sessions/{id}          (get)
//   - POST /sessions/{id}/pause    (pause)
//   - POST /sessions/{id}/resume   (resume)
//   - POST /sessions/{id}/finish   (finish)
//
// It also declares the service contracts and the Handlers type shared by the
// other handler files.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/domain"
	"github.com/tbourn/go-narrator-backend/internal/events"
	"github.com/tbourn/go-narrator-backend/internal/http/middleware"
	"github.com/tbourn/go-narrator-backend/internal/repo"
	"github.com/tbourn/go-narrator-backend/internal/services"
	"github.com/tbourn/go-narrator-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// SessionService defines session lifecycle operations consumed by handlers.
type SessionService interface {
	Create(ctx context.Context, req services.CreateSessionRequest) (*domain.Session, bool, error)
	Get(ctx context.Context, playerID, sessionID string) (*domain.Session, error)
	ListPage(ctx context.Context, playerID string, page, pageSize int) ([]domain.Session, int64, error)
	Pause(ctx context.Context, playerID, sessionID string) (*domain.Session, error)
	Resume(ctx context.Context, playerID, sessionID string) (*domain.Session, error)
	Finish(ctx context.Context, playerID, sessionID string) (*domain.Session, error)
}

// InteractionService runs player turns and reads their history.
type InteractionService interface {
	Interact(ctx context.Context, req services.InteractRequest) (*services.InteractResult, error)
	History(ctx context.Context, playerID, sessionID string, page, pageSize int) ([]domain.Interaction, int64, error)
}

// BoardService answers board queries for a session.
type BoardService interface {
	Order(ctx context.Context, playerID, sessionID string) (*services.BoardOrder, error)
	Status(ctx context.Context, playerID, sessionID string) (*services.BoardView, error)
}

// CatalogService lists games, their scenes and the LLM configurations.
type CatalogService interface {
	ListGames(ctx context.Context) ([]domain.Game, error)
	ListScenes(ctx context.Context, gameID string) ([]domain.Scene, error)
	ListLLMConfigs(ctx context.Context, gameID string) ([]domain.LLMConfiguration, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. The event hub is optional; without it
// the stream endpoint answers 404.
type Handlers struct {
	sessions     SessionService
	interactions InteractionService
	boards       BoardService
	catalog      CatalogService
	hub          *events.Hub
}

// New constructs and returns a Handlers instance bound to the given services.
func New(sessions SessionService, interactions InteractionService, boards BoardService, catalog CatalogService, hub *events.Hub) *Handlers {
	return &Handlers{
		sessions:     sessions,
		interactions: interactions,
		boards:       boards,
		catalog:      catalog,
		hub:          hub,
	}
}

//
// DTOs
//

// CreateSessionRequest is the JSON payload for opening a session.
type CreateSessionRequest struct {
	GameID string `json:"game_id" binding:"required" example:"8d0f5a3e-2b1c-4e7f-9a6d-3c2b1a0f9e8d"`
	// RoomID optionally ties the session to a room whose members share the board.
	RoomID string `json:"room_id,omitempty" example:"0b8e7c6d-5a4f-4e3d-8c2b-1a0f9e8d7c6b"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListSessionsResponse wraps a page of sessions and pagination information.
type ListSessionsResponse struct {
	Sessions   []domain.Session `json:"sessions"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	page = utils.AtoiDefault(c.Query("page"), 1)
	pageSize = utils.AtoiDefault(c.Query("page_size"), utils.DefaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	return utils.ClampPage(page, pageSize, utils.DefaultPageSize, utils.MaxPageSize)
}

func pagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// notModified sets a weak ETag built from (scope, count, latest) and reports
// whether the client's If-None-Match already matches it.
func notModified(c *gin.Context, scope string, count int64, latestUnix int64) bool {
	etag := fmt.Sprintf(`W/"%s:%d:%d"`, scope, count, latestUnix)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// sessionParam reads and validates the :id path parameter.
func sessionParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return "", false
	}
	return id, true
}

//
// Handlers
//

// CreateSession godoc
// @ID          createSession
// @Summary     Open a game session
// @Description Opens a session on a game for the current player, starting at the game's base scene.
// @Description If the player already has an active or paused session for that game, it is returned with 200.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       X-Player-ID  header  string  false "Player ID (demo header)"  example(player123)
// @Param       body         body    handlers.CreateSessionRequest  true  "Session payload"
//
// @Success     201  {object}  domain.Session  "Created"
// @Success     200  {object}  domain.Session  "Existing resumable session"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Game not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /sessions [post]
func (h *Handlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.GameID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "game_id required")
		return
	}

	sess, created, err := h.sessions.Create(c.Request.Context(), services.CreateSessionRequest{
		PlayerID: middleware.PlayerID(c),
		GameID:   req.GameID,
		RoomID:   req.RoomID,
	})
	if err != nil {
		failService(c, err)
		return
	}
	if !created {
		ok(c, http.StatusOK, sess)
		return
	}
	ok(c, http.StatusCreated, sess)
}

// ListSessions godoc
// @ID          listSessions
// @Summary     List sessions (paginated)
// @Description Returns a page of the player's sessions, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-Player-ID    header  string  false "Player ID (demo header)"     example(player123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"sessions:player123:3:1700000000\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListSessionsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sessions [get]
func (h *Handlers) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	pid := middleware.PlayerID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.sessions.(*services.SessionService); ok {
		db = svc.DB
	}
	if db != nil {
		if count, maxTS, err := repo.SessionsStats(ctx, db, pid); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			if notModified(c, "sessions:"+pid, count, ts) {
				return
			}
		}
	}

	items, total, err := h.sessions.ListPage(ctx, pid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListSessionsResponse{
		Sessions:   items,
		Pagination: pagination(page, pageSize, total),
	})
}

// GetSession godoc
// @ID          getSession
// @Summary     Get a session
// @Tags        Sessions
// @Produce     json
//
// @Param       X-Player-ID  header  string  false "Player ID (demo header)"  example(player123)
// @Param       id           path    string  true  "Session ID (UUID)"        format(uuid)
//
// @Success     200  {object} domain.Session
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Router      /sessions/{id} [get]
func (h *Handlers) GetSession(c *gin.Context) {
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	sess, err := h.sessions.Get(c.Request.Context(), middleware.PlayerID(c), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, sess)
}

// PauseSession godoc
// @ID          pauseSession
// @Summary     Pause a session
// @Description Pauses an active session. Sending an interaction to a paused session resumes it.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-Player-ID  header  string  false "Player ID (demo header)"  example(player123)
// @Param       id           path    string  true  "Session ID (UUID)"        format(uuid)
//
// @Success     200  {object} domain.Session
// @Failure     400  {object} handlers.ErrorResponse "Bad request or invalid state"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Router      /sessions/{id}/pause [post]
func (h *Handlers) PauseSession(c *gin.Context) { h.transition(c, h.sessions.Pause) }

// ResumeSession godoc
// @ID          resumeSession
// @Summary     Resume a session
// @Tags        Sessions
// @Produce     json
//
// @Param       X-Player-ID  header  string  false "Player ID (demo header)"  example(player123)
// @Param       id           path    string  true  "Session ID (UUID)"        format(uuid)
//
// @Success     200  {object} domain.Session
// @Failure     400  {object} handlers.ErrorResponse "Bad request or invalid state"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Router      /sessions/{id}/resume [post]
func (h *Handlers) ResumeSession(c *gin.Context) { h.transition(c, h.sessions.Resume) }

// FinishSession godoc
// @ID          finishSession
// @Summary     Finish a session
// @Description Marks the session finished. Finished sessions accept no further interactions.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-Player-ID  header  string  false "Player ID (demo header)"  example(player123)
// @Param       id           path    string  true  "Session ID (UUID)"        format(uuid)
//
// @Success     200  {object} domain.Session
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Router      /sessions/{id}/finish [post]
func (h *Handlers) FinishSession(c *gin.Context) { h.transition(c, h.sessions.Finish) }

func (h *Handlers) transition(c *gin.Context, fn func(context.Context, string, string) (*domain.Session, error)) {
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	sess, err := fn(c.Request.Context(), middleware.PlayerID(c), id)
	if err != nil {
		failService(c, err)
		return
	}
	if h.hub != nil {
		h.hub.Publish(events.Event{Type: events.TypeSession, SessionID: sess.ID, Data: sess.Status})
	}
	ok(c, http.StatusOK, sess)
}
