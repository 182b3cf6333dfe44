// Interaction HTTP handlers.
//
// This file exposes REST endpoints for player turns:
//   - POST /sessions/{id}/interactions   (play a turn in the session)
//   - POST /interactions                 (same, session_id in the body)
//   - GET  /sessions/{id}/interactions   (history, newest first, ETag support)
//
// Idempotency:
// With an Idempotency-Key header, a retry of a turn that already succeeded
// returns the stored interaction with 200 and `Idempotency-Replayed: true`
// instead of playing the turn again.
package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-narrator-backend/internal/domain"
	"github.com/tbourn/go-narrator-backend/internal/http/middleware"
	"github.com/tbourn/go-narrator-backend/internal/repo"
	"github.com/tbourn/go-narrator-backend/internal/services"
)

//
// DTOs
//

// InteractionRequest is the JSON payload for a player turn.
type InteractionRequest struct {
	// SessionID is required on POST /interactions and must match the path
	// on POST /sessions/{id}/interactions when given.
	SessionID string `json:"session_id,omitempty" example:"3f2b8c1e-9a4d-4c3b-8e2f-1a2b3c4d5e6f"`
	// PlayerInput is what the player said or typed.
	PlayerInput string `json:"player_input" binding:"required" example:"Somos 3 jogadores e eu tenho 9 anos"`
	// PlayerInputType is "text" (default) or "voice".
	PlayerInputType string `json:"player_input_type,omitempty" example:"text"`
	// IncludeAudioResponse asks for a narrated audio URL when available.
	IncludeAudioResponse bool `json:"include_audio_response,omitempty"`
}

// InteractionResponse is the persisted interaction.
type InteractionResponse struct {
	*domain.Interaction
	// Resumed is true when this turn moved the session from paused to active.
	Resumed bool `json:"resumed,omitempty"`
}

// ListInteractionsResponse contains a page of interactions and pagination metadata.
type ListInteractionsResponse struct {
	Interactions []domain.Interaction `json:"interactions"`
	Pagination   Pagination           `json:"pagination"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeInput normalizes line endings, collapses blank-line runs and trims.
func sanitizeInput(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// idempotencyKey returns the key validated by the middleware, falling back to
// the raw header when the middleware is not mounted.
func idempotencyKey(c *gin.Context) string {
	if k, ok := middleware.GetIdempotencyKey(c); ok {
		return k
	}
	return strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
}

//
// Handlers
//

// PostSessionInteraction godoc
// @ID          postSessionInteraction
// @Summary     Play a turn
// @Description Sends the player's input to the narrator. A dice request ("rolar os dados") rolls an element locally;
// @Description anything else is answered by the session's LLM. Paused sessions are resumed.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Interactions
// @Accept      json
// @Produce     json
//
// @Param       X-Player-ID      header  string  false "Player ID that owns the session"  example(player123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"   example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Session ID (UUID)"                  format(uuid)
// @Param       body             body    handlers.InteractionRequest  true  "Player turn"
//
// @Success     201  {object}  handlers.InteractionResponse  "Persisted interaction"
// @Success     200  {object}  handlers.InteractionResponse  "Idempotent replay"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or session not playable"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Another turn is in progress"
// @Failure     422  {object}  handlers.ErrorResponse  "Game has no scenes"
// @Failure     502  {object}  handlers.ErrorResponse  "LLM provider failed"
// @Failure     503  {object}  handlers.ErrorResponse  "No LLM configuration"
// @Router      /sessions/{id}/interactions [post]
func (h *Handlers) PostSessionInteraction(c *gin.Context) {
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	var req InteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "player_input required")
		return
	}
	if req.SessionID != "" && req.SessionID != id {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session_id does not match path")
		return
	}
	h.interact(c, id, req)
}

// PostInteraction godoc
// @ID          postInteraction
// @Summary     Play a turn (session in body)
// @Description Same as POST /sessions/{id}/interactions with session_id carried in the body.
// @Tags        Interactions
// @Accept      json
// @Produce     json
//
// @Param       X-Player-ID      header  string  false "Player ID that owns the session"  example(player123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"   example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.InteractionRequest  true  "Player turn"
//
// @Success     201  {object}  handlers.InteractionResponse  "Persisted interaction"
// @Success     200  {object}  handlers.InteractionResponse  "Idempotent replay"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or session not playable"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Another turn is in progress"
// @Failure     422  {object}  handlers.ErrorResponse  "Game has no scenes"
// @Failure     502  {object}  handlers.ErrorResponse  "LLM provider failed"
// @Failure     503  {object}  handlers.ErrorResponse  "No LLM configuration"
// @Router      /interactions [post]
func (h *Handlers) PostInteraction(c *gin.Context) {
	var req InteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session_id and player_input required")
		return
	}
	if _, err := uuid.Parse(req.SessionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session_id must be a UUID")
		return
	}
	h.interact(c, req.SessionID, req)
}

func (h *Handlers) interact(c *gin.Context, sessionID string, req InteractionRequest) {
	input := sanitizeInput(req.PlayerInput)
	if input == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "player_input required")
		return
	}

	res, err := h.interactions.Interact(c.Request.Context(), services.InteractRequest{
		SessionID:      sessionID,
		PlayerID:       middleware.PlayerID(c),
		Input:          input,
		InputType:      req.PlayerInputType,
		IncludeAudio:   req.IncludeAudioResponse,
		IdempotencyKey: idempotencyKey(c),
	})
	if err != nil {
		failService(c, err)
		return
	}

	body := InteractionResponse{Interaction: res.Interaction, Resumed: res.Resumed}
	if res.Replayed {
		c.Header("Idempotency-Replayed", "true")
		ok(c, http.StatusOK, body)
		return
	}
	ok(c, http.StatusCreated, body)
}

// ListInteractions godoc
// @ID          listInteractions
// @Summary     Session history
// @Description Returns a page of the session's interactions, newest first. Supports weak ETag via If-None-Match.
// @Tags        Interactions
// @Produce     json
//
// @Param       X-Player-ID    header  string  false "Player ID that owns the session"  example(player123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       id             path    string  true  "Session ID (UUID)"  format(uuid)
// @Param       page           query   int     false "Page number"        minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"     minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListInteractionsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sessions/{id}/interactions [get]
func (h *Handlers) ListInteractions(c *gin.Context) {
	ctx := c.Request.Context()
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	pid := middleware.PlayerID(c)

	// ETag pre-check (best effort), only once ownership is known.
	if svc, isSvc := h.interactions.(*services.InteractionService); isSvc && svc.DB != nil {
		if _, err := h.sessions.Get(ctx, pid, id); err != nil {
			failService(c, err)
			return
		}
		if count, latest, err := repo.InteractionsStats(ctx, svc.DB, id); err == nil {
			var ts int64
			if latest != nil {
				ts = latest.Unix()
			}
			if notModified(c, "interactions:"+id, count, ts) {
				return
			}
		}
	}

	page, pageSize := clampPagination(c)
	items, total, err := h.interactions.History(ctx, pid, id, page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, ListInteractionsResponse{
		Interactions: items,
		Pagination:   pagination(page, pageSize, total),
	})
}
