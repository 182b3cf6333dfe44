// Board HTTP handlers.
//
//   - GET /sessions/{id}/board-order   (turn order, current and next player)
//   - GET /sessions/{id}/board         (rendered board text and raw state)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-narrator-backend/internal/http/middleware"
)

// GetBoardOrder godoc
// @ID          getBoardOrder
// @Summary     Turn order
// @Description Returns the session's roll order with the current and next player. Without board state the order
// @Description is derived from the room roster, then from the players named in the session history.
// @Tags        Board
// @Produce     json
//
// @Param       X-Player-ID  header  string  false "Player ID that owns the session"  example(player123)
// @Param       id           path    string  true  "Session ID (UUID)"                format(uuid)
//
// @Success     200  {object} services.BoardOrder
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sessions/{id}/board-order [get]
func (h *Handlers) GetBoardOrder(c *gin.Context) {
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	order, err := h.boards.Order(c.Request.Context(), middleware.PlayerID(c), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, order)
}

// GetBoard godoc
// @ID          getBoard
// @Summary     Board status
// @Description Returns the player's element board as narrator text plus the raw state.
// @Tags        Board
// @Produce     json
//
// @Param       X-Player-ID  header  string  false "Player ID that owns the session"  example(player123)
// @Param       id           path    string  true  "Session ID (UUID)"                format(uuid)
//
// @Success     200  {object} services.BoardView
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sessions/{id}/board [get]
func (h *Handlers) GetBoard(c *gin.Context) {
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	view, err := h.boards.Status(c.Request.Context(), middleware.PlayerID(c), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, view)
}
