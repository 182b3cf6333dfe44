// Catalog HTTP handlers (read-only).
//
//   - GET /games                 (active games)
//   - GET /games/{id}/scenes     (active scenes in play order)
//   - GET /config/llms           (LLM configurations, API keys never included)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-narrator-backend/internal/domain"
)

// ListGamesResponse wraps the active games.
type ListGamesResponse struct {
	Games []domain.Game `json:"games"`
}

// ListScenesResponse wraps a game's scenes.
type ListScenesResponse struct {
	Scenes []domain.Scene `json:"scenes"`
}

// ListLLMConfigsResponse wraps the LLM configurations.
type ListLLMConfigsResponse struct {
	Configurations []domain.LLMConfiguration `json:"configurations"`
}

// ListGames godoc
// @ID          listGames
// @Summary     List games
// @Tags        Catalog
// @Produce     json
// @Success     200  {object} handlers.ListGamesResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /games [get]
func (h *Handlers) ListGames(c *gin.Context) {
	games, err := h.catalog.ListGames(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if games == nil {
		games = []domain.Game{}
	}
	ok(c, http.StatusOK, ListGamesResponse{Games: games})
}

// ListScenes godoc
// @ID          listScenes
// @Summary     List a game's scenes
// @Description Active scenes ordered by (phase, order). Scene text is omitted unless content=true.
// @Tags        Catalog
// @Produce     json
//
// @Param       id       path   string  true  "Game ID"
// @Param       content  query  bool    false "Include scene text"
//
// @Success     200  {object} handlers.ListScenesResponse
// @Failure     404  {object} handlers.ErrorResponse "Game not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /games/{id}/scenes [get]
func (h *Handlers) ListScenes(c *gin.Context) {
	scenes, err := h.catalog.ListScenes(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	if scenes == nil {
		scenes = []domain.Scene{}
	}
	if !strings.EqualFold(c.Query("content"), "true") {
		for i := range scenes {
			scenes[i].FileContent = ""
		}
	}
	ok(c, http.StatusOK, ListScenesResponse{Scenes: scenes})
}

// ListLLMConfigs godoc
// @ID          listLLMConfigs
// @Summary     List LLM configurations
// @Description Global configurations, plus the game's own when game_id is given.
// @Tags        Catalog
// @Produce     json
//
// @Param       game_id  query  string  false "Game ID"
//
// @Success     200  {object} handlers.ListLLMConfigsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /config/llms [get]
func (h *Handlers) ListLLMConfigs(c *gin.Context) {
	cfgs, err := h.catalog.ListLLMConfigs(c.Request.Context(), strings.TrimSpace(c.Query("game_id")))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if cfgs == nil {
		cfgs = []domain.LLMConfiguration{}
	}
	ok(c, http.StatusOK, ListLLMConfigsResponse{Configurations: cfgs})
}
