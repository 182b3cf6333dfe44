// Package handlers provides HTTP handler implementations for the public API.
//
// This file holds the response helpers shared by every endpoint: the error
// envelope, fail/ok/noContent, and the translation of service errors into
// status codes.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "session not found"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-narrator-backend/internal/http/middleware"
	"github.com/tbourn/go-narrator-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"session not found"`
}

// fail aborts the request with a structured error. Server errors (>=500) are
// logged through the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail(), used by router-level handlers
// (NoRoute, NoMethod).
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failService maps a service error onto the error envelope.
//
// Upstream provider failures keep their wrapped message so callers can
// diagnose them. Unknown errors are reported as internal without detail.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, services.ErrGameNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrEmptyInput),
		errors.Is(err, services.ErrInputTooLong),
		errors.Is(err, services.ErrInvalidInputType):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrSessionNotActive), errors.Is(err, services.ErrInvalidTransition):
		fail(c, http.StatusBadRequest, ErrCodeInvalidState, err.Error())
	case errors.Is(err, services.ErrSessionBusy):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrNoScenes):
		fail(c, http.StatusUnprocessableEntity, ErrCodeNoScenes, err.Error())
	case errors.Is(err, services.ErrNoLLMConfig):
		fail(c, http.StatusServiceUnavailable, ErrCodeNoLLMConfig, err.Error())
	case errors.Is(err, services.ErrGenerationFailed):
		fail(c, http.StatusBadGateway, ErrCodeGenerationFailed, err.Error())
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
