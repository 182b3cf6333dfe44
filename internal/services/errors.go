// Package services defines the business logic for sessions, interactions,
// player boards and the game catalog. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Session errors.
var (
	// ErrSessionNotFound indicates that the session does not exist or belongs
	// to another player.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotActive is returned when a session can neither be played nor
	// resumed (e.g., it has finished).
	ErrSessionNotActive = errors.New("session is not active")

	// ErrInvalidTransition is returned for lifecycle changes that are not
	// allowed from the current status (e.g., resuming a finished session).
	ErrInvalidTransition = errors.New("invalid session status transition")

	// ErrSessionBusy is returned when another interaction for the same session
	// is still running and the wait budget ran out.
	ErrSessionBusy = errors.New("session is busy")

	// ErrGameNotFound indicates that the requested game does not exist.
	ErrGameNotFound = errors.New("game not found")
)

// Interaction errors.
var (
	// ErrEmptyInput is returned when the player input is blank.
	ErrEmptyInput = errors.New("player input is empty")

	// ErrInputTooLong is returned when the player input exceeds the configured
	// rune limit.
	ErrInputTooLong = errors.New("player input too long")

	// ErrInvalidInputType is returned for an unknown player_input_type.
	ErrInvalidInputType = errors.New("player_input_type must be text or voice")

	// ErrNoScenes is returned when the game has no active scene to navigate.
	ErrNoScenes = errors.New("game has no active scenes")

	// ErrNoLLMConfig is returned when no active LLM configuration can serve
	// the session's game.
	ErrNoLLMConfig = errors.New("no active llm configuration")

	// ErrGenerationFailed wraps any completion provider failure. The upstream
	// message is kept in the wrapped error text.
	ErrGenerationFailed = errors.New("response generation failed")
)
