// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are stable, lowercase snake_case strings returned in the `code` field
// of every error envelope. Clients branch on them instead of parsing
// messages.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "generation_failed",
//	  "message": "response generation failed: upstream timeout"
//	}
package handlers

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeRateLimited = "too_many_requests"
	ErrCodeInternal    = "internal_error"

	// Session lifecycle and engine outcomes.
	ErrCodeInvalidState     = "invalid_state"
	ErrCodeNoScenes         = "no_scenes"
	ErrCodeNoLLMConfig      = "no_llm_config"
	ErrCodeGenerationFailed = "generation_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
