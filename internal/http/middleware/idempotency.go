// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for interaction POSTs. It
// validates the Idempotency-Key header, optionally asks a lookup whether the
// key already produced a stored interaction, and annotates the request so
// downstream code can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed requests (IsReplay)
//   - skip rate limiting for replays
//
// Keys are scoped to (player, session, key). The lookup only runs when the
// session ID is in the route (":id"); POST /interactions carries it in the
// body and is checked by the service instead.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: a stored interaction exists
	ctxKeyRateBypass = "rate.bypass" // bool: skip rate limiting
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the lookup found a stored result for this key.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation. Expiry is the lookup's
// job.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; defaults to ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a still-valid stored interaction exists
// for (playerID, sessionID, key) at now. Errors never block the request.
type IdempotencyLookup func(ctx context.Context, playerID, sessionID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates and stashes the Idempotency-Key header.
//
//   - No header: no-op.
//   - Invalid header: 400 {"code":"bad_idempotency_key"}.
//   - Lookup hit: replay and rate-bypass flags are set.
//
// Replays are still served by the handler, which reads the stored
// interaction back.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if sessionID := c.Param("id"); lookup != nil && sessionID != "" {
			if exists, _ := lookup(c.Request.Context(), PlayerID(c), sessionID, key, time.Now().UTC()); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}
