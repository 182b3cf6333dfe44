// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger. It scrubs obvious
// PII from request metadata before emitting logs and attaches a
// request-scoped logger (request_id, player_id, session_id) for handlers.
//
// Request and response bodies are never logged: player messages and narrator
// replies stay out of access logs. Common identifiers (emails, phone numbers)
// are redacted from query strings and header values, and sensitive headers
// are fully masked.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders lists extra header names whose values are replaced with
// "[REDACTED]". Matching is case-insensitive and merged with the built-in
// set (Authorization, Cookie, Set-Cookie).
type RedactOptions struct {
	MaskHeaders []string
	// Base is the logger requests derive from; zero value uses the global one.
	Base *zerolog.Logger
}

var (
	// UUIDs are redacted before phone numbers so the phone pattern cannot
	// match their digit groups.
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redact scrubs identifiers from s.
func redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactingLogger returns a Gin middleware that logs each request once it
// completes: info for 2xx/3xx, warn for 4xx, error for 5xx. Route IDs in the
// path template (":id") are not redacted; resolved IDs in query strings are.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}
	base := log.Logger
	if opts.Base != nil {
		base = *opts.Base
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		reqLog := base.With().
			Str("request_id", RequestIDFrom(c)).
			Str("player_id", PlayerID(c)).
			Str("session_id", c.Param("id")).
			Logger()
		c.Set(loggerKey, &reqLog)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redact(strings.Join(vv, ", "))
		}

		c.Next()

		status := c.Writer.Status()
		ev := reqLog.Info()
		switch {
		case status >= 500 || len(c.Errors) > 0:
			ev = reqLog.Error()
		case status >= 400:
			ev = reqLog.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", redact(c.Request.URL.RawQuery)).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
