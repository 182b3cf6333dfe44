package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderPlayerID carries the caller's player identity until a real
// authentication layer sets it in the Gin context.
const HeaderPlayerID = "X-Player-ID"

// ctxKeyPlayerID is where the resolved player identity lives.
const ctxKeyPlayerID = "playerID"

// AnonymousPlayer is used when no identity was supplied.
const AnonymousPlayer = "demo-player"

// PlayerIdentity resolves the player making the request and stores it in the
// context. An identity already set upstream wins over the header.
func PlayerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxKeyPlayerID, PlayerID(c))
		c.Next()
	}
}

// PlayerID returns the player identity of the request: the context value,
// else the X-Player-ID header, else AnonymousPlayer.
func PlayerID(c *gin.Context) string {
	if c == nil {
		return AnonymousPlayer
	}
	if v, ok := c.Get(ctxKeyPlayerID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader(HeaderPlayerID)); h != "" {
			return h
		}
	}
	return AnonymousPlayer
}
