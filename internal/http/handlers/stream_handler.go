// Stream handler.
//
//   - GET /sessions/{id}/stream   (websocket; pushes session events)
//
// Each persisted interaction and each status change of the session is sent
// as one JSON text frame (events.Event). The stream is read-only: client
// frames are discarded and only keep the connection alive. A slow client
// loses events instead of delaying turns.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tbourn/go-narrator-backend/internal/events"
	"github.com/tbourn/go-narrator-backend/internal/http/middleware"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsReadLimit  = 512
)

// Origin checks are left to the CORS layer in front of the API.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// StreamSession godoc
// @ID          streamSession
// @Summary     Live session stream (websocket)
// @Description Upgrades to a websocket and pushes {type, session_id, data, at} events for the session:
// @Description "interaction" with the persisted interaction, "session" with the new status.
// @Tags        Sessions
//
// @Param       X-Player-ID  header  string  false "Player ID that owns the session"  example(player123)
// @Param       id           path    string  true  "Session ID (UUID)"                format(uuid)
//
// @Success     101  {string} string "Switching Protocols"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Session not found or streaming disabled"
// @Router      /sessions/{id}/stream [get]
func (h *Handlers) StreamSession(c *gin.Context) {
	if h.hub == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "streaming disabled")
		return
	}
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	sess, err := h.sessions.Get(c.Request.Context(), middleware.PlayerID(c), id)
	if err != nil {
		failService(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the client.
		middleware.LoggerFrom(c).Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	sub := h.hub.Subscribe(sess.ID)
	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, sub, done)
}

// readPump drains client frames so pongs and close frames are processed.
// It closes done when the connection goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards subscription events and pings until either side stops.
func writePump(conn *websocket.Conn, sub *events.Subscription, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		sub.Close()
		_ = conn.Close()
	}()

	for {
		select {
		case ev, open := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !open {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
