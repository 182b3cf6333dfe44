// Package events fans persisted interactions out to live subscribers of a
// session, such as a facilitator watching the table over a websocket.
// Delivery is best effort: a slow subscriber loses events rather than
// slowing the interaction that produced them.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event types.
const (
	TypeInteraction = "interaction"
	TypeSession     = "session"
)

// Event is one message on a session stream.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Data      any       `json:"data,omitempty"`
	At        time.Time `json:"at"`
}

// Hub routes events to per-session subscribers. The zero value is not usable;
// call NewHub.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*Subscription]struct{}
	buffer  int
	dropped atomic.Int64
}

// NewHub returns a hub whose subscriptions buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: make(map[string]map[*Subscription]struct{}), buffer: buffer}
}

// Subscription receives a session's events on C until Close.
type Subscription struct {
	C <-chan Event

	ch      chan Event
	hub     *Hub
	session string
	once    sync.Once
}

// Subscribe registers a new subscriber for sessionID.
func (h *Hub) Subscribe(sessionID string) *Subscription {
	ch := make(chan Event, h.buffer)
	s := &Subscription{C: ch, ch: ch, hub: h, session: sessionID}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[sessionID] = set
	}
	set[s] = struct{}{}
	return s
}

// Close unregisters the subscription and closes C. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[s.session]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.session)
			}
		}
		close(s.ch)
	})
}

// Publish delivers ev to every subscriber of ev.SessionID without blocking.
// It returns how many subscribers received it.
func (h *Hub) Publish(ev Event) int {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for s := range h.subs[ev.SessionID] {
		select {
		case s.ch <- ev:
			sent++
		default:
			h.dropped.Add(1)
		}
	}
	return sent
}

// Subscribers returns the number of live subscribers for sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

// Dropped returns how many events were discarded because a buffer was full.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }
