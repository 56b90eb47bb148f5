// internal/realtime/hub.go
package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event is a named payload pushed to a client connection.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Sink is the outbound side of one live connection. The websocket client
// implements it; tests substitute fakes.
type Sink interface {
	Send(Event) error
}

// Notifier is what services depend on to push events to a user. The Hub
// satisfies it directly for single-process deployments; the Redis bridge
// satisfies it for multi-instance fan-out.
type Notifier interface {
	NotifyUser(userID uuid.UUID, event string, data interface{}) bool
}

// Hub tracks which users currently have live realtime connections. It is an
// injected, explicitly-owned registry so tests can instantiate isolated
// instances. All access goes through the mutex; the hub is shared across
// request goroutines.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[string]Sink
	conns    map[string]uuid.UUID
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[uuid.UUID]map[string]Sink),
		conns:    make(map[string]uuid.UUID),
	}
}

// Register adds a connection to the user's session set. Registering the same
// connection id twice is a no-op.
func (h *Hub) Register(userID uuid.UUID, connID string, sink Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.conns[connID]; exists {
		return
	}

	set, ok := h.sessions[userID]
	if !ok {
		set = make(map[string]Sink)
		h.sessions[userID] = set
	}
	set[connID] = sink
	h.conns[connID] = userID
}

// Unregister removes a connection from whichever user's set contains it.
// Unknown connection ids are a no-op. Empty session sets are evicted so the
// registry never holds entries for fully-disconnected users.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(h.conns, connID)

	if set, ok := h.sessions[userID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(h.sessions, userID)
		}
	}
}

// NotifyUser delivers the event to every live connection of the user.
// Returns false when the user has no live connection; the event is dropped,
// delivery is best-effort at-most-once.
func (h *Hub) NotifyUser(userID uuid.UUID, event string, data interface{}) bool {
	h.mu.RLock()
	set, ok := h.sessions[userID]
	if !ok || len(set) == 0 {
		h.mu.RUnlock()
		return false
	}
	sinks := make([]Sink, 0, len(set))
	for _, s := range set {
		sinks = append(sinks, s)
	}
	h.mu.RUnlock()

	evt := Event{Event: event, Data: data}
	for _, s := range sinks {
		if err := s.Send(evt); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user_id": userID,
				"event":   event,
			}).Warn("Realtime delivery failed")
		}
	}
	return true
}

// ConnectionCount reports the number of live connections for a user.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

// IsOnline reports whether the user has at least one live connection.
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	return h.ConnectionCount(userID) > 0
}
