// internal/handlers/realtime.go
package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/localspot/localspot-backend/internal/realtime"
	"github.com/localspot/localspot-backend/internal/utils"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 45 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin browsers are allowed; the socket is useless without a
	// valid token anyway.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// wsSink serializes writes to one websocket connection. gorilla/websocket
// allows a single concurrent writer, and the hub fan-out plus the ping
// loop both write.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) Send(evt realtime.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteJSON(evt)
}

func (s *wsSink) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

type clientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// GET /ws/notifications
//
// The upgrade itself is unauthenticated. The client must then send an
// authenticate message carrying a JWT; a bad token keeps the socket open
// but never subscribes it, so it receives nothing.
func (h *RealtimeHandler) Serve(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logrus.WithError(err).Debug("Websocket upgrade failed")
		return
	}

	connID := uuid.NewString()
	sink := &wsSink{conn: conn}
	registered := false

	defer func() {
		h.hub.Unregister(connID)
		conn.Close()
	}()

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := sink.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Event {
		case "authenticate":
			if registered {
				continue
			}
			userID, ok := h.authenticate(msg.Data)
			if !ok {
				sink.Send(realtime.Event{Event: "error", Data: gin.H{"message": "authentication failed"}})
				continue
			}
			h.hub.Register(userID, connID, sink)
			registered = true
			sink.Send(realtime.Event{Event: "authenticated", Data: gin.H{"user_id": userID}})
		case "ping":
			sink.Send(realtime.Event{Event: "pong", Data: nil})
		default:
			sink.Send(realtime.Event{Event: "error", Data: gin.H{"message": "unknown event"}})
		}
	}
}

func (h *RealtimeHandler) authenticate(raw json.RawMessage) (uuid.UUID, bool) {
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Token == "" {
		return uuid.Nil, false
	}

	claims, err := utils.ValidateJWT(payload.Token)
	if err != nil {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}
