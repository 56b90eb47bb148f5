// internal/realtime/bridge.go
package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const eventsChannel = "localspot:events"

type bridgeMessage struct {
	UserID uuid.UUID       `json:"user_id"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// Bridge fans events out across server instances through Redis pub/sub. Every
// NotifyUser publishes to a shared channel; every instance subscribes and
// delivers to the sockets connected to it. The in-process registry stays the
// source of truth for local connections.
type Bridge struct {
	hub    *Hub
	client *redis.Client
	cancel context.CancelFunc
}

func NewBridge(hub *Hub, client *redis.Client) *Bridge {
	return &Bridge{hub: hub, client: client}
}

// Start subscribes to the events channel and delivers incoming messages to
// the local hub until Stop is called.
func (b *Bridge) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	sub := b.client.Subscribe(ctx, eventsChannel)
	// Force the subscription before returning so callers can publish
	// immediately after Start.
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		return err
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.deliver(msg.Payload)
			}
		}
	}()

	return nil
}

func (b *Bridge) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
}

// NotifyUser publishes the event for every instance to deliver locally.
// Returns whether this instance has a live connection for the user; remote
// instances deliver independently.
func (b *Bridge) NotifyUser(userID uuid.UUID, event string, data interface{}) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode realtime event")
		return false
	}

	payload, _ := json.Marshal(bridgeMessage{UserID: userID, Event: event, Data: raw})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := b.client.Publish(ctx, eventsChannel, payload).Err(); err != nil {
		logrus.WithError(err).Warn("Realtime publish failed, delivering locally only")
		return b.hub.NotifyUser(userID, event, data)
	}

	return b.hub.IsOnline(userID)
}

func (b *Bridge) deliver(payload string) {
	var msg bridgeMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		logrus.WithError(err).Warn("Dropping malformed realtime message")
		return
	}

	var data interface{}
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			logrus.WithError(err).Warn("Dropping realtime message with bad payload")
			return
		}
	}

	b.hub.NotifyUser(msg.UserID, msg.Event, data)
}
