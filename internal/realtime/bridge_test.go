// internal/realtime/bridge_test.go
package realtime

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type channelSink struct {
	ch chan Event
}

func (c *channelSink) Send(e Event) error {
	c.ch <- e
	return nil
}

func TestBridgeDeliversPublishedEvents(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hub := NewHub()
	userID := uuid.New()
	sink := &channelSink{ch: make(chan Event, 1)}
	hub.Register(userID, "conn-1", sink)

	bridge := NewBridge(hub, client)
	require.NoError(t, bridge.Start())
	defer bridge.Stop()

	delivered := bridge.NotifyUser(userID, "new_lead", map[string]interface{}{"business_name": "Corner Cafe"})
	assert.True(t, delivered)

	select {
	case evt := <-sink.ch:
		assert.Equal(t, "new_lead", evt.Event)
		data, ok := evt.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "Corner Cafe", data["business_name"])
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered through the bridge")
	}
}

func TestBridgeReportsOfflineUser(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	bridge := NewBridge(NewHub(), client)
	require.NoError(t, bridge.Start())
	defer bridge.Stop()

	assert.False(t, bridge.NotifyUser(uuid.New(), "new_lead", nil))
}
