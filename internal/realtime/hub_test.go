// internal/realtime/hub_test.go
package realtime

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeSink struct {
	mu     sync.Mutex
	events []Event
}

func (f *fakeSink) Send(e Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeSink) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

func TestRegisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	sink := &fakeSink{}

	hub.Register(userID, "conn-1", sink)
	hub.Register(userID, "conn-1", sink)

	assert.Equal(t, 1, hub.ConnectionCount(userID))
}

func TestUnregisterUnknownConnIsNoop(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	hub.Register(userID, "conn-1", &fakeSink{})

	hub.Unregister("never-registered")

	assert.Equal(t, 1, hub.ConnectionCount(userID))
}

func TestUnregisterEvictsEmptySession(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	hub.Register(userID, "conn-1", &fakeSink{})
	hub.Unregister("conn-1")

	assert.False(t, hub.IsOnline(userID))
	assert.Equal(t, 0, hub.ConnectionCount(userID))
}

func TestNotifyUserDeliversToAllConnections(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	first := &fakeSink{}
	second := &fakeSink{}
	hub.Register(userID, "conn-1", first)
	hub.Register(userID, "conn-2", second)

	delivered := hub.NotifyUser(userID, "new_lead", map[string]string{"lead_id": "42"})

	assert.True(t, delivered)
	assert.Len(t, first.received(), 1)
	assert.Len(t, second.received(), 1)
	assert.Equal(t, "new_lead", first.received()[0].Event)
}

func TestNotifyUserDropsWhenOffline(t *testing.T) {
	hub := NewHub()

	delivered := hub.NotifyUser(uuid.New(), "new_lead", nil)

	assert.False(t, delivered)
}

func TestNotifyUserDoesNotCrossUsers(t *testing.T) {
	hub := NewHub()
	alice := uuid.New()
	bob := uuid.New()
	aliceSink := &fakeSink{}
	bobSink := &fakeSink{}
	hub.Register(alice, "conn-a", aliceSink)
	hub.Register(bob, "conn-b", bobSink)

	hub.NotifyUser(alice, "new_lead", nil)

	assert.Len(t, aliceSink.received(), 1)
	assert.Empty(t, bobSink.received())
}
