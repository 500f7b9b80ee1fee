package notify

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BroadcastUnregisteredIsNoop(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, NotConnected, r.Broadcast("nobody", Event{Type: EventNotification}))
	assert.Equal(t, 0, r.Size())
}

func TestRegistry_RegisterAndBroadcast(t *testing.T) {
	r := NewRegistry()
	ch := make(chan Event, 4)
	r.Register("user-1", ch)

	assert.Equal(t, Delivered, r.Broadcast("user-1", Event{Type: EventNotification, Message: "hi"}))
	ev := <-ch
	assert.Equal(t, "hi", ev.Message)
}

func TestRegistry_OrderPreserved(t *testing.T) {
	r := NewRegistry()
	ch := make(chan Event, 16)
	r.Register("user-1", ch)

	for i := 0; i < 10; i++ {
		require.Equal(t, Delivered, r.Broadcast("user-1", Event{Type: EventNotification, Message: fmt.Sprintf("%d", i)}))
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, fmt.Sprintf("%d", i), (<-ch).Message)
	}
}

func TestRegistry_LastRegisterWins(t *testing.T) {
	r := NewRegistry()
	old := make(chan Event, 1)
	neu := make(chan Event, 1)
	r.Register("user-1", old)
	r.Register("user-1", neu)

	require.Equal(t, Delivered, r.Broadcast("user-1", Event{Message: "tail"}))
	assert.Len(t, neu, 1)
	assert.Len(t, old, 0)
}

func TestRegistry_RemoveIsCompareAndRemove(t *testing.T) {
	r := NewRegistry()
	old := make(chan Event, 1)
	neu := make(chan Event, 1)
	r.Register("user-1", old)
	r.Register("user-1", neu)

	// The old connection's teardown must not evict the new registration.
	r.Remove("user-1", old)
	assert.True(t, r.Connected("user-1"))

	r.Remove("user-1", neu)
	assert.False(t, r.Connected("user-1"))

	// Removing when nothing is registered is a no-op.
	r.Remove("user-1", neu)
}

func TestRegistry_FullChannelSelfHeals(t *testing.T) {
	r := NewRegistry()
	ch := make(chan Event, 1)
	r.Register("user-1", ch)

	require.Equal(t, Delivered, r.Broadcast("user-1", Event{Message: "1"}))
	// Buffer full: delivery fails, the stale registration is dropped, and
	// nothing blocks or retries.
	assert.Equal(t, Failed, r.Broadcast("user-1", Event{Message: "2"}))
	assert.False(t, r.Connected("user-1"))
	assert.Equal(t, NotConnected, r.Broadcast("user-1", Event{Message: "3"}))
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i%4)
			for j := 0; j < 100; j++ {
				ch := make(chan Event, 8)
				r.Register(user, ch)
				r.Broadcast(user, Event{Type: EventNotification})
				r.Remove(user, ch)
			}
		}(i)
	}
	wg.Wait()

	// Every goroutine removed its own channel; entries left behind can only
	// belong to a registration that was replaced, then self-healed away on
	// the next broadcast-to-full — either way no channel leaks past Size 4.
	assert.LessOrEqual(t, r.Size(), 4)
}
