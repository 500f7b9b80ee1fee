package notify

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_SendPersistsThenPushes(t *testing.T) {
	store := newMemStore()
	registry := NewRegistry()
	d := NewDispatcher(store, registry, slog.Default())

	ch := make(chan Event, 4)
	registry.Register("ath-1", ch)

	n, err := d.Send(context.Background(), "coach-1", "ath-1", TypeDirectMessage, "Session moved to 4pm", map[string]any{"messageId": "m-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, n.Status)

	// The live event carries the already-persisted record.
	ev := <-ch
	assert.Equal(t, EventNotification, ev.Type)
	pushed, ok := ev.Data.(*Notification)
	require.True(t, ok)
	stored, err := store.Get(context.Background(), pushed.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, stored.ID)
}

func TestDispatcher_SendToOfflineRecipient(t *testing.T) {
	store := newMemStore()
	d := NewDispatcher(store, NewRegistry(), slog.Default())

	n, err := d.Send(context.Background(), "coach-1", "ath-2", TypeCoachInvite, "Join my squad", nil)
	require.NoError(t, err)

	// No live channel: the event is dropped but the record survives.
	stored, err := store.Get(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestDispatcher_PersistFailureAbortsPush(t *testing.T) {
	store := newMemStore()
	store.insertErr = errInsertBroken
	registry := NewRegistry()
	d := NewDispatcher(store, registry, slog.Default())

	ch := make(chan Event, 1)
	registry.Register("ath-1", ch)

	_, err := d.Send(context.Background(), "coach-1", "ath-1", TypeDirectMessage, "hello", nil)
	require.ErrorIs(t, err, errInsertBroken)
	assert.Empty(t, ch, "no broadcast-without-persist")
}

func TestDispatcher_SendValidatesInput(t *testing.T) {
	d := NewDispatcher(newMemStore(), NewRegistry(), slog.Default())

	_, err := d.Send(context.Background(), "", "ath-1", TypeDirectMessage, "hello", nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = d.Send(context.Background(), "coach-1", "ath-1", Type("Broadcast"), "hello", nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = d.Send(context.Background(), "coach-1", "ath-1", TypeDirectMessage, "", nil)
	assert.ErrorIs(t, err, ErrValidation)
}
