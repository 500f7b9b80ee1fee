package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLinker struct {
	mu    sync.Mutex
	links [][2]string
	err   error
}

func (f *fakeLinker) Link(_ context.Context, coachID, athleteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.links = append(f.links, [2]string{coachID, athleteID})
	return nil
}

func pendingInvite(t *testing.T, store Store) *Notification {
	t.Helper()
	n, err := New("coach-1", "ath-1", TypeCoachInvite, "Join my squad", nil)
	require.NoError(t, err)
	require.NoError(t, store.Insert(context.Background(), n))
	return n
}

func TestLifecycle_AcceptPendingInvite(t *testing.T) {
	store := newMemStore()
	linker := &fakeLinker{}
	lc := NewLifecycle(store, linker, slog.Default())
	n := pendingInvite(t, store)

	got, err := lc.Accept(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status)
	assert.Equal(t, [][2]string{{"coach-1", "ath-1"}}, linker.links)
}

func TestLifecycle_AcceptIsIdempotent(t *testing.T) {
	store := newMemStore()
	linker := &fakeLinker{}
	lc := NewLifecycle(store, linker, slog.Default())
	n := pendingInvite(t, store)

	_, err := lc.Accept(context.Background(), n.ID)
	require.NoError(t, err)

	// Duplicate click: succeeds without error, without altering status,
	// and without re-running the side effect.
	got, err := lc.Accept(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status)
	assert.Len(t, linker.links, 1)
}

func TestLifecycle_CrossTerminalIsInvalid(t *testing.T) {
	store := newMemStore()
	lc := NewLifecycle(store, nil, slog.Default())
	n := pendingInvite(t, store)

	_, err := lc.Decline(context.Background(), n.ID)
	require.NoError(t, err)

	_, err = lc.Accept(context.Background(), n.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestLifecycle_UnknownID(t *testing.T) {
	lc := NewLifecycle(newMemStore(), nil, slog.Default())
	_, err := lc.Accept(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLifecycle_DeclineSkipsLinker(t *testing.T) {
	store := newMemStore()
	linker := &fakeLinker{}
	lc := NewLifecycle(store, linker, slog.Default())
	n := pendingInvite(t, store)

	got, err := lc.Decline(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDeclined, got.Status)
	assert.Empty(t, linker.links)
}

func TestLifecycle_LinkerFailureDoesNotRevert(t *testing.T) {
	store := newMemStore()
	linker := &fakeLinker{err: errors.New("relationship service down")}
	lc := NewLifecycle(store, linker, slog.Default())
	n := pendingInvite(t, store)

	got, err := lc.Accept(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status)
}

func TestLifecycle_ConcurrentAcceptDecline(t *testing.T) {
	for i := 0; i < 50; i++ {
		store := newMemStore()
		linker := &fakeLinker{}
		lc := NewLifecycle(store, linker, slog.Default())
		n := pendingInvite(t, store)

		var wg sync.WaitGroup
		results := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, results[0] = lc.Accept(context.Background(), n.ID)
		}()
		go func() {
			defer wg.Done()
			_, results[1] = lc.Decline(context.Background(), n.ID)
		}()
		wg.Wait()

		final, err := store.Get(context.Background(), n.ID)
		require.NoError(t, err)
		require.True(t, final.Status.Terminal())

		// Exactly one racer wins; the loser sees InvalidTransition.
		winners := 0
		for _, rerr := range results {
			if rerr == nil {
				winners++
			} else {
				assert.ErrorIs(t, rerr, ErrInvalidTransition)
			}
		}
		assert.Equal(t, 1, winners)

		// The side effect fired only if accept won.
		if final.Status == StatusAccepted {
			assert.Len(t, linker.links, 1)
		} else {
			assert.Empty(t, linker.links)
		}
	}
}
