package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physioline/physioline/internal/api/auth"
	"github.com/physioline/physioline/internal/config"
	"github.com/physioline/physioline/internal/notify"
)

// pendingOnlyStore serves a fixed pending list and rejects everything else.
type pendingOnlyStore struct {
	pending []notify.Notification
}

func (s *pendingOnlyStore) Insert(ctx context.Context, n *notify.Notification) error {
	return nil
}

func (s *pendingOnlyStore) Get(ctx context.Context, id string) (*notify.Notification, error) {
	return nil, notify.ErrNotFound
}

func (s *pendingOnlyStore) ListForUser(ctx context.Context, userID string) ([]notify.Notification, error) {
	return nil, nil
}

func (s *pendingOnlyStore) ListPending(ctx context.Context, userID string) ([]notify.Notification, error) {
	return s.pending, nil
}

func (s *pendingOnlyStore) TransitionFromPending(ctx context.Context, id string, to notify.Status) (*notify.Notification, bool, error) {
	return nil, false, notify.ErrNotFound
}

// syncRecorder is an httptest.ResponseRecorder safe to read while the
// stream goroutine is still writing.
type syncRecorder struct {
	mu  sync.Mutex
	rec *httptest.ResponseRecorder
}

func newSyncRecorder() *syncRecorder {
	return &syncRecorder{rec: httptest.NewRecorder()}
}

func (r *syncRecorder) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Header()
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Write(p)
}

func (r *syncRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rec.WriteHeader(code)
}

func (r *syncRecorder) Flush() {}

func (r *syncRecorder) Body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Body.String()
}

func newStreamHandler(store notify.Store, registry *notify.Registry) *Handler {
	return &Handler{
		cfg:           &config.Config{EventBufferSize: 8},
		notifications: store,
		registry:      registry,
		logger:        slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil)),
	}
}

func decodeFrames(t *testing.T, body string) []notify.Event {
	t.Helper()
	var events []notify.Event
	for _, frame := range strings.Split(body, "\n\n") {
		if frame == "" {
			continue
		}
		payload, ok := strings.CutPrefix(frame, "data: ")
		require.True(t, ok, "frame missing data prefix: %q", frame)
		var ev notify.Event
		require.NoError(t, json.Unmarshal([]byte(payload), &ev))
		events = append(events, ev)
	}
	return events
}

func TestStreamEventsHandshakeAndLiveDelivery(t *testing.T) {
	registry := notify.NewRegistry()
	pending := notify.Notification{ID: "n-1", Type: notify.TypeCoachInvite, SenderUserID: "coach-1", RecipientUserID: "athlete-1"}
	h := newStreamHandler(&pendingOnlyStore{pending: []notify.Notification{pending}}, registry)

	ctx, cancel := context.WithCancel(auth.WithUserID(context.Background(), "athlete-1"))
	req := httptest.NewRequest("GET", "/api/v1/events", nil).WithContext(ctx)
	rec := newSyncRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.StreamEvents(rec, req)
	}()

	// Wait for the stream to register, then push one live event.
	require.Eventually(t, func() bool {
		return registry.Connected("athlete-1")
	}, time.Second, time.Millisecond)
	assert.Equal(t, notify.Delivered, registry.Broadcast("athlete-1", notify.Event{Type: notify.EventNotification, Data: map[string]any{"id": "n-2"}}))
	require.Eventually(t, func() bool {
		return strings.Contains(rec.Body(), "n-2")
	}, time.Second, time.Millisecond)

	// Disconnecting closes the loop and unregisters the channel.
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not shut down on context cancellation")
	}
	assert.False(t, registry.Connected("athlete-1"))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	events := decodeFrames(t, rec.Body())
	require.Len(t, events, 3)
	assert.Equal(t, notify.EventConnected, events[0].Type)
	assert.Equal(t, notify.EventInitial, events[1].Type)
	assert.Equal(t, notify.EventNotification, events[2].Type)

	// The initial snapshot carries the stored pending notification.
	initial, err := json.Marshal(events[1].Data)
	require.NoError(t, err)
	var snapshot []notify.Notification
	require.NoError(t, json.Unmarshal(initial, &snapshot))
	require.Len(t, snapshot, 1)
	assert.Equal(t, "n-1", snapshot[0].ID)
}

func TestStreamEventsEmptySnapshotIsEmptyArray(t *testing.T) {
	registry := notify.NewRegistry()
	h := newStreamHandler(&pendingOnlyStore{}, registry)

	ctx, cancel := context.WithCancel(auth.WithUserID(context.Background(), "athlete-2"))
	req := httptest.NewRequest("GET", "/api/v1/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.StreamEvents(rec, req)
	}()
	require.Eventually(t, func() bool {
		return registry.Connected("athlete-2")
	}, time.Second, time.Millisecond)
	cancel()
	<-done

	// A client with nothing pending still gets [] rather than null.
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestWriteEventFraming(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEvent(&buf, notify.Event{Type: notify.EventConnected, Message: "Live notifications connected"}))
	assert.Equal(t, "data: {\"type\":\"connected\",\"message\":\"Live notifications connected\"}\n\n", buf.String())
}
