package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/physioline/physioline/internal/api/auth"
	"github.com/physioline/physioline/internal/api/respond"
	"github.com/physioline/physioline/internal/notify"
)

// StreamEvents holds an SSE connection open for the current user: a
// "connected" handshake, an "initial" snapshot of pending notifications,
// then the live tail. Events broadcast before registration or after
// disconnect are dropped; clients re-fetch history on (re)connect.
// @Summary Live notification stream
// @Tags notifications
// @Produce text/event-stream
// @Router /api/v1/events [get]
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respond.WriteError(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "Response writer does not support streaming")
		return
	}

	userID := auth.UserID(r.Context())
	ch := make(chan notify.Event, h.cfg.EventBufferSize)
	h.registry.Register(userID, ch)
	// Compare-and-remove: never tear down a registration a newer
	// connection has replaced.
	defer h.registry.Remove(userID, ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, notify.Event{Type: notify.EventConnected, Message: "Live notifications connected"}); err != nil {
		return
	}
	flusher.Flush()

	// Initial snapshot: the full pending list, so nothing broadcast before
	// this registration is missed.
	pending, err := h.notifications.ListPending(r.Context(), userID)
	if err != nil {
		h.logger.Warn("initial snapshot failed", "user_id", userID, "error", err)
	} else {
		if pending == nil {
			pending = []notify.Notification{}
		}
		if err := writeEvent(w, notify.Event{Type: notify.EventInitial, Data: pending}); err != nil {
			return
		}
		flusher.Flush()
	}

	h.logger.Info("live stream opened", "user_id", userID)
	defer h.logger.Info("live stream closed", "user_id", userID)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			if err := writeEvent(w, ev); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent frames one event as `data: <json>\n\n`.
func writeEvent(w io.Writer, ev notify.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
