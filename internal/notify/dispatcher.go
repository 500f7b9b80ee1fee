package notify

import (
	"context"
	"fmt"
	"log/slog"
)

// Dispatcher composes the store and the live registry: every send persists
// the record first, then pushes it to the recipient's channel if one is
// connected. Persistence happens-before broadcast, so a client that queries
// history after receiving a live event always finds the record there.
type Dispatcher struct {
	store    Store
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher wires the dispatcher.
func NewDispatcher(store Store, registry *Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, registry: registry, logger: logger}
}

// Send creates a pending notification and pushes it to the recipient.
// A failed live push is invisible to the sender — the persisted record is
// authoritative and the client re-fetches on (re)connect.
func (d *Dispatcher) Send(ctx context.Context, senderID, recipientID string, typ Type, message string, metadata map[string]any) (*Notification, error) {
	n, err := New(senderID, recipientID, typ, message, metadata)
	if err != nil {
		return nil, err
	}
	if err := d.store.Insert(ctx, n); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}

	d.Push(recipientID, n)
	return n, nil
}

// Push broadcasts a new or updated record to a user's live channel.
// Delivery failure is a liveness hint, not an error: the registry has
// already removed the stale registration.
func (d *Dispatcher) Push(userID string, n *Notification) {
	switch d.registry.Broadcast(userID, Event{Type: EventNotification, Data: n}) {
	case Failed:
		d.logger.Warn("live push failed, registration removed",
			"user_id", userID, "notification_id", n.ID)
	case NotConnected:
		d.logger.Debug("recipient not connected, event dropped",
			"user_id", userID, "notification_id", n.ID)
	}
}
