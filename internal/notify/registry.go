package notify

import "sync"

// Delivery is the explicit result of a broadcast attempt.
type Delivery int

const (
	// Delivered: the event was handed to the user's live channel.
	Delivered Delivery = iota
	// NotConnected: no channel is registered for the user; the event is
	// dropped. The persisted record remains authoritative.
	NotConnected
	// Failed: the channel could not take the event (slow or abandoned
	// consumer); the registration was removed.
	Failed
)

func (d Delivery) String() string {
	switch d {
	case Delivered:
		return "delivered"
	case NotConnected:
		return "not_connected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Registry maps a user id to their single active outbound event channel.
// It is a shared structure mutated by concurrent connect/disconnect/
// broadcast calls; all operations are linearizable per user entry. The
// registry never closes channels — transport lifecycle belongs to the
// connection handler that registered them.
type Registry struct {
	mu       sync.Mutex
	channels map[string]chan<- Event
}

// NewRegistry creates an empty registry. Construct once at process start
// and inject into handlers.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]chan<- Event)}
}

// Register installs ch as the delivery target for userID, replacing any
// prior registration. The last successful register wins; closing the
// replaced channel is its owner's job.
func (r *Registry) Register(userID string, ch chan<- Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[userID] = ch
}

// Remove clears the registration only if ch is still the installed channel.
// A disconnecting handler must not tear down a registration a newer
// connection has already replaced.
func (r *Registry) Remove(userID string, ch chan<- Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.channels[userID]; ok && current == ch {
		delete(r.channels, userID)
	}
}

// Broadcast attempts fire-and-forget delivery to userID's channel. It never
// blocks on slow consumption: a full channel counts as a broken consumer,
// the stale registration is removed, and the event is dropped.
func (r *Registry) Broadcast(userID string, ev Event) Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[userID]
	if !ok {
		return NotConnected
	}

	select {
	case ch <- ev:
		return Delivered
	default:
		delete(r.channels, userID)
		return Failed
	}
}

// Connected reports whether userID currently has a live channel.
func (r *Registry) Connected(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.channels[userID]
	return ok
}

// Size returns the number of live registrations.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}
