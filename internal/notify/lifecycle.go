package notify

import (
	"context"
	"fmt"
	"log/slog"
)

// Linker establishes the coach/athlete relationship when a CoachInvite is
// accepted. The relationship itself lives outside this package.
type Linker interface {
	Link(ctx context.Context, coachID, athleteID string) error
}

// Lifecycle applies the pending→accepted|declined state machine. Each
// transition is applied at most once even under concurrent actors; the
// losing racer sees either idempotent success (same terminal target) or
// ErrInvalidTransition.
type Lifecycle struct {
	store  Store
	linker Linker
	logger *slog.Logger
}

// NewLifecycle wires the state machine. linker may be nil when invite
// acceptance has no side effect (tests, admin tooling).
func NewLifecycle(store Store, linker Linker, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{store: store, linker: linker, logger: logger}
}

// Accept moves a pending notification to accepted. Re-accepting an accepted
// notification is an idempotent no-op; accepting a declined one fails with
// ErrInvalidTransition.
func (l *Lifecycle) Accept(ctx context.Context, id string) (*Notification, error) {
	return l.transition(ctx, id, StatusAccepted)
}

// Decline is symmetric to Accept.
func (l *Lifecycle) Decline(ctx context.Context, id string) (*Notification, error) {
	return l.transition(ctx, id, StatusDeclined)
}

func (l *Lifecycle) transition(ctx context.Context, id string, to Status) (*Notification, error) {
	n, applied, err := l.store.TransitionFromPending(ctx, id, to)
	if err != nil {
		return nil, err
	}

	if !applied {
		if n.Status == to {
			// Duplicate click or retried request — not an error.
			return n, nil
		}
		return nil, fmt.Errorf("%w: status is %s", ErrInvalidTransition, n.Status)
	}

	// Side effects run only after the CAS reports success — never act on a
	// transition a concurrent racer already won differently.
	if to == StatusAccepted && n.Type == TypeCoachInvite && l.linker != nil {
		if err := l.linker.Link(ctx, n.SenderUserID, n.RecipientUserID); err != nil {
			l.logger.Warn("coach link failed after accepted invite",
				"notification_id", n.ID,
				"coach_id", n.SenderUserID,
				"athlete_id", n.RecipientUserID,
				"error", err)
		}
	}

	return n, nil
}
