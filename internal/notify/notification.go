// Package notify implements the notification core: the persisted record and
// its pending→terminal lifecycle, the in-memory live-connection registry,
// and the dispatcher that ties persist-then-push together.
package notify

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrValidation wraps malformed send input.
	ErrValidation = errors.New("invalid notification")
	// ErrNotFound is returned when a referenced notification does not exist.
	ErrNotFound = errors.New("notification not found")
	// ErrInvalidTransition is returned when a terminal status would be
	// overridden by a different terminal status.
	ErrInvalidTransition = errors.New("notification already responded")
)

// Type distinguishes coach invitations from direct messages.
type Type string

const (
	TypeCoachInvite   Type = "CoachInvite"
	TypeDirectMessage Type = "DirectMessage"
)

// IsValid returns true if the type is a known value.
func (t Type) IsValid() bool {
	switch t {
	case TypeCoachInvite, TypeDirectMessage:
		return true
	default:
		return false
	}
}

// Status is the lifecycle state. pending is initial; accepted and declined
// are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// Terminal returns true for states with no outgoing transition.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// Notification is one invite or message. Metadata is an opaque bag of
// cross-references (coach/athlete/message ids, attachment URLs) passed
// through unvalidated.
type Notification struct {
	ID              string         `json:"id"`
	RecipientUserID string         `json:"recipientUserId"`
	SenderUserID    string         `json:"senderUserId"`
	Type            Type           `json:"type"`
	Status          Status         `json:"status"`
	Message         string         `json:"message"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	RespondedAt     *time.Time     `json:"respondedAt,omitempty"`
}

// New validates the send parameters and returns a pending notification with
// a fresh id.
func New(senderID, recipientID string, typ Type, message string, metadata map[string]any) (*Notification, error) {
	if senderID == "" {
		return nil, fmt.Errorf("%w: senderUserId is required", ErrValidation)
	}
	if recipientID == "" {
		return nil, fmt.Errorf("%w: recipientUserId is required", ErrValidation)
	}
	if !typ.IsValid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrValidation, typ)
	}
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}

	return &Notification{
		ID:              uuid.NewString(),
		RecipientUserID: recipientID,
		SenderUserID:    senderID,
		Type:            typ,
		Status:          StatusPending,
		Message:         message,
		Metadata:        metadata,
		CreatedAt:       time.Now().UTC(),
	}, nil
}
