package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists notification records. The lifecycle and dispatcher depend
// on this interface so tests can run against an in-memory fake.
type Store interface {
	Insert(ctx context.Context, n *Notification) error
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (*Notification, error)
	ListForUser(ctx context.Context, userID string) ([]Notification, error)
	ListPending(ctx context.Context, userID string) ([]Notification, error)
	// TransitionFromPending applies a compare-and-set status update: it
	// succeeds only if the observed status is still pending. It returns the
	// current record and whether the transition was applied; ErrNotFound if
	// the id does not exist.
	TransitionFromPending(ctx context.Context, id string, to Status) (*Notification, bool, error)
}

// PGStore is the pgx-backed Store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps a pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const notificationColumns = `id, recipient_user_id, sender_user_id, type, status, message, metadata, created_at, responded_at`

// Insert persists a new notification.
func (s *PGStore) Insert(ctx context.Context, n *Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, recipient_user_id, sender_user_id, type, status, message, metadata, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		n.ID, n.RecipientUserID, n.SenderUserID, n.Type, n.Status, n.Message, n.Metadata, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// Get returns a notification by id.
func (s *PGStore) Get(ctx context.Context, id string) (*Notification, error) {
	row := s.pool.QueryRow(ctx, "notification_by_id", id)
	n, err := scanNotification(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// ListForUser returns a user's notifications, pending first, newest first
// within each status.
func (s *PGStore) ListForUser(ctx context.Context, userID string) ([]Notification, error) {
	return s.list(ctx, "notifications_for_user", userID)
}

// ListPending returns a user's pending notifications, oldest first — the
// snapshot pushed as the "initial" live event.
func (s *PGStore) ListPending(ctx context.Context, userID string) ([]Notification, error) {
	return s.list(ctx, "pending_notifications", userID)
}

func (s *PGStore) list(ctx context.Context, stmt, userID string) ([]Notification, error) {
	rows, err := s.pool.Query(ctx, stmt, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stmt, err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// TransitionFromPending performs the CAS as a status-guarded UPDATE so two
// concurrent accept/decline calls can never both win.
func (s *PGStore) TransitionFromPending(ctx context.Context, id string, to Status) (*Notification, bool, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE notifications
		SET status = $2, responded_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+notificationColumns,
		id, to,
	)
	n, err := scanNotification(row)
	if err == nil {
		return n, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("transition notification: %w", err)
	}

	// CAS lost or id unknown — distinguish by re-reading.
	n, err = s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return n, false, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*Notification, error) {
	var n Notification
	var respondedAt *time.Time
	if err := row.Scan(
		&n.ID, &n.RecipientUserID, &n.SenderUserID, &n.Type, &n.Status,
		&n.Message, &n.Metadata, &n.CreatedAt, &respondedAt,
	); err != nil {
		return nil, err
	}
	n.RespondedAt = respondedAt
	return &n, nil
}
