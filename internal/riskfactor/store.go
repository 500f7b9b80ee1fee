package riskfactor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists risk factor documents as jsonb rows keyed by athlete id.
// Same-athlete mutations serialize on the row lock; different athletes are
// fully independent.
type Store struct {
	pool      *pgxpool.Pool
	seriesCap int
}

// NewStore creates a store with the configured per-series cap.
func NewStore(pool *pgxpool.Pool, seriesCap int) *Store {
	if seriesCap <= 0 {
		seriesCap = DefaultSeriesCap
	}
	return &Store{pool: pool, seriesCap: seriesCap}
}

// FindOrCreate returns the athlete's document, creating an empty one on
// first access. The unique key on athlete_id resolves a concurrent creation
// race to a single surviving row; the loser's insert is a no-op and both
// callers read the same document.
func (s *Store) FindOrCreate(ctx context.Context, athleteID string) (*Document, error) {
	if athleteID == "" {
		return nil, fmt.Errorf("%w: athleteId is required", ErrValidation)
	}
	if err := s.ensure(ctx, s.pool, athleteID); err != nil {
		return nil, err
	}

	var raw []byte
	if err := s.pool.QueryRow(ctx, "risk_factor_doc", athleteID).Scan(&raw); err != nil {
		return nil, fmt.Errorf("load risk factor doc: %w", err)
	}
	return decode(athleteID, raw)
}

// AppendValue appends a reading to the chosen series under the cap
// discipline. Validation happens before the row is touched.
func (s *Store) AppendValue(ctx context.Context, athleteID string, series Series, value int, date time.Time, reportType ReportType) (*Document, error) {
	entry := Entry{Value: value, Date: date.UTC(), ReportType: reportType}
	// Pre-validate against a scratch document so a bad request never opens
	// a transaction.
	if err := NewDocument(athleteID).AppendEntry(series, entry, s.seriesCap); err != nil {
		return nil, err
	}

	return s.mutate(ctx, athleteID, func(doc *Document) error {
		return doc.AppendEntry(series, entry, s.seriesCap)
	})
}

// AppendNote appends a free-text note under the same cap discipline.
func (s *Store) AppendNote(ctx context.Context, athleteID, text string, date time.Time) (*Document, error) {
	if err := NewDocument(athleteID).AppendNote(text, date, s.seriesCap); err != nil {
		return nil, err
	}

	return s.mutate(ctx, athleteID, func(doc *Document) error {
		return doc.AppendNote(text, date.UTC(), s.seriesCap)
	})
}

// mutate runs a read-modify-cap-write cycle on the athlete's row under
// FOR UPDATE so interleaved appends to the same series are never lost.
func (s *Store) mutate(ctx context.Context, athleteID string, fn func(*Document) error) (*Document, error) {
	if athleteID == "" {
		return nil, fmt.Errorf("%w: athleteId is required", ErrValidation)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.ensure(ctx, tx, athleteID); err != nil {
		return nil, err
	}

	var raw []byte
	if err := tx.QueryRow(ctx,
		"SELECT doc FROM risk_factors WHERE athlete_id = $1 FOR UPDATE",
		athleteID,
	).Scan(&raw); err != nil {
		return nil, fmt.Errorf("lock risk factor doc: %w", err)
	}

	doc, err := decode(athleteID, raw)
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}

	updated, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode risk factor doc: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE risk_factors SET doc = $2, updated_at = NOW() WHERE athlete_id = $1",
		athleteID, updated,
	); err != nil {
		return nil, fmt.Errorf("update risk factor doc: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return doc, nil
}

// ensure lazily creates the athlete's row. ON CONFLICT DO NOTHING makes
// concurrent first-access safe.
func (s *Store) ensure(ctx context.Context, q querier, athleteID string) error {
	empty, err := json.Marshal(NewDocument(athleteID))
	if err != nil {
		return fmt.Errorf("encode empty doc: %w", err)
	}
	if _, err := q.Exec(ctx, `
		INSERT INTO risk_factors (athlete_id, doc, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (athlete_id) DO NOTHING`,
		athleteID, empty,
	); err != nil {
		return fmt.Errorf("ensure risk factor doc: %w", err)
	}
	return nil
}

func decode(athleteID string, raw []byte) (*Document, error) {
	doc := NewDocument(athleteID)
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode risk factor doc: %w", err)
	}
	doc.AthleteID = athleteID
	return doc, nil
}

// querier abstracts pool vs transaction for ensure.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
