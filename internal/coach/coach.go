// Package coach stores the coach/athlete relationships established when a
// coach invitation is accepted.
package coach

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGLinker writes accepted-invite relationships. It satisfies notify.Linker.
type PGLinker struct {
	pool *pgxpool.Pool
}

// NewPGLinker wraps a pool.
func NewPGLinker(pool *pgxpool.Pool) *PGLinker {
	return &PGLinker{pool: pool}
}

// Link records the relationship. Re-accepting a duplicate invite resolves to
// the existing row.
func (l *PGLinker) Link(ctx context.Context, coachID, athleteID string) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO coach_athletes (coach_id, athlete_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (coach_id, athlete_id) DO NOTHING`,
		coachID, athleteID,
	)
	if err != nil {
		return fmt.Errorf("link coach %s to athlete %s: %w", coachID, athleteID, err)
	}
	return nil
}

// CoachesOf returns the user ids coaching an athlete — the audience for
// high-risk alerts.
func CoachesOf(ctx context.Context, pool *pgxpool.Pool, athleteID string) ([]string, error) {
	rows, err := pool.Query(ctx, "coaches_of_athlete", athleteID)
	if err != nil {
		return nil, fmt.Errorf("coaches of athlete: %w", err)
	}
	defer rows.Close()

	var coaches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan coach id: %w", err)
		}
		coaches = append(coaches, id)
	}
	return coaches, rows.Err()
}
