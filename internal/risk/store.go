package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Insert persists a computed score, assigning its id. One logical record
// exists per (athlete, date); recomputation for the same date upserts.
// A trigger on High rows raises pg_notify('high_risk', ...) consumed by
// the listener.
func Insert(ctx context.Context, pool *pgxpool.Pool, s *Score) error {
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now().UTC()
	_, err := pool.Exec(ctx, `
		INSERT INTO risk_scores (id, athlete_id, score_date, level, score, violations, recommendation, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (athlete_id, score_date) DO UPDATE
		SET level = EXCLUDED.level,
		    score = EXCLUDED.score,
		    violations = EXCLUDED.violations,
		    recommendation = EXCLUDED.recommendation`,
		s.ID, s.AthleteID, s.Date, s.Level, s.Score, s.Violations, s.Recommendation, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert risk score: %w", err)
	}
	return nil
}

// History returns an athlete's scores ordered by date ascending.
func History(ctx context.Context, pool *pgxpool.Pool, athleteID string) ([]Score, error) {
	rows, err := pool.Query(ctx, "risk_history", athleteID)
	if err != nil {
		return nil, fmt.Errorf("risk history: %w", err)
	}
	defer rows.Close()

	var scores []Score
	for rows.Next() {
		var s Score
		if err := rows.Scan(&s.ID, &s.AthleteID, &s.Date, &s.Level, &s.Score, &s.Violations, &s.Recommendation, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan risk score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}
