package report

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Insert persists a validated report.
func Insert(ctx context.Context, pool *pgxpool.Pool, r *DailyReport) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO daily_reports (
			id, athlete_id, report_date, training_duration,
			fatigue_level, sleep_hours, knee_stability_l, knee_stability_r, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		r.ID, r.AthleteID, r.Date, r.TrainingDuration,
		r.FatigueLevel, r.SleepHours, r.KneeStabilityL, r.KneeStabilityR, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// History returns an athlete's reports ordered by date ascending — the
// ordering the risk engine's windowed computation relies on.
func History(ctx context.Context, pool *pgxpool.Pool, athleteID string) ([]DailyReport, error) {
	rows, err := pool.Query(ctx, "report_history", athleteID)
	if err != nil {
		return nil, fmt.Errorf("report history: %w", err)
	}
	defer rows.Close()

	var reports []DailyReport
	for rows.Next() {
		var r DailyReport
		if err := rows.Scan(
			&r.ID, &r.AthleteID, &r.Date, &r.TrainingDuration,
			&r.FatigueLevel, &r.SleepHours, &r.KneeStabilityL, &r.KneeStabilityR, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
