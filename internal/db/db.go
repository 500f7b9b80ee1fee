// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/physioline/physioline/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers the statements the hot read paths
// use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Reports — ascending order feeds the engine's windowed computation
		"report_history": `
			SELECT id, athlete_id, report_date, training_duration,
			       fatigue_level, sleep_hours, knee_stability_l, knee_stability_r, created_at
			FROM daily_reports
			WHERE athlete_id = $1
			ORDER BY report_date ASC`,

		// Risk scores
		"risk_history": `
			SELECT id, athlete_id, score_date, level, score, violations, recommendation, created_at
			FROM risk_scores
			WHERE athlete_id = $1
			ORDER BY score_date ASC`,

		// Risk factor documents
		"risk_factor_doc": "SELECT doc FROM risk_factors WHERE athlete_id = $1",

		// Notifications
		"notification_by_id": `
			SELECT id, recipient_user_id, sender_user_id, type, status, message, metadata, created_at, responded_at
			FROM notifications WHERE id = $1`,
		"notifications_for_user": `
			SELECT id, recipient_user_id, sender_user_id, type, status, message, metadata, created_at, responded_at
			FROM notifications
			WHERE recipient_user_id = $1
			ORDER BY (status = 'pending') DESC, created_at DESC`,
		"pending_notifications": `
			SELECT id, recipient_user_id, sender_user_id, type, status, message, metadata, created_at, responded_at
			FROM notifications
			WHERE recipient_user_id = $1 AND status = 'pending'
			ORDER BY created_at ASC`,

		// Coach/athlete relationships
		"coaches_of_athlete": "SELECT coach_id FROM coach_athletes WHERE athlete_id = $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
