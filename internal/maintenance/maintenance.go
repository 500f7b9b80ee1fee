// Package maintenance runs periodic background tasks as Go tickers. All
// scheduled work is driven from Go since the API is already a persistent,
// long-running service (required for LISTEN/NOTIFY).
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CleanupInterval time.Duration // Purge old responded notifications
	CatchUpInterval time.Duration // Sweep for missed high-risk NOTIFY events
	Retention       time.Duration // How long responded notifications are kept
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig(retention time.Duration) Config {
	return Config{
		CleanupInterval: 30 * time.Minute,
		CatchUpInterval: 15 * time.Minute,
		Retention:       retention,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, pool *pgxpool.Pool, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"cleanup", cfg.CleanupInterval,
		"catchup", cfg.CatchUpInterval)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	// Cleanup: drop responded notifications past the retention window
	if cfg.CleanupInterval > 0 {
		t := time.NewTicker(cfg.CleanupInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { Cleanup(ctx, pool, cfg.Retention, logger) })
	}

	// Catch-up: sweep for high-risk scores missed during listener downtime
	if cfg.CatchUpInterval > 0 {
		t := time.NewTicker(cfg.CatchUpInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { catchUpSweep(ctx, pool, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// Cleanup removes accepted/declined notifications older than the retention
// window. Pending notifications are never purged — an unanswered invite
// stays answerable. Exported for the admin CLI.
func Cleanup(ctx context.Context, pool *pgxpool.Pool, retention time.Duration, logger *slog.Logger) {
	tag, err := pool.Exec(ctx, `
		DELETE FROM notifications
		WHERE status IN ('accepted', 'declined')
		  AND responded_at < NOW() - $1::interval`,
		retention.String())
	if err != nil {
		logger.Warn("Cleanup: failed to purge responded notifications", "error", err)
	} else if tag.RowsAffected() > 0 {
		logger.Info("Cleanup: purged responded notifications", "count", tag.RowsAffected())
	}
}

// catchUpSweep creates coach alerts for recent High risk scores that have
// no corresponding notification — e.g. scores written while the listener
// was down and its NOTIFY lost.
func catchUpSweep(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) {
	tag, err := pool.Exec(ctx, `
		INSERT INTO notifications (id, recipient_user_id, sender_user_id, type, status, message, metadata, created_at)
		SELECT
			gen_random_uuid(),
			ca.coach_id,
			rs.athlete_id,
			'DirectMessage',
			'pending',
			'High injury risk detected (score ' || round(rs.score::numeric, 2) || '). Review the latest report.',
			jsonb_build_object('athleteId', rs.athlete_id, 'riskScoreId', rs.id),
			NOW()
		FROM risk_scores rs
		JOIN coach_athletes ca ON ca.athlete_id = rs.athlete_id
		WHERE rs.level = 'High'
		  AND rs.created_at > NOW() - INTERVAL '1 hour'
		  AND NOT EXISTS (
			SELECT 1 FROM notifications n
			WHERE n.recipient_user_id = ca.coach_id
			  AND n.metadata->>'riskScoreId' = rs.id
		  )`)
	if err != nil {
		logger.Warn("Catch-up sweep: failed", "error", err)
	} else if tag.RowsAffected() > 0 {
		logger.Info("Catch-up sweep: created missed alerts", "count", tag.RowsAffected())
	}
}
