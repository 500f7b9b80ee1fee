// Command admin is the Physioline operations CLI.
//
// Usage:
//
//	physioline-admin recompute --athlete <id>
//	physioline-admin cleanup --retention-days 30
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/physioline/physioline/internal/config"
	"github.com/physioline/physioline/internal/db"
	"github.com/physioline/physioline/internal/maintenance"
	"github.com/physioline/physioline/internal/report"
	"github.com/physioline/physioline/internal/risk"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "physioline-admin",
		Short: "Physioline operations CLI",
	}

	root.AddCommand(recomputeCmd())
	root.AddCommand(cleanupCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// recompute command
// --------------------------------------------------------------------------

func recomputeCmd() *cobra.Command {
	var athleteID string
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute the latest risk score from an athlete's report history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if athleteID == "" {
				return fmt.Errorf("--athlete is required")
			}
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				reports, err := report.History(ctx, pool.Pool, athleteID)
				if err != nil {
					return fmt.Errorf("load report history: %w", err)
				}

				start := time.Now()
				score, err := risk.Compute(reports)
				if err != nil {
					return fmt.Errorf("compute risk: %w", err)
				}
				if err := risk.Insert(ctx, pool.Pool, score); err != nil {
					return fmt.Errorf("store risk score: %w", err)
				}

				logger.Info("Risk score recomputed",
					"athlete_id", athleteID,
					"level", score.Level,
					"score", score.Score,
					"violations", score.Violations,
					"duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&athleteID, "athlete", "", "Athlete user ID")
	return cmd
}

// --------------------------------------------------------------------------
// cleanup command
// --------------------------------------------------------------------------

func cleanupCmd() *cobra.Command {
	var retentionDays int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge responded notifications past the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				retention := cfg.NotificationRetention
				if retentionDays > 0 {
					retention = time.Duration(retentionDays) * 24 * time.Hour
				}
				maintenance.Cleanup(ctx, pool.Pool, retention, logger)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&retentionDays, "retention-days", 0, "Override NOTIFICATION_RETENTION_DAYS")
	return cmd
}

// --------------------------------------------------------------------------
// bootstrap
// --------------------------------------------------------------------------

func run(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
