// Package listener provides a Postgres LISTEN/NOTIFY consumer for real-time
// high-risk alerting. It holds a dedicated pgx connection (not from the
// pool) listening on the `high_risk` channel.
//
// When a risk score lands at level High, the Postgres trigger fires
// pg_notify and this consumer receives the event, resolves the athlete's
// coaches, and dispatches alert notifications through the dispatcher —
// one delivery path whether the score was written by the API or the admin
// CLI.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/physioline/physioline/internal/coach"
	"github.com/physioline/physioline/internal/notify"
)

const (
	channel          = "high_risk"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// HighRiskEvent is the JSON payload from pg_notify('high_risk', ...).
type HighRiskEvent struct {
	AthleteID string  `json:"athlete_id"`
	ScoreID   string  `json:"score_id"`
	Level     string  `json:"level"`
	Score     float64 `json:"score"`
	Timestamp int64   `json:"ts"`
}

// Start opens a dedicated connection and listens on the high_risk channel.
// It reconnects automatically on connection loss. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, pool *pgxpool.Pool, dispatcher *notify.Dispatcher, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, pool, dispatcher, logger)
		if ctx.Err() != nil {
			logger.Info("High-risk listener stopped (context cancelled)")
			return
		}

		logger.Error("High-risk listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, pool *pgxpool.Pool, dispatcher *notify.Dispatcher, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	logger.Info("High-risk listener connected", "channel", channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var event HighRiskEvent
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			logger.Warn("Failed to parse high-risk event",
				"payload", notification.Payload, "error", err)
			continue
		}

		logger.Info("High-risk event received",
			"athlete_id", event.AthleteID,
			"score_id", event.ScoreID,
			"score", event.Score)

		// Process asynchronously to avoid blocking the listener
		go handleHighRisk(ctx, pool, dispatcher, event, logger)
	}
}

// handleHighRisk resolves the athlete's coaches and dispatches an alert
// notification to each.
func handleHighRisk(ctx context.Context, pool *pgxpool.Pool, dispatcher *notify.Dispatcher, event HighRiskEvent, logger *slog.Logger) {
	coaches, err := coach.CoachesOf(ctx, pool, event.AthleteID)
	if err != nil {
		logger.Warn("Failed to resolve coaches for high-risk alert",
			"athlete_id", event.AthleteID, "error", err)
		return
	}
	if len(coaches) == 0 {
		return
	}

	message := fmt.Sprintf("High injury risk detected (score %.2f). Review the latest report.", event.Score)
	metadata := map[string]any{
		"athleteId":   event.AthleteID,
		"riskScoreId": event.ScoreID,
	}

	sent := 0
	for _, coachID := range coaches {
		if _, err := dispatcher.Send(ctx, event.AthleteID, coachID, notify.TypeDirectMessage, message, metadata); err != nil {
			logger.Warn("High-risk alert send failed",
				"coach_id", coachID, "athlete_id", event.AthleteID, "error", err)
			continue
		}
		sent++
	}

	if sent > 0 {
		logger.Info("High-risk alerts dispatched",
			"athlete_id", event.AthleteID, "coaches", sent)
	}
}
