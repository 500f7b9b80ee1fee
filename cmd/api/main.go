// Command api is the Physioline risk API server.
//
// Usage:
//
//	physioline-api
//	API_PORT=8080 physioline-api

// @title Physioline Risk API
// @version 1.0.0
// @description Athlete injury-risk scoring and real-time coach notification API. Daily reports feed a windowed risk engine; high-risk scores fan out to coaches over Postgres LISTEN/NOTIFY and server-sent events.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Physioline
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/physioline/physioline/internal/api"
	"github.com/physioline/physioline/internal/api/handler"
	"github.com/physioline/physioline/internal/cache"
	"github.com/physioline/physioline/internal/coach"
	"github.com/physioline/physioline/internal/config"
	"github.com/physioline/physioline/internal/db"
	"github.com/physioline/physioline/internal/listener"
	"github.com/physioline/physioline/internal/maintenance"
	"github.com/physioline/physioline/internal/notify"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Notification core: persisted store, live-connection registry, and the
	// persist-then-push dispatcher shared by handlers and the listener.
	registry := notify.NewRegistry()
	store := notify.NewPGStore(pool.Pool)
	dispatcher := notify.NewDispatcher(store, registry, logger)
	lifecycle := notify.NewLifecycle(store, coach.NewPGLinker(pool.Pool), logger)

	// Start LISTEN/NOTIFY consumer for real-time high-risk alerts
	go listener.Start(ctx, cfg.DatabaseURL, pool.Pool, dispatcher, logger)

	// Start maintenance tickers (cleanup, catch-up sweep)
	go maintenance.Start(ctx, pool.Pool, maintenance.DefaultConfig(cfg.NotificationRetention), logger)

	// Create router
	h := handler.New(pool, appCache, cfg, registry, store, dispatcher, lifecycle, logger)
	router := api.NewRouter(h, cfg)

	// Create HTTP server. WriteTimeout is zero: /api/v1/events holds SSE
	// connections open indefinitely.
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Physioline Risk API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
