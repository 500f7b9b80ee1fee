// Package handler provides HTTP handlers for all API endpoints. Handlers
// stay thin: validation and scoring live in the domain packages, storage
// goes through pgxpool prepared statements.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/physioline/physioline/internal/api/respond"
	"github.com/physioline/physioline/internal/cache"
	"github.com/physioline/physioline/internal/config"
	"github.com/physioline/physioline/internal/db"
	"github.com/physioline/physioline/internal/notify"
	"github.com/physioline/physioline/internal/riskfactor"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool          *db.Pool
	cache         *cache.Cache
	cfg           *config.Config
	factors       *riskfactor.Store
	notifications notify.Store
	dispatcher    *notify.Dispatcher
	lifecycle     *notify.Lifecycle
	registry      *notify.Registry
	logger        *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(
	pool *db.Pool,
	appCache *cache.Cache,
	cfg *config.Config,
	registry *notify.Registry,
	notifications notify.Store,
	dispatcher *notify.Dispatcher,
	lifecycle *notify.Lifecycle,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		pool:          pool,
		cache:         appCache,
		cfg:           cfg,
		factors:       riskfactor.NewStore(pool.Pool, cfg.RiskFactorSeriesCap),
		notifications: notifications,
		dispatcher:    dispatcher,
		lifecycle:     lifecycle,
		registry:      registry,
		logger:        logger,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Physioline Risk API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"live_connections": h.registry.Size(),
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
