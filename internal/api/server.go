package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/physioline/physioline/internal/api/auth"
	"github.com/physioline/physioline/internal/api/handler"
	"github.com/physioline/physioline/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(h *handler.Handler, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control", "X-User-ID"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Swagger UI — spec generated by `swag init` at build time.
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API v1 routes — all require the upstream-authenticated identity.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.RequireIdentity)

		// Reports & risk
		r.Post("/athletes/{athleteID}/reports", h.SubmitReport)
		r.Get("/athletes/{athleteID}/risk", h.GetRiskHistory)

		// Risk factors
		r.Get("/athletes/{athleteID}/risk-factors", h.GetRiskFactors)
		r.Post("/athletes/{athleteID}/risk-factors/notes", h.AppendRiskFactorNote)
		r.Post("/athletes/{athleteID}/risk-factors/{series}", h.AppendRiskFactorValue)

		// Notifications
		r.Post("/invitations", h.SendInvitation)
		r.Post("/messages", h.SendMessage)
		r.Get("/notifications", h.ListNotifications)
		r.Post("/notifications/{notificationID}/accept", h.AcceptNotification)
		r.Post("/notifications/{notificationID}/decline", h.DeclineNotification)

		// Live event stream
		r.Get("/events", h.StreamEvents)
	})

	return r
}
