package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/ledgerimport/internal/adapter/http/handler"
	"github.com/iho/ledgerimport/internal/adapter/http/middleware"
	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/usecase"
)

// RouterConfig holds dependencies for the router. Every field except the
// handlers is optional.
type RouterConfig struct {
	HealthHandler     *handler.HealthHandler
	ImportHandler     *handler.ImportHandler
	DiagnosticHandler *handler.DiagnosticHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	TokenVerifier    middleware.TokenVerifier
	HTTPMetrics      *middleware.HTTPMetrics
	MetricsHandler   http.Handler
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Wrap)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}
		if cfg.TokenVerifier != nil {
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier))
		}

		r.Route("/projects/{projectID}/imports", func(r chi.Router) {
			r.Get("/", cfg.ImportHandler.List)
			r.Get("/progress", cfg.ImportHandler.ProjectProgress)

			r.Group(func(r chi.Router) {
				if cfg.TokenVerifier != nil {
					r.Use(middleware.RequireRole(domain.RoleOperator))
				}
				if cfg.IdempotencyStore != nil {
					r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
				}
				r.Post("/", cfg.ImportHandler.Upload)
			})
		})

		r.Route("/imports/{id}", func(r chi.Router) {
			r.Get("/", cfg.ImportHandler.Get)
			r.Get("/divergences", cfg.ImportHandler.Divergences)
			r.Get("/progress", cfg.ImportHandler.BatchProgress)
		})

		r.Post("/diagnostics/offers", cfg.DiagnosticHandler.Offers)
	})

	return r
}
