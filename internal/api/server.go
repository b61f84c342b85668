// Package api adapts the teacher's chi-based router into a read-only
// status/debug surface over the season cycle engine's storage (SPEC_FULL
// §A.6). No write endpoints are exposed over HTTP — advance_day stays a
// programmatic/CLI operation per spec.md's single-active-controller
// concurrency model (§5).
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/sim-dynasty/season-cycle-engine/internal/api/handler"
	"github.com/sim-dynasty/season-cycle-engine/internal/config"
	"github.com/sim-dynasty/season-cycle-engine/internal/storage"
)

// NewRouter creates and configures the Chi router with all middleware and
// routes.
func NewRouter(db *storage.DB, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5))

	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type"},
		ExposedHeaders:   []string{"X-Process-Time"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	h := handler.New(db)

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})

	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/season/{dynasty_id}", h.GetSeason)
		r.Get("/season/{dynasty_id}/events", h.GetSeasonEvents)
	})

	return r
}
