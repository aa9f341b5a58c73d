package server

import (
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/crosspost/crosspost/internal/server/handlers"
)

func (s *Server) registerRoutes() {
	previewHandler := &handlers.PreviewHandler{
		Fetcher: s.opts.Fetcher,
		Visits:  s.opts.Visits,
		Logger:  s.logger(),
	}
	composeHandler := &handlers.ComposeHandler{Registry: s.opts.Registry}

	s.router.Route("/api", func(r chi.Router) {
		r.Method("GET", "/link-preview", previewHandler)
		r.Get("/platforms", composeHandler.Platforms)
		r.Post("/compose", composeHandler.Compose)
	})

	if s.opts.EnableHealth {
		health := s.opts.Health
		s.router.Get("/health", health.HealthHandler)
		s.router.Get("/health/live", health.LivenessHandler)
		s.router.Get("/health/ready", health.ReadinessHandler)
		s.router.Get("/health/startup", health.StartupHandler)
	}

	s.router.Get("/version", handlers.VersionHandler(s.opts.Build))

	if s.opts.EnableMetrics {
		s.router.Get("/metrics", MetricsHandler)
	}

	if s.opts.EnablePprof {
		s.router.Mount("/debug", middleware.Profiler())
		s.info("pprof routes enabled", zap.String("path", "/debug/pprof"))
	}

	s.registerAdminEndpoint()
}

// registerAdminEndpoint exposes gofulmen's signal handler (reload, shutdown)
// behind a bearer token. Without a token the route is not mounted.
func (s *Server) registerAdminEndpoint() {
	if s.opts.AdminToken == "" {
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.opts.AdminToken,
		RateLimit: 10,
		RateBurst: 5,
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	s.info("Admin signal endpoint enabled",
		zap.String("path", "/admin/signal"),
		zap.String("rate_limit", "10/min, burst 5"))
}
