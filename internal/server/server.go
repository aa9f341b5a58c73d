// Package server assembles the chi router for the crosspost HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/crosspost/crosspost/internal/core/platform"
	"github.com/crosspost/crosspost/internal/core/preview"
	"github.com/crosspost/crosspost/internal/core/visit"
	apperrors "github.com/crosspost/crosspost/internal/errors"
	"github.com/crosspost/crosspost/internal/observability"
	"github.com/crosspost/crosspost/internal/server/handlers"
	servermw "github.com/crosspost/crosspost/internal/server/middleware"
)

// Options configures New. Zero timeouts fall back to the server defaults.
type Options struct {
	Host          string
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	Registry      *platform.Registry
	Fetcher       *preview.Fetcher
	Visits        *visit.Dispatcher
	Health        *handlers.HealthManager
	Build         handlers.BuildInfo
	AdminToken    string
	EnableHealth  bool
	EnableMetrics bool
	EnablePprof   bool
	Logger        *logging.Logger
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	opts   Options
}

// New creates a new HTTP server instance
func New(opts Options) *Server {
	if opts.Registry == nil {
		opts.Registry = platform.Default()
	}
	if opts.Fetcher == nil {
		opts.Fetcher = &preview.Fetcher{}
	}
	if opts.Health == nil {
		opts.Health = handlers.NewHealthManager(opts.Build.Version)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.ErrorHandler)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{router: r, opts: opts}

	handlers.SetHTTPErrorResponder(HandleError)
	s.registerRoutes()
	return s
}

// Start listens on the configured address and blocks until shutdown.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.opts.Host, fmt.Sprintf("%d", s.opts.Port))
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       durationOr(s.opts.ReadTimeout, 30*time.Second),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      durationOr(s.opts.WriteTimeout, 30*time.Second),
		IdleTimeout:       durationOr(s.opts.IdleTimeout, 120*time.Second),
	}

	s.info("Starting HTTP server", zap.String("addr", addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then waits for in-flight visit
// deliveries until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.info("Shutting down HTTP server")
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	if waitErr := s.opts.Visits.Wait(ctx); waitErr != nil && err == nil {
		err = waitErr
	}
	return err
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the server port for testing
func (s *Server) Port() int {
	return s.opts.Port
}

func (s *Server) logger() *logging.Logger {
	if s.opts.Logger != nil {
		return s.opts.Logger
	}
	return observability.ServerLogger
}

func (s *Server) info(msg string, fields ...zap.Field) {
	if logger := s.logger(); logger != nil {
		logger.Info(msg, fields...)
	}
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}

// HandleError renders err as a JSON error envelope.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}
