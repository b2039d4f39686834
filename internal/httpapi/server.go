// Package httpapi provides an ambient HTTP status surface for a
// mediapull run: liveness, rate-limit/worker-pool metrics, and session
// lookups for operator tooling. Adapted from an earlier HTTP server,
// dropping the huma-based OpenAPI layer it built for its proxy API —
// three plain status endpoints don't carry their own documentation
// surface the way a multi-resource proxy API does.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jmylchreest/mediapull/internal/httpapi/middleware"
	"github.com/jmylchreest/mediapull/internal/ratelimit"
	"github.com/jmylchreest/mediapull/internal/statestore"
	"github.com/jmylchreest/mediapull/internal/workerpool"
)

// Config holds HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Dependencies are the live components the status surface reports on.
type Dependencies struct {
	RateLimiter *ratelimit.Coordinator
	Pools       *workerpool.Manager
	Sessions    *statestore.Store
}

// Server is the status/metrics HTTP server for a mediapull run.
type Server struct {
	config     Config
	router     *chi.Mux
	httpServer *http.Server
	logger     *slog.Logger
	startTime  time.Time
}

// NewServer builds a chi-routed Server exposing /healthz, /metrics, and
// /sessions/{id}, with the same middleware stack (request ID, logging,
// recovery, CORS) wired in the same order as the earlier status server.
func NewServer(config Config, deps Dependencies, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.NewLoggingMiddleware(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	s := &Server{
		config:    config,
		router:    router,
		logger:    logger,
		startTime: time.Now(),
	}

	h := &handlers{deps: deps, startTime: s.startTime}
	router.Get("/healthz", h.healthz)
	router.Get("/metrics", h.metrics)
	router.Get("/sessions/{id}", h.session)

	return s
}

// Router returns the chi router, for registering additional routes.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start starts the HTTP server. Blocks until the server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.logger.Info("starting status server", slog.String("address", addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("starting status server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down status server: %w", err)
	}
	s.logger.Info("status server stopped")
	return nil
}

// ListenAndServe starts the server in a goroutine and blocks until ctx is
// canceled or the server exits, then shuts it down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start()
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}
