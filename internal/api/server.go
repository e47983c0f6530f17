// Package api exposes the sweep service over HTTP: job submission and
// polling, synchronous backtests, strategy listings and health.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/quantsweep/quantsweep/internal/api/middleware"
	"github.com/quantsweep/quantsweep/internal/job"
	"github.com/quantsweep/quantsweep/internal/metrics"
	"github.com/quantsweep/quantsweep/internal/sim"
	"github.com/quantsweep/quantsweep/internal/strategy"
)

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string // empty disables the metrics endpoint
}

// Deps wires the server's collaborators. Metrics is optional.
type Deps struct {
	Logger   *zap.Logger
	Store    *job.Store
	Runner   *job.Runner
	Registry *strategy.Registry
	Backend  sim.Backend
	Metrics  *metrics.Registry

	InitialCapital  float64
	MaxDetailTrades int
}

// Server is the HTTP server for the sweep service.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	deps       Deps
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	s := &Server{
		logger: deps.Logger,
		deps:   deps,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux, cfg)

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes. Health and metrics stay outside
// API-key auth so probes and scrapers need no credentials.
func (s *Server) setupRoutes(mux *http.ServeMux, cfg Config) {
	mux.HandleFunc("GET /api/health", s.handleHealth)

	if cfg.MetricsPath != "" && s.deps.Metrics != nil {
		mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(
			s.deps.Metrics.Registry,
			promhttp.HandlerOpts{},
		))
	}

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/jobs", s.handleSubmitJob)
	apiMux.HandleFunc("GET /api/jobs", s.handleListJobs)
	apiMux.HandleFunc("GET /api/jobs/{id}", s.handleJobStatus)
	apiMux.HandleFunc("GET /api/jobs/{id}/results", s.handleJobResults)
	apiMux.HandleFunc("POST /api/backtest", s.handleBacktest)
	apiMux.HandleFunc("GET /api/strategies", s.handleStrategies)

	mux.Handle("/api/", middleware.APIKeyAuth(cfg.APIKey)(apiMux))
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured handler chain for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
