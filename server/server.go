// Package server exposes the HTTP submission surface: requirement intake,
// status polling, health, and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/reqflow/agent"
	"github.com/c360studio/reqflow/config"
	"github.com/c360studio/reqflow/metrics"
	"github.com/c360studio/reqflow/notify"
	"github.com/c360studio/reqflow/storage"
	"github.com/c360studio/reqflow/workflow"
)

// Runner executes one submission through the pipeline. Satisfied by
// *workflow.Engine.
type Runner interface {
	ExecuteRun(ctx context.Context, runID string, input *agent.RequirementInput) (*workflow.Result, error)
}

// Deps are the collaborators the server wires into its handlers.
type Deps struct {
	Store    storage.Store
	Runner   Runner
	Notifier *notify.Notifier
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	store    storage.Store
	runner   Runner
	notifier *notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger

	httpServer *http.Server
}

// New builds a Server listening per the given config.
func New(cfg config.ServerConfig, deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Runner == nil {
		return nil, fmt.Errorf("store and runner are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:    deps.Store,
		runner:   deps.Runner,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logger:   logger,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/requirements", s.handleSubmit)
	mux.HandleFunc("GET /api/requirements", s.handleList)
	mux.HandleFunc("GET /api/requirements/{id}", s.handleGet)
	mux.HandleFunc("GET /api/requirements/{id}/status", s.handleStatus)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(
			s.metrics.Registry(), promhttp.HandlerOpts{}))
	}
	return mux
}

// Start runs the HTTP server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
