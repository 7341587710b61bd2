// Package server contains the HTTP API for the scheduler.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"finsweep/internal/config"
	"finsweep/internal/server/handlers"
	"finsweep/internal/server/middleware"
	"finsweep/internal/tracker"
)

// Server is the HTTP server for the scheduler API.
type Server struct {
	httpServer *http.Server
}

// New creates a new scheduler server.
func New(addr string, st handlers.Store, sw handlers.SweepRunner, tr *tracker.Tracker, cfg *config.Config, metricsHandler http.Handler, log *slog.Logger) *Server {
	h := handlers.New(st, sw, tr)

	mux := http.NewServeMux()

	// Probes and metrics
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	// Read-only status apis
	mux.HandleFunc("GET /status", h.GetStatus)
	mux.HandleFunc("GET /executions/{id}", h.GetExecution)
	mux.HandleFunc("GET /history", h.GetHistory)
	mux.HandleFunc("GET /rules/due", h.ListDueRules)
	mux.HandleFunc("GET /rules/{id}/transactions", h.ListRuleTransactions)

	// Internal endpoints
	// The manual sweep trigger is authenticated with the system secret and
	// rate limited; it should run on a separate port or strict network rules.
	authMW := middleware.RequireInternalAuth(cfg.SystemSecret)
	limitMW := middleware.RateLimit(rate.Every(10*time.Second), 2)
	mux.Handle("POST /internal/sweep", authMW(limitMW(http.HandlerFunc(h.TriggerSweep))))

	// Every request gets a correlation id before routing.
	handler := middleware.RequestID(log)(mux)

	return &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     handler,
			ReadTimeout: 10 * time.Second,
			// Sweeps run synchronously inside the trigger request.
			WriteTimeout: 5 * time.Minute,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
