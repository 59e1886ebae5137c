// Package server exposes the admin HTTP surface: Prometheus scrape
// endpoint, JSON registry snapshot, health, and snapshot history.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/metricsd/internal/history"
	"git.home.luguber.info/inful/metricsd/internal/logfields"
	"git.home.luguber.info/inful/metricsd/internal/metrics"
)

// Server is the admin HTTP server. gatherer and store are optional: without
// a gatherer /metrics responds 404 (disabled facade), without a store the
// history endpoint responds 404.
type Server struct {
	listen     string
	provider   metrics.Provider
	gatherer   prom.Gatherer
	store      *history.Store
	httpServer *http.Server
	startTime  time.Time
}

// New constructs the admin server.
func New(listen string, provider metrics.Provider, gatherer prom.Gatherer, store *history.Store) *Server {
	s := &Server{
		listen:    listen,
		provider:  provider,
		gatherer:  gatherer,
		store:     store,
		startTime: time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the route mux. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	}
	mux.HandleFunc("GET /metrics.json", s.handleMetricsJSON)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/snapshots/latest", s.handleLatestSnapshot)

	return mux
}

// Start begins listening. It returns once the listener goroutine is
// launched; listen errors other than graceful shutdown are logged.
func (s *Server) Start(ctx context.Context) error {
	slog.Info("Starting admin server", logfields.Listen(s.listen))
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Admin server failed", logfields.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	slog.Info("Stopping admin server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleMetricsJSON(w http.ResponseWriter, r *http.Request) {
	body, err := s.provider.ToJSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "snapshot history is not configured", http.StatusNotFound)
		return
	}

	snap, err := s.store.Latest(r.Context())
	if errors.Is(err, history.ErrNoSnapshots) {
		http.Error(w, "no snapshots recorded yet", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":         snap.ID,
		"registry":   snap.Registry,
		"created_at": snap.CreatedAt.UTC().Format(time.RFC3339Nano),
		"snapshot":   json.RawMessage(snap.Body),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", logfields.Error(err))
	}
}
