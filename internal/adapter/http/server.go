// Package http exposes the service API: health and metrics endpoints, the
// historic artifact endpoints backed by the in-process cache, the recent
// 7-day window, and the administrative refresh action.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/quake-globe-data/internal/domain"
	"github.com/couchcryptid/quake-globe-data/internal/merge"
	"github.com/couchcryptid/quake-globe-data/internal/recent"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReadinessFunc adapts a function to the ReadinessChecker interface.
type ReadinessFunc func(ctx context.Context) error

func (f ReadinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// ArtifactSource serves the cached historic artifacts.
type ArtifactSource interface {
	Binary(ctx context.Context) ([]byte, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// FeedFetcher retrieves the recent-event feature set from the live feed.
type FeedFetcher interface {
	FetchRecent(ctx context.Context) ([]domain.Feature, error)
}

// RefreshRunner executes the administrative merge/re-encode action.
type RefreshRunner interface {
	Refresh(ctx context.Context) (merge.Result, error)
}

// Server exposes the service HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer wires the router. refreshPerMinute rate-limits the mutating
// refresh endpoint; the read-only endpoints are unlimited.
func NewServer(
	addr string,
	ready ReadinessChecker,
	artifacts ArtifactSource,
	feed FeedFetcher,
	refresher RefreshRunner,
	refreshPerMinute int,
	logger *slog.Logger,
) *Server {
	s := &Server{logger: logger}

	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/historic/binary", s.handleBinary(artifacts))
		r.Get("/historic/stats", s.handleStats(artifacts))
		r.Get("/recent", s.handleRecent(feed))

		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(refreshPerMinute, time.Minute))
			r.Post("/refresh", s.handleRefresh(refresher))
		})
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleBinary streams the historic point binary. A load failure is
// transient — the client may retry — so it maps to 503, not a hard failure.
func (s *Server) handleBinary(artifacts ArtifactSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buf, err := artifacts.Binary(r.Context())
		if err != nil {
			s.logger.Error("historic binary load failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		w.Write(buf) //nolint:errcheck // client disconnects are not actionable
	}
}

func (s *Server) handleStats(artifacts ArtifactSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := artifacts.Stats(r.Context())
		if err != nil {
			s.logger.Error("historic stats load failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// handleRecent fetches the live feed and derives the trailing 7-day window.
// An empty window is a valid response, not an error.
func (s *Server) handleRecent(feed FeedFetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		features, err := feed.FetchRecent(r.Context())
		if err != nil {
			s.logger.Error("recent feed fetch failed", "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, recent.BuildWindow(features))
	}
}

func (s *Server) handleRefresh(refresher RefreshRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := refresher.Refresh(r.Context())
		if err != nil {
			s.logger.Error("refresh failed", "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"added":   result.Added,
			"total":   result.Total,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
