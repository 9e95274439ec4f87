// Package web serves the analysis dashboard API: the latest report, run
// history, and a live event stream for watch mode.
package web

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/reclaim/internal/history"
	"github.com/thebtf/reclaim/pkg/models"
)

// Server exposes analysis results over HTTP.
type Server struct {
	addr        string
	store       *history.Store
	broadcaster *Broadcaster

	mu     sync.RWMutex
	latest *models.OutlierReport
}

// NewServer builds the dashboard server. The history store may be nil; the
// run endpoints then report 404.
func NewServer(addr string, store *history.Store) *Server {
	return &Server{
		addr:        addr,
		store:       store,
		broadcaster: NewBroadcaster(),
	}
}

// SetReport replaces the latest report and notifies stream subscribers.
func (s *Server) SetReport(report *models.OutlierReport) {
	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()

	s.broadcaster.Broadcast(map[string]any{
		"type":   "report",
		"report": report,
	})
}

// Broadcaster exposes the event stream for callers that publish their own
// events, such as the filesystem watcher.
func (s *Server) Broadcaster() *Broadcaster {
	return s.broadcaster
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Get("/events", s.broadcaster.HandleSSE)
	r.Route("/api", func(r chi.Router) {
		r.Get("/report", s.handleReport)
		r.Get("/runs", s.handleRuns)
		r.Get("/runs/{runID}", s.handleRun)
	})
	return r
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("Dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.broadcaster.ClientCount(),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	report := s.latest
	s.mu.RUnlock()

	if report == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report available yet"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history disabled"})
		return
	}

	runs, err := s.store.RecentRuns(r.URL.Query().Get("root"), 20)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list runs")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
		return
	}

	// Strip the heavy report blobs from the listing.
	for i := range runs {
		runs[i].ReportJSON = ""
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history disabled"})
		return
	}

	run, err := s.store.RunByID(chi.URLParam(r, "runID"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}

	report, err := run.Report()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stored report unreadable"})
		return
	}
	run.ReportJSON = ""
	writeJSON(w, http.StatusOK, map[string]any{
		"run":    run,
		"report": report,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to encode response")
	}
}
