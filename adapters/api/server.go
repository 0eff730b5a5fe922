// Package api exposes a small read-only status surface over the
// expansion state: liveness, per-category coverage counters, and an
// HTML progress report.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jandy1990/wwfm-platform-sub002/internal/taxonomy"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// StatusServer serves coverage stats while expansion runs elsewhere.
type StatusServer struct {
	progress ports.ProgressRepository
	server   *http.Server
}

func NewStatusServer(progress ports.ProgressRepository, port string) *StatusServer {
	s := &StatusServer{progress: progress}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/progress", s.handleProgress)
	r.Get("/report", s.handleReport)

	s.server = &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the context is cancelled or the listener
// fails.
func (s *StatusServer) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[StatusServer] listening on %s", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *StatusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// categoryProgress is the wire shape for one category's counters.
type categoryProgress struct {
	Category        string  `json:"category"`
	Total           int     `json:"total"`
	WithConnections int     `json:"with_connections"`
	Pending         int     `json:"pending"`
	Coverage        float64 `json:"coverage"`
}

func (s *StatusServer) handleProgress(w http.ResponseWriter, r *http.Request) {
	rows, err := s.collectProgress(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *StatusServer) handleReport(w http.ResponseWriter, r *http.Request) {
	rows, err := s.collectProgress(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(RenderProgressHTML(rows))
}

func (s *StatusServer) collectProgress(ctx context.Context) ([]categoryProgress, error) {
	var rows []categoryProgress
	for _, category := range taxonomy.Categories() {
		stats, err := s.progress.CategoryStats(ctx, category)
		if err != nil {
			return nil, err
		}
		row := categoryProgress{
			Category:        category,
			Total:           stats.Total,
			WithConnections: stats.WithConnections,
			Pending:         stats.Pending,
		}
		if stats.Total > 0 {
			row.Coverage = float64(stats.WithConnections) / float64(stats.Total)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[StatusServer] failed to encode response: %v", err)
	}
}
