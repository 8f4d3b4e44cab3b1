package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"skywatch/internal/aggregator"
	"skywatch/internal/realtime"
	"skywatch/internal/store"
)

type Server struct {
	manager *aggregator.Manager
	repo    *store.Repo
	hub     *realtime.Hub
}

// NewServer builds the API surface. repo may be nil when persistence is not
// configured; hub may be nil when the websocket feed is disabled.
func NewServer(manager *aggregator.Manager, repo *store.Repo, hub *realtime.Hub) *Server {
	return &Server{manager: manager, repo: repo, hub: hub}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/astronomy/forecast", s.handleForecast)
	r.Get("/astronomy/status", s.handleStatus)
	r.Get("/astronomy/history", s.handleHistory)
	if s.hub != nil {
		r.Get("/astronomy/ws", s.hub.ServeHTTP)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"

	forecast, err := s.manager.Refresh(r.Context(), force)
	if err != nil {
		// A previous snapshot, even a stale one, beats an error page.
		if prev, ok := s.manager.Current(); ok {
			writeJSON(w, http.StatusOK, prev)
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to build forecast"})
		return
	}

	writeJSON(w, http.StatusOK, forecast)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Status())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "forecast history is not enabled"})
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.repo.ListRecent(r.Context(), r.URL.Query().Get("location"), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load forecast history"})
		return
	}

	writeJSON(w, http.StatusOK, records)
}
