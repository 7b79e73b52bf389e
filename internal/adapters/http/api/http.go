// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/droidpad/internal/adapters/repository"
	"github.com/okian/droidpad/internal/domain/types"
)

const defaultMaxList = 100

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Sessions lists up to limit live sessions, oldest first.
	Sessions(ctx context.Context, limit int) ([]SessionInfo, error)

	// Session returns one live session by id.
	Session(ctx context.Context, id string) (SessionInfo, error)
}

// SessionInfo mirrors the read shape returned by session queries.
type SessionInfo = types.SessionInfo

// Server wires HTTP routes for the management API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
}

// NewServer creates a new API server with all handlers. maxList bounds
// the limit accepted by GET /sessions; values below one use the default.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxList int) *Server {
	if maxList < 1 {
		maxList = defaultMaxList
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionsHandler: NewSessionsHandler(deps, maxList),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sessions", MetricsMiddleware(s.sessionsHandler.HandleList, "sessions"))
	mux.HandleFunc("/sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleGet, "session"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
