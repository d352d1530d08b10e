// Package server is the HTTP presentation layer over the engine: snapshot
// reads, one endpoint per mutation, and the long-lived SSE push channel.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/beadscope/beadscope/internal/engine"
	"github.com/beadscope/beadscope/internal/tracker"
)

// Server exposes the engine over HTTP.
type Server struct {
	engine *engine.Engine
	logger *slog.Logger
}

// New returns a server over the given engine.
func New(e *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: e, logger: logger}
}

// NewHTTPHandler returns an http.Handler with all routes registered.
func (s *Server) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/roots", s.handleListRoots)
	mux.HandleFunc("GET /v1/roots/{id}", s.handleGetSnapshot)
	mux.HandleFunc("POST /v1/roots/{id}/track", s.handleTrack)
	mux.HandleFunc("DELETE /v1/roots/{id}/track", s.handleUntrack)
	mux.HandleFunc("GET /v1/roots/{id}/events", s.handleEvents)
	mux.HandleFunc("POST /v1/nodes/{id}/status", s.handleSetStatus)
	mux.HandleFunc("POST /v1/nodes/{id}/children", s.handleCreateChild)
	mux.HandleFunc("POST /v1/nodes/{id}/reparent", s.handleReparent)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return mux
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeMappedError maps the engine/tracker error taxonomy onto HTTP status
// codes.
func writeMappedError(w http.ResponseWriter, err error) {
	var verr engine.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tracker.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tracker.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, tracker.ErrToolUnavailable), errors.Is(err, tracker.ErrInvalidWorkdir):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, tracker.ErrParse):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
