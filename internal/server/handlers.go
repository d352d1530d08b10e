package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/beadscope/beadscope/internal/engine"
	"github.com/beadscope/beadscope/internal/model"
	"github.com/beadscope/beadscope/internal/tracker"
)

// handleListRoots handles GET /v1/roots: roots with at least one snapshot.
func (s *Server) handleListRoots(w http.ResponseWriter, _ *http.Request) {
	roots := s.engine.Roots()
	if roots == nil {
		roots = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"roots": roots})
}

// handleGetSnapshot handles GET /v1/roots/{id}.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	rootID := r.PathValue("id")
	snap, ok := s.engine.Snapshot(rootID)
	if !ok {
		writeError(w, http.StatusNotFound, "root not polled")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleTrack handles POST /v1/roots/{id}/track.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	rootID := r.PathValue("id")
	if err := s.engine.Track(rootID); err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"root_id": rootID, "status": "tracking"})
}

// handleUntrack handles DELETE /v1/roots/{id}/track.
func (s *Server) handleUntrack(w http.ResponseWriter, r *http.Request) {
	s.engine.Untrack(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// handleSetStatus handles POST /v1/nodes/{id}/status.
func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")

	var req struct {
		RootID string `json:"root_id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.engine.SetStatus(r.Context(), req.RootID, nodeID, model.Status(req.Status)); err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"node_id": nodeID, "status": req.Status})
}

// handleCreateChild handles POST /v1/nodes/{id}/children. The {id} is the
// parent node.
func (s *Server) handleCreateChild(w http.ResponseWriter, r *http.Request) {
	parentID := r.PathValue("id")

	var req struct {
		RootID   string `json:"root_id"`
		Title    string `json:"title"`
		Type     string `json:"type,omitempty"`
		Priority int    `json:"priority,omitempty"`
		Assignee string `json:"assignee,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	child, err := s.engine.CreateChild(r.Context(), req.RootID, parentID, tracker.CreateRequest{
		Title:    req.Title,
		Type:     model.NodeType(req.Type),
		Priority: req.Priority,
		Assignee: req.Assignee,
	})

	var perr *engine.PartialError
	if errors.As(err, &perr) {
		// The node exists but is unlinked; surface both facts instead of
		// failing the create outright.
		writeJSON(w, http.StatusCreated, map[string]any{
			"node":    child,
			"partial": perr.Error(),
		})
		return
	}
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"node": child})
}

// handleReparent handles POST /v1/nodes/{id}/reparent.
func (s *Server) handleReparent(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")

	var req struct {
		RootID      string `json:"root_id"`
		NewParentID string `json:"new_parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.engine.Reparent(r.Context(), req.RootID, nodeID, req.NewParentID); err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"node_id":   nodeID,
		"parent_id": req.NewParentID,
	})
}
