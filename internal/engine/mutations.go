package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/beadscope/beadscope/internal/model"
	"github.com/beadscope/beadscope/internal/tracker"
)

// ValidationError indicates a malformed mutation request.
// Transport layers map this to 400.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// PartialError marks a multi-step mutation that partially applied: the node
// was created but linking it to its parent failed. The created node remains;
// retrying the link is the caller's responsibility, not auto-rolled-back.
type PartialError struct {
	CreatedID string
	Err       error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("node %s created but not linked: %v", e.CreatedID, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// SetStatus changes a node's status in the tracker, then requests a refresh.
// The snapshot is never written here; it is replaced wholesale by the next
// poll cycle.
func (e *Engine) SetStatus(ctx context.Context, rootID, nodeID string, status model.Status) error {
	if nodeID == "" {
		return ValidationError("node id is required")
	}
	if !status.IsValid() {
		return ValidationError(fmt.Sprintf("unknown status %q", status))
	}

	if err := e.client.SetStatus(ctx, nodeID, status); err != nil {
		return err
	}
	e.Refresh(rootID)
	return nil
}

// CreateChild creates a node in the tracker and links it under parentID with
// a parent-child relation. If linking fails after creation succeeded, the
// new node exists unlinked and a *PartialError is returned alongside it.
func (e *Engine) CreateChild(ctx context.Context, rootID, parentID string, req tracker.CreateRequest) (*model.GraphNode, error) {
	if parentID == "" {
		return nil, ValidationError("parent id is required")
	}
	if req.Title == "" {
		return nil, ValidationError("title is required")
	}
	if req.Type == "" {
		req.Type = model.TypeTask
	}

	child, err := e.client.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := e.client.AddDependency(ctx, child.ID, parentID, model.RelParentChild); err != nil {
		e.Refresh(rootID)
		return child, &PartialError{CreatedID: child.ID, Err: err}
	}

	e.Refresh(rootID)
	return child, nil
}

// Reparent moves a node under a new parent. The prior parent-child edge is
// removed strictly before the new one is added, avoiding a transient
// dual-parent state. A "does not exist" answer from the tracker counts as
// successful removal, since the edge may have changed out of band; any other
// removal failure aborts before mutating further.
func (e *Engine) Reparent(ctx context.Context, rootID, nodeID, newParentID string) error {
	if nodeID == "" || newParentID == "" {
		return ValidationError("node id and new parent id are required")
	}
	if nodeID == newParentID {
		return ValidationError("cannot parent a node to itself")
	}

	if oldParent := e.currentParent(rootID, nodeID); oldParent != "" && oldParent != newParentID {
		err := e.client.RemoveDependency(ctx, nodeID, oldParent, model.RelParentChild)
		if err != nil && !errors.Is(err, tracker.ErrNotFound) {
			return fmt.Errorf("removing prior parent edge: %w", err)
		}
	}

	if err := e.client.AddDependency(ctx, nodeID, newParentID, model.RelParentChild); err != nil {
		return err
	}
	e.Refresh(rootID)
	return nil
}

// currentParent resolves a node's parent from the last snapshot's edges.
// Returns "" when no snapshot exists or the node has no recorded parent.
func (e *Engine) currentParent(rootID, nodeID string) string {
	snap, ok := e.store.Get(rootID)
	if !ok {
		return ""
	}
	for _, edge := range snap.Edges {
		if edge.Type == model.RelParentChild && edge.Target == nodeID {
			return edge.Source
		}
	}
	return ""
}
