// Package events mirrors engine activity onto an event bus so tooling can
// observe refreshes without holding an SSE connection to the daemon.
package events

import (
	"context"
	"time"

	"github.com/beadscope/beadscope/internal/model"
)

// Event topic constants
const (
	TopicSnapshotUpdated = "beadscope.snapshot.updated"
	TopicSnapshotError   = "beadscope.snapshot.error"
	TopicRootTracked     = "beadscope.root.tracked"
	TopicRootUntracked   = "beadscope.root.untracked"
)

// Event types

type SnapshotUpdated struct {
	RootID    string          `json:"root_id"`
	Progress  *model.Progress `json:"progress"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type SnapshotError struct {
	RootID string `json:"root_id"`
	Error  string `json:"error"`
}

type RootTracked struct {
	RootID string `json:"root_id"`
}

type RootUntracked struct {
	RootID string `json:"root_id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
