// Package hub fans snapshot and error events out to live viewer connections.
// Delivery is best-effort: a failing handle is dropped without disturbing
// delivery to the rest, and nothing propagates to the broadcasting caller.
package hub

import (
	"log/slog"
	"sync"
	"time"

	"github.com/beadscope/beadscope/internal/model"
)

// EventKind discriminates hub events.
type EventKind string

const (
	// EventSnapshot carries a full replacement snapshot.
	EventSnapshot EventKind = "snapshot"
	// EventError tells viewers updates are delayed; the last-known-good
	// snapshot stays on screen.
	EventError EventKind = "error"
)

// Event is one push to a subscriber.
type Event struct {
	Kind     EventKind       `json:"kind"`
	RootID   string          `json:"root_id"`
	Snapshot *model.Snapshot `json:"snapshot,omitempty"`
	Error    string          `json:"error,omitempty"`
	Time     time.Time       `json:"time"`
}

// Subscriber is a long-lived viewer connection handle. Send may fail; a
// failed handle is removed from the hub and closed.
type Subscriber interface {
	ID() string
	Send(ev *Event) error
	Close()
}

// Hub maintains per-root subscriber sets.
type Hub struct {
	mu     sync.Mutex
	byRoot map[string]map[string]Subscriber
	logger *slog.Logger
}

// New returns an empty hub.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		byRoot: make(map[string]map[string]Subscriber),
		logger: logger,
	}
}

// Add registers a subscriber for a root. When a snapshot already exists it is
// pushed immediately so new viewers do not wait for the next poll cycle.
func (h *Hub) Add(rootID string, sub Subscriber, current *model.Snapshot) {
	h.mu.Lock()
	subs, ok := h.byRoot[rootID]
	if !ok {
		subs = make(map[string]Subscriber)
		h.byRoot[rootID] = subs
	}
	subs[sub.ID()] = sub
	h.mu.Unlock()

	if current == nil {
		return
	}
	ev := &Event{
		Kind:     EventSnapshot,
		RootID:   rootID,
		Snapshot: current,
		Time:     time.Now().UTC(),
	}
	if err := sub.Send(ev); err != nil {
		h.logger.Warn("initial push failed, dropping subscriber",
			"root_id", rootID, "subscriber", sub.ID(), "error", err)
		h.Remove(rootID, sub.ID())
	}
}

// Remove unregisters and closes a subscriber. Unknown ids are a no-op.
func (h *Hub) Remove(rootID, subID string) {
	h.mu.Lock()
	subs := h.byRoot[rootID]
	sub, ok := subs[subID]
	if ok {
		delete(subs, subID)
		if len(subs) == 0 {
			delete(h.byRoot, rootID)
		}
	}
	h.mu.Unlock()

	if ok {
		sub.Close()
	}
}

// Broadcast pushes an event to every subscriber of a root. Iteration is over
// a stable copy of the set, so registration and removal may proceed
// concurrently. A write failure removes only that handle.
func (h *Hub) Broadcast(rootID string, ev *Event) {
	h.mu.Lock()
	subs := make([]Subscriber, 0, len(h.byRoot[rootID]))
	for _, sub := range h.byRoot[rootID] {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Send(ev); err != nil {
			h.logger.Warn("push failed, dropping subscriber",
				"root_id", rootID, "subscriber", sub.ID(), "error", err)
			h.Remove(rootID, sub.ID())
		}
	}
}

// Count returns the number of live subscribers for a root.
func (h *Hub) Count(rootID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byRoot[rootID])
}

// CloseAll terminates every subscriber, for shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	var all []Subscriber
	for _, subs := range h.byRoot {
		for _, sub := range subs {
			all = append(all, sub)
		}
	}
	h.byRoot = make(map[string]map[string]Subscriber)
	h.mu.Unlock()

	for _, sub := range all {
		sub.Close()
	}
}
