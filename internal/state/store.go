// Package state holds the canonical per-root snapshot. Snapshots are
// immutable values swapped wholesale: readers always see a complete,
// consistent view, and the poll cycle is the only writer.
package state

import (
	"sort"
	"sync"

	"github.com/beadscope/beadscope/internal/model"
)

// Store maps root ids to their latest snapshot. The store is memory-resident
// only; it is rebuilt entirely from the tracker after a restart.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]*model.Snapshot
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{snapshots: make(map[string]*model.Snapshot)}
}

// Get returns the latest snapshot for a root, or ok=false if the root has
// never completed a poll cycle.
func (s *Store) Get(rootID string) (*model.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[rootID]
	return snap, ok
}

// Update replaces the snapshot for a root. The poll cycle is the only caller;
// mutation handlers go through the tracker and wait for the next cycle
// instead of writing here.
func (s *Store) Update(rootID string, snap *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[rootID] = snap
}

// Delete removes a root's snapshot when the root is no longer tracked.
func (s *Store) Delete(rootID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, rootID)
}

// Roots returns the ids of every root with a snapshot, sorted for stable
// iteration.
func (s *Store) Roots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roots := make([]string, 0, len(s.snapshots))
	for id := range s.snapshots {
		roots = append(roots, id)
	}
	sort.Strings(roots)
	return roots
}
