// Package engine wires the poll loop, snapshot store, and subscriber hub
// together, one poller per tracked root, and owns the viewer-initiated
// mutation handlers.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/beadscope/beadscope/internal/events"
	"github.com/beadscope/beadscope/internal/export"
	"github.com/beadscope/beadscope/internal/graph"
	"github.com/beadscope/beadscope/internal/hub"
	"github.com/beadscope/beadscope/internal/model"
	"github.com/beadscope/beadscope/internal/poller"
	"github.com/beadscope/beadscope/internal/state"
	"github.com/beadscope/beadscope/internal/tracker"
)

// TrackerClient is the tracker operation surface the engine needs. It is
// implemented by *tracker.Client and can be faked in tests.
type TrackerClient interface {
	TreeListRaw(ctx context.Context, rootID string) ([]byte, error)
	Show(ctx context.Context, id string) (*model.GraphNode, error)
	Create(ctx context.Context, req tracker.CreateRequest) (*model.GraphNode, error)
	SetStatus(ctx context.Context, id string, status model.Status) error
	AddDependency(ctx context.Context, fromID, toID string, typ model.RelationType) error
	RemoveDependency(ctx context.Context, fromID, toID string, typ model.RelationType) error
}

// Options configures an Engine.
type Options struct {
	PollInterval  time.Duration
	DetectChanges bool
	Publisher     events.Publisher
	Exporter      *export.Exporter
	Logger        *slog.Logger
}

// Engine owns per-root pollers plus the shared store and hub.
type Engine struct {
	client    TrackerClient
	store     *state.Store
	hub       *hub.Hub
	publisher events.Publisher
	exporter  *export.Exporter
	interval  time.Duration
	detect    bool
	logger    *slog.Logger

	mu      sync.Mutex
	pollers map[string]*poller.Poller
}

// New creates an engine over the given tracker client.
func New(client TrackerClient, opts Options) *Engine {
	if opts.Publisher == nil {
		opts.Publisher = &events.NoopPublisher{}
	}
	if opts.Exporter == nil {
		opts.Exporter = export.New(nil, opts.Logger)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = poller.DefaultInterval
	}
	return &Engine{
		client:    client,
		store:     state.NewStore(),
		hub:       hub.New(opts.Logger),
		publisher: opts.Publisher,
		exporter:  opts.Exporter,
		interval:  opts.PollInterval,
		detect:    opts.DetectChanges,
		logger:    opts.Logger,
		pollers:   make(map[string]*poller.Poller),
	}
}

// Track starts a poll loop for a root. Tracking an already-tracked root is a
// no-op.
func (e *Engine) Track(rootID string) error {
	if rootID == "" {
		return ValidationError("root id is required")
	}

	e.mu.Lock()
	if _, ok := e.pollers[rootID]; ok {
		e.mu.Unlock()
		return nil
	}
	p := poller.New(poller.Config{
		Fetch: func(ctx context.Context) ([]byte, error) {
			return e.client.TreeListRaw(ctx, rootID)
		},
		Apply: func(ctx context.Context, data []byte) error {
			return e.applySnapshot(ctx, rootID, data)
		},
		OnError: func(err error) {
			e.reportCycleError(rootID, err)
		},
		Interval:      e.interval,
		DetectChanges: e.detect,
		Logger:        e.logger,
	})
	e.pollers[rootID] = p
	// Start under the lock: a concurrent Untrack must observe a started poller
	// so its Stop call actually halts the loop.
	p.Start()
	e.mu.Unlock()

	e.publish(events.TopicRootTracked, events.RootTracked{RootID: rootID})
	return nil
}

// Untrack stops the root's poll loop and discards its snapshot.
func (e *Engine) Untrack(rootID string) {
	e.mu.Lock()
	p, ok := e.pollers[rootID]
	delete(e.pollers, rootID)
	e.mu.Unlock()
	if !ok {
		return
	}

	p.Stop()
	e.store.Delete(rootID)
	e.publish(events.TopicRootUntracked, events.RootUntracked{RootID: rootID})
}

// Refresh requests an out-of-band poll cycle for a root, used by the
// mutation handlers so viewers see changes before the next scheduled poll.
func (e *Engine) Refresh(rootID string) {
	e.mu.Lock()
	p, ok := e.pollers[rootID]
	e.mu.Unlock()
	if ok {
		p.Poke()
	}
}

// Snapshot returns the latest snapshot for a root, ok=false if never polled.
func (e *Engine) Snapshot(rootID string) (*model.Snapshot, bool) {
	return e.store.Get(rootID)
}

// Roots returns every root with at least one completed poll cycle, sorted.
func (e *Engine) Roots() []string {
	return e.store.Roots()
}

// Subscribe registers a viewer connection; the current snapshot, if any, is
// pushed immediately.
func (e *Engine) Subscribe(rootID string, sub hub.Subscriber) {
	current, _ := e.store.Get(rootID)
	e.hub.Add(rootID, sub, current)
}

// Unsubscribe removes and closes a viewer connection.
func (e *Engine) Unsubscribe(rootID, subID string) {
	e.hub.Remove(rootID, subID)
}

// Close stops every poller and terminates every subscriber.
func (e *Engine) Close() {
	e.mu.Lock()
	pollers := make([]*poller.Poller, 0, len(e.pollers))
	for _, p := range e.pollers {
		pollers = append(pollers, p)
	}
	e.pollers = make(map[string]*poller.Poller)
	e.mu.Unlock()

	for _, p := range pollers {
		p.Stop()
	}
	e.hub.CloseAll()
	if err := e.publisher.Close(); err != nil {
		e.logger.Warn("closing event publisher", "error", err)
	}
}

// applySnapshot is the poll cycle's recompute-and-publish step: decode the
// bulk payload, rebuild the snapshot, swap it into the store, and fan out.
// It is the store's only write path.
func (e *Engine) applySnapshot(ctx context.Context, rootID string, data []byte) error {
	records, err := tracker.DecodeTreeList(data)
	if err != nil {
		return err
	}
	snap, err := graph.BuildSnapshot(ctx, rootID, records, e.client)
	if err != nil {
		return err
	}

	e.store.Update(rootID, snap)
	e.hub.Broadcast(rootID, &hub.Event{
		Kind:     hub.EventSnapshot,
		RootID:   rootID,
		Snapshot: snap,
		Time:     time.Now().UTC(),
	})
	e.publish(events.TopicSnapshotUpdated, events.SnapshotUpdated{
		RootID:    rootID,
		Progress:  snap.Progress,
		UpdatedAt: snap.UpdatedAt,
	})
	e.exporter.Export(ctx, snap)
	return nil
}

// reportCycleError tells connected viewers updates are delayed. The
// last-known-good snapshot stays in the store untouched.
func (e *Engine) reportCycleError(rootID string, err error) {
	e.hub.Broadcast(rootID, &hub.Event{
		Kind:   hub.EventError,
		RootID: rootID,
		Error:  err.Error(),
		Time:   time.Now().UTC(),
	})
	e.publish(events.TopicSnapshotError, events.SnapshotError{
		RootID: rootID,
		Error:  err.Error(),
	})
}

func (e *Engine) publish(topic string, event any) {
	if err := e.publisher.Publish(context.Background(), topic, event); err != nil {
		e.logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
}
