// Package poller drives the fetch -> recompute -> publish loop for one
// tracked root. Each cycle is scheduled strictly after the previous cycle and
// its callbacks finish, so at most one cycle is ever in flight per root; that
// discipline is what keeps the snapshot store single-writer.
package poller

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the fixed delay between cycle completions.
const DefaultInterval = 15 * time.Second

// Config wires a poller to its root's fetch and apply steps.
type Config struct {
	// Fetch obtains the raw bulk payload from the tracker.
	Fetch func(ctx context.Context) ([]byte, error)

	// Apply recomputes the snapshot from the payload and publishes it.
	Apply func(ctx context.Context, data []byte) error

	// OnError is invoked for a failed cycle. The loop always continues; the
	// next cycle is scheduled at the same fixed interval.
	OnError func(err error)

	// Interval between cycle completions. Defaults to DefaultInterval.
	Interval time.Duration

	// DetectChanges skips Apply when the fetched payload hashes identically
	// to the previous cycle's. The first successful fetch always applies.
	DetectChanges bool

	Logger *slog.Logger
}

// Poller runs the poll loop for a single root.
type Poller struct {
	cfg Config

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	wake    chan struct{}
	wg      sync.WaitGroup

	// Hash state is touched only from the loop goroutine.
	lastHash [sha256.Size]byte
	hasHash  bool
}

// New creates a poller. Call Start to begin polling.
func New(cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.OnError == nil {
		cfg.OnError = func(error) {}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Poller{
		cfg:  cfg,
		wake: make(chan struct{}, 1),
	}
}

// Start runs the first cycle immediately and then loops. Calling Start on a
// running poller is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.started = true

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx)
	}()
}

// Stop cancels the next scheduled cycle and waits for an in-flight cycle to
// finish. A finished cycle never reschedules after Stop.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}

// Poke requests an out-of-band cycle, used after a mutation so viewers see
// the change before the next scheduled poll. Coalesces if a request is
// already pending.
func (p *Poller) Poke() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Poller) run(ctx context.Context) {
	for {
		// The cycle itself runs on a background context so stopping the loop
		// lets in-flight work finish; the gateway's per-call timeout bounds it.
		p.cycle(context.WithoutCancel(ctx))

		timer := time.NewTimer(p.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		case <-p.wake:
			timer.Stop()
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	data, err := p.cfg.Fetch(ctx)
	if err != nil {
		p.cfg.Logger.Warn("poll fetch failed", "error", err)
		p.cfg.OnError(err)
		return
	}

	var hash [sha256.Size]byte
	if p.cfg.DetectChanges {
		hash = sha256.Sum256(data)
		if p.hasHash && hash == p.lastHash {
			return
		}
	}

	if err := p.cfg.Apply(ctx, data); err != nil {
		p.cfg.Logger.Warn("poll apply failed", "error", err)
		p.cfg.OnError(err)
		return
	}

	// The hash is committed only once Apply succeeds, so a failed recompute is
	// retried on the next cycle even when the payload has not changed.
	if p.cfg.DetectChanges {
		p.lastHash = hash
		p.hasHash = true
	}
}
