package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/beadscope/beadscope/internal/hub"
	"github.com/beadscope/beadscope/internal/idgen"
)

// sseKeepaliveInterval is how often keepalive comments are sent to prevent
// connection timeouts.
const sseKeepaliveInterval = 15 * time.Second

var errSubscriberClosed = errors.New("subscriber closed")

// sseSubscriber adapts one SSE connection to the hub.Subscriber interface.
// Writes go straight to the response; a failed write is reported to the hub,
// which drops this handle without disturbing the others.
type sseSubscriber struct {
	id      string
	w       http.ResponseWriter
	flusher http.Flusher

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func newSSESubscriber(w http.ResponseWriter, flusher http.Flusher) (*sseSubscriber, error) {
	id, err := idgen.Generate()
	if err != nil {
		return nil, err
	}
	return &sseSubscriber{
		id:      id,
		w:       w,
		flusher: flusher,
		done:    make(chan struct{}),
	}, nil
}

func (s *sseSubscriber) ID() string { return s.id }

// Send writes one SSE frame. Concurrent with keepalives, so serialized under
// the mutex.
func (s *sseSubscriber) Send(ev *hub.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSubscriberClosed
	}
	if _, err := fmt.Fprintf(s.w, "event:%s\ndata:%s\n\n", ev.Kind, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// keepalive writes a comment line; failures surface like Send failures.
func (s *sseSubscriber) keepalive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSubscriberClosed
	}
	if _, err := fmt.Fprint(s.w, ":keepalive\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Close unblocks the connection handler. Idempotent; called by the hub on
// removal and at shutdown.
func (s *sseSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
}

// handleEvents handles GET /v1/roots/{id}/events (SSE push channel).
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rootID := r.PathValue("id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sub, err := newSSESubscriber(w, flusher)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "subscriber setup failed")
		return
	}

	// Set SSE headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Registration pushes the current snapshot immediately if one exists.
	s.engine.Subscribe(rootID, sub)
	defer s.engine.Unsubscribe(rootID, sub.ID())

	ctx := r.Context()
	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		case <-keepalive.C:
			if err := sub.keepalive(); err != nil {
				return
			}
		}
	}
}
