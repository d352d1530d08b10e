// Package export mirrors the latest snapshot for each root to external
// destinations after every update. Exports are best-effort: the engine's
// snapshot store stays memory-resident and is rebuilt from the tracker on
// start regardless of what any destination holds.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/beadscope/beadscope/internal/model"
)

// Destination is the interface for an export target (S3, local file, etc.).
type Destination interface {
	// Write sends the JSON-encoded snapshot for rootID to the destination.
	Write(ctx context.Context, rootID string, data []byte) error
}

// Exporter fans one snapshot out to every destination, logging failures
// instead of raising them.
type Exporter struct {
	destinations []Destination
	logger       *slog.Logger
}

// New creates an exporter over the given destinations. With no destinations
// Export is a no-op.
func New(destinations []Destination, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{destinations: destinations, logger: logger}
}

// Export writes the snapshot to every destination.
func (e *Exporter) Export(ctx context.Context, snap *model.Snapshot) {
	if len(e.destinations) == 0 {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		e.logger.Error("snapshot export marshal failed", "root_id", snap.RootID, "err", err)
		return
	}
	for i, dest := range e.destinations {
		if err := dest.Write(ctx, snap.RootID, data); err != nil {
			e.logger.Error("snapshot export write failed",
				"root_id", snap.RootID, "destination", fmt.Sprintf("%d", i), "err", err)
		}
	}
}
