package graph

import (
	"context"
	"time"

	"github.com/beadscope/beadscope/internal/model"
)

// BuildSnapshot turns one bulk query result into a complete snapshot: rooted
// tree, deduplicated node collection, renderable edges, and aggregates.
func BuildSnapshot(ctx context.Context, rootID string, records []*model.TreeRecord, fetch Fetcher) (*model.Snapshot, error) {
	tree, err := BuildTree(ctx, rootID, records, fetch)
	if err != nil {
		return nil, err
	}

	descendants := Flatten(tree)

	nodes := make([]*model.GraphNode, 0, len(descendants)+1)
	rootNode := tree.GraphNode
	nodes = append(nodes, &rootNode)
	nodes = append(nodes, descendants...)

	return &model.Snapshot{
		RootID:     rootID,
		Tree:       tree,
		Nodes:      nodes,
		Edges:      Edges(rootID, records),
		Progress:   Classify(descendants),
		Blockers:   Blockers(ctx, descendants, fetch),
		Discovered: Discovered(descendants),
		UpdatedAt:  time.Now().UTC(),
	}, nil
}
