package graph

import (
	"context"
	"math"

	"github.com/beadscope/beadscope/internal/model"
)

// Flatten returns every descendant of the tree root in pre-order, excluding
// the root itself. A node reachable through more than one structural path is
// reported once.
func Flatten(tree *model.TreeNode) []*model.GraphNode {
	var nodes []*model.GraphNode
	seen := map[string]bool{tree.ID: true}

	var walk func(n *model.TreeNode)
	walk = func(n *model.TreeNode) {
		for _, child := range n.Children {
			if !seen[child.ID] {
				seen[child.ID] = true
				node := child.GraphNode
				nodes = append(nodes, &node)
			}
			walk(child)
		}
	}
	walk(tree)
	return nodes
}

// Classify computes aggregate status counts. PercentComplete is 0 when the
// node set is empty.
func Classify(nodes []*model.GraphNode) *model.Progress {
	p := &model.Progress{Total: len(nodes)}
	for _, n := range nodes {
		switch n.Status {
		case model.StatusClosed:
			p.Completed++
		case model.StatusInProgress:
			p.InProgress++
		case model.StatusBlocked:
			p.Blocked++
		}
	}
	p.Open = p.Total - p.Completed - p.InProgress - p.Blocked
	if p.Total > 0 {
		p.PercentComplete = int(math.Round(100 * float64(p.Completed) / float64(p.Total)))
	}
	return p
}

// Blockers returns ids of nodes holding an outgoing blocks relation to a
// target whose status is not closed. Target status is resolved from the
// already-fetched node index; only targets outside the subtree cost a
// gateway lookup, and a failed lookup skips that node rather than aborting
// the aggregation.
func Blockers(ctx context.Context, nodes []*model.GraphNode, fetch Fetcher) []string {
	index := make(map[string]*model.GraphNode, len(nodes))
	for _, n := range nodes {
		index[n.ID] = n
	}

	var blockers []string
	for _, n := range nodes {
		for _, rel := range n.Relations {
			if rel.Type != model.RelBlocks {
				continue
			}
			target, ok := index[rel.TargetID]
			if !ok {
				fetched, err := fetch.Show(ctx, rel.TargetID)
				if err != nil {
					continue
				}
				target = fetched
			}
			if target.Status != model.StatusClosed {
				blockers = append(blockers, n.ID)
				break
			}
		}
	}
	return blockers
}

// Discovered returns ids of nodes carrying any discovered-from relation,
// surfacing scope growth during other work.
func Discovered(nodes []*model.GraphNode) []string {
	var ids []string
	for _, n := range nodes {
		for _, rel := range n.Relations {
			if rel.Type == model.RelDiscoveredFrom {
				ids = append(ids, n.ID)
				break
			}
		}
	}
	return ids
}
