// Package graph reconstructs rooted trees from the tracker's flat bulk
// output and computes progress aggregates over them. Builders degrade
// gracefully: an unfetchable node is skipped, never fatal to the whole view.
package graph

import (
	"context"
	"slices"
	"strings"

	"github.com/beadscope/beadscope/internal/model"
)

// Fetcher is the single-node lookup used for fallbacks and relation walks.
// *tracker.Client satisfies it.
type Fetcher interface {
	Show(ctx context.Context, id string) (*model.GraphNode, error)
}

// BuildTree reconstructs a rooted tree from one flat bulk query result.
// Children are grouped by parent id and attached recursively, closed-status
// first then ascending id, so sibling order is stable across rebuilds.
//
// If the declared root is absent from the flat list (malformed or empty
// response), the root is fetched directly and a childless tree is returned
// rather than failing the whole operation. A visited-set guard makes
// traversal safe against dependency diamonds and cycles; the depth field
// reported by the source is never trusted.
func BuildTree(ctx context.Context, rootID string, records []*model.TreeRecord, fetch Fetcher) (*model.TreeNode, error) {
	var root *model.TreeRecord
	byParent := make(map[string][]*model.TreeRecord)
	for _, rec := range records {
		if rec.ID == rootID {
			root = rec
			continue
		}
		byParent[rec.ParentID] = append(byParent[rec.ParentID], rec)
	}

	if root == nil {
		node, err := fetch.Show(ctx, rootID)
		if err != nil {
			return nil, err
		}
		return &model.TreeNode{GraphNode: *node, Depth: 0}, nil
	}

	visited := map[string]bool{rootID: true}
	return attach(root.GraphNode, 0, byParent, visited), nil
}

// attach builds the subtree for one node. A node already seen on this build
// is still rendered at its additional parents, but its children are expanded
// only once.
func attach(node model.GraphNode, depth int, byParent map[string][]*model.TreeRecord, visited map[string]bool) *model.TreeNode {
	tn := &model.TreeNode{GraphNode: node, Depth: depth}

	kids := slices.Clone(byParent[node.ID])
	sortSiblings(kids)

	for _, kid := range kids {
		if visited[kid.ID] {
			tn.Children = append(tn.Children, &model.TreeNode{
				GraphNode: kid.GraphNode,
				Depth:     depth + 1,
				Relation:  model.RelParentChild,
			})
			continue
		}
		visited[kid.ID] = true
		child := attach(kid.GraphNode, depth+1, byParent, visited)
		child.Relation = model.RelParentChild
		tn.Children = append(tn.Children, child)
	}
	return tn
}

// sortSiblings orders records closed-first, then ascending lexicographic id.
func sortSiblings(records []*model.TreeRecord) {
	slices.SortFunc(records, func(a, b *model.TreeRecord) int {
		ac := a.Status == model.StatusClosed
		bc := b.Status == model.StatusClosed
		if ac != bc {
			if ac {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// BuildRelationTree builds a tree for a single node by walking its explicit
// relation list recursively, tagging each edge with its relation type.
// Relations whose target cannot be fetched are silently skipped: a partial
// result beats a total failure.
func BuildRelationTree(ctx context.Context, id string, fetch Fetcher) (*model.TreeNode, error) {
	root, err := fetch.Show(ctx, id)
	if err != nil {
		return nil, err
	}
	visited := map[string]bool{id: true}
	return walkRelations(ctx, *root, 0, fetch, visited), nil
}

func walkRelations(ctx context.Context, node model.GraphNode, depth int, fetch Fetcher, visited map[string]bool) *model.TreeNode {
	tn := &model.TreeNode{GraphNode: node, Depth: depth}

	for _, rel := range node.Relations {
		if visited[rel.TargetID] {
			continue
		}
		target, err := fetch.Show(ctx, rel.TargetID)
		if err != nil {
			continue
		}
		visited[rel.TargetID] = true
		child := walkRelations(ctx, *target, depth+1, fetch, visited)
		child.Relation = rel.Type
		tn.Children = append(tn.Children, child)
	}
	return tn
}

// Edges collects every renderable structural edge from a flat record list:
// one parent-child edge per placement plus each node's explicit relations.
func Edges(rootID string, records []*model.TreeRecord) []*model.Edge {
	var edges []*model.Edge
	for _, rec := range records {
		if rec.ID != rootID && rec.ParentID != "" {
			edges = append(edges, &model.Edge{
				Source: rec.ParentID,
				Target: rec.ID,
				Type:   model.RelParentChild,
			})
		}
		for _, rel := range rec.Relations {
			edges = append(edges, &model.Edge{
				Source: rec.ID,
				Target: rel.TargetID,
				Type:   rel.Type,
			})
		}
	}
	return edges
}
