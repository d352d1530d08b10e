package model

import "time"

// TreeNode is a GraphNode placed in a rooted tree. Children are ordered:
// closed nodes first, then ascending lexicographic id, so visual position is
// stable across rebuilds.
type TreeNode struct {
	GraphNode
	Depth    int         `json:"depth"`
	Relation RelationType `json:"relation,omitempty"` // edge type linking this node to its parent
	Children []*TreeNode `json:"children,omitempty"`
}

// Progress holds aggregate status counts over a set of nodes.
type Progress struct {
	Total           int `json:"total"`
	Completed       int `json:"completed"`
	InProgress      int `json:"in_progress"`
	Blocked         int `json:"blocked"`
	Open            int `json:"open"`
	PercentComplete int `json:"percent_complete"`
}

// Snapshot is the complete, atomically-replaced view of one root's dependency
// graph at a point in time. Snapshots are rebuilt from scratch every poll
// cycle and never patched in place.
type Snapshot struct {
	RootID     string       `json:"root_id"`
	Tree       *TreeNode    `json:"tree"`
	Nodes      []*GraphNode `json:"nodes"`
	Edges      []*Edge      `json:"edges"`
	Progress   *Progress    `json:"progress"`
	Blockers   []string     `json:"blockers,omitempty"`   // ids of nodes blocking non-closed targets
	Discovered []string     `json:"discovered,omitempty"` // ids of nodes that surfaced during other work
	UpdatedAt  time.Time    `json:"updated_at"`
}
