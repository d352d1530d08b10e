package model

import "time"

// Status represents the current state of a tracked node.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusClosed     Status = "closed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusBlocked, StatusClosed:
		return true
	}
	return false
}

// NodeType categorizes a node in the tracker.
// Well-known constants are provided below, but node types are extensible;
// custom types are valid.
type NodeType string

const (
	TypeEpic    NodeType = "epic"
	TypeTask    NodeType = "task"
	TypeFeature NodeType = "feature"
	TypeChore   NodeType = "chore"
	TypeBug     NodeType = "bug"
)

// String returns the string representation of the node type.
func (t NodeType) String() string {
	return string(t)
}

// IsValid reports whether the node type is a non-empty string.
// Node types are extensible, so any non-empty value is accepted.
func (t NodeType) IsValid() bool {
	return t != ""
}

// GraphNode is a single work item as reported by the tracker.
type GraphNode struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Status    Status      `json:"status"`
	Priority  int         `json:"priority"`
	Type      NodeType    `json:"type"`
	Assignee  string      `json:"assignee,omitempty"`
	Labels    []string    `json:"labels,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Relations []*Relation `json:"relations,omitempty"`
}

// TreeRecord is one row of the tracker's bulk tree query: a GraphNode plus
// the structural fields that place it in the tree. The Depth reported by the
// tracker is advisory only; tree construction never trusts it.
type TreeRecord struct {
	GraphNode
	ParentID  string `json:"parent_id,omitempty"`
	Depth     int    `json:"depth,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}
