package model

// RelationType categorizes the relationship between two nodes.
// Well-known constants are provided below, but relation types are extensible.
type RelationType string

const (
	RelBlocks         RelationType = "blocks"
	RelParentChild    RelationType = "parent-child"
	RelRelated        RelationType = "related"
	RelDiscoveredFrom RelationType = "discovered-from"
)

// IsValid reports whether the relation type is a non-empty string of at most
// 50 characters. Relation types are extensible, so any non-empty value within
// the length limit is accepted.
func (r RelationType) IsValid() bool {
	return len(r) > 0 && len(r) <= 50
}

// Relation is a directional relationship from the node that carries it to
// TargetID.
type Relation struct {
	TargetID string       `json:"target_id"`
	Type     RelationType `json:"type"`
}

// Edge is a fully-qualified dependency edge between two nodes, as rendered in
// a snapshot.
type Edge struct {
	Source string       `json:"source"`
	Target string       `json:"target"`
	Type   RelationType `json:"type"`
}
