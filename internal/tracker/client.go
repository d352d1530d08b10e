package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/beadscope/beadscope/internal/model"
)

// Client exposes typed tracker operations over a Runner.
type Client struct {
	runner *Runner
}

// NewClient wraps a runner with the typed operation surface.
func NewClient(r *Runner) *Client {
	return &Client{runner: r}
}

// wireRelation is the tracker's JSON shape for a dependency row.
type wireRelation struct {
	DependsOnID string `json:"depends_on_id"`
	Type        string `json:"type"`
}

// wireNode is the tracker's JSON shape for a single issue, shared by the show
// and tree queries. Tree rows additionally carry parent/depth placement.
type wireNode struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Status       string         `json:"status"`
	Priority     int            `json:"priority"`
	Type         string         `json:"type"`
	Assignee     string         `json:"assignee,omitempty"`
	Labels       []string       `json:"labels,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Dependencies []wireRelation `json:"dependencies,omitempty"`
	ParentID     string         `json:"parent_id,omitempty"`
	Depth        int            `json:"depth,omitempty"`
	Truncated    bool           `json:"truncated,omitempty"`
}

func (w wireNode) toGraphNode() model.GraphNode {
	n := model.GraphNode{
		ID:        w.ID,
		Title:     w.Title,
		Status:    model.Status(w.Status),
		Priority:  w.Priority,
		Type:      model.NodeType(w.Type),
		Assignee:  w.Assignee,
		Labels:    w.Labels,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
	for _, d := range w.Dependencies {
		n.Relations = append(n.Relations, &model.Relation{
			TargetID: d.DependsOnID,
			Type:     model.RelationType(d.Type),
		})
	}
	return n
}

func (w wireNode) toTreeRecord() *model.TreeRecord {
	return &model.TreeRecord{
		GraphNode: w.toGraphNode(),
		ParentID:  w.ParentID,
		Depth:     w.Depth,
		Truncated: w.Truncated,
	}
}

// TreeListRaw fetches the full subtree under rootID via the tracker's bulk
// tree query and returns the undecoded JSON payload. Callers that want to
// detect unchanged content hash these bytes before decoding.
func (c *Client) TreeListRaw(ctx context.Context, rootID string) ([]byte, error) {
	res, err := c.runner.Exec(ctx, "dep", "tree", rootID, "--json")
	if err != nil {
		return nil, err
	}
	return []byte(res.Stdout), nil
}

// DecodeTreeList decodes a bulk tree payload. The tracker answers with an
// array or, for a childless root, a single object; both forms are accepted.
func DecodeTreeList(data []byte) ([]*model.TreeRecord, error) {
	var rows []wireNode
	if err := json.Unmarshal(data, &rows); err != nil {
		var single wireNode
		if serr := json.Unmarshal(data, &single); serr != nil || single.ID == "" {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		rows = []wireNode{single}
	}
	records := make([]*model.TreeRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toTreeRecord())
	}
	return records, nil
}

// TreeList fetches and decodes the full subtree under rootID as one flat
// list. A single bulk query, never per-node fetches.
func (c *Client) TreeList(ctx context.Context, rootID string) ([]*model.TreeRecord, error) {
	data, err := c.TreeListRaw(ctx, rootID)
	if err != nil {
		return nil, err
	}
	return DecodeTreeList(data)
}

// Show fetches one node with its relation list.
func (c *Client) Show(ctx context.Context, id string) (*model.GraphNode, error) {
	row, err := ExecJSON[wireNode](ctx, c.runner, "show", id)
	if err != nil {
		return nil, err
	}
	node := row.toGraphNode()
	return &node, nil
}

// CreateRequest holds fields for creating a node.
type CreateRequest struct {
	Title    string
	Type     model.NodeType
	Priority int
	Assignee string
}

// Create creates a node and returns it as reported by the tracker.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*model.GraphNode, error) {
	args := []string{"create", req.Title, "-t", req.Type.String(), "-p", strconv.Itoa(req.Priority)}
	if req.Assignee != "" {
		args = append(args, "-a", req.Assignee)
	}
	row, err := ExecJSON[wireNode](ctx, c.runner, args...)
	if err != nil {
		return nil, err
	}
	node := row.toGraphNode()
	return &node, nil
}

// UpdateFields holds the mutable fields of a node. Zero values are left
// untouched; Priority is a pointer so 0 is settable.
type UpdateFields struct {
	Title    string
	Type     model.NodeType
	Priority *int
	Assignee string
}

// Update applies field changes to an existing node.
func (c *Client) Update(ctx context.Context, id string, fields UpdateFields) error {
	args := []string{"update", id}
	if fields.Title != "" {
		args = append(args, "--title", fields.Title)
	}
	if fields.Type != "" {
		args = append(args, "--type", fields.Type.String())
	}
	if fields.Priority != nil {
		args = append(args, "--priority", strconv.Itoa(*fields.Priority))
	}
	if fields.Assignee != "" {
		args = append(args, "--assignee", fields.Assignee)
	}
	if _, err := c.runner.Exec(ctx, args...); err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	return nil
}

// Close marks a node closed via the tracker's dedicated close operation.
func (c *Client) Close(ctx context.Context, id string) error {
	if _, err := c.runner.Exec(ctx, "close", id); err != nil {
		return fmt.Errorf("close %s: %w", id, err)
	}
	return nil
}

// SetStatus updates a node's status. Closing goes through Close; everything
// else is a plain status update.
func (c *Client) SetStatus(ctx context.Context, id string, status model.Status) error {
	if status == model.StatusClosed {
		return c.Close(ctx, id)
	}
	if _, err := c.runner.Exec(ctx, "update", id, "--status", status.String()); err != nil {
		return fmt.Errorf("set status %s on %s: %w", status, id, err)
	}
	return nil
}

// AddDependency records a typed relation from one node to another.
func (c *Client) AddDependency(ctx context.Context, fromID, toID string, typ model.RelationType) error {
	if _, err := c.runner.Exec(ctx, "dep", "add", fromID, toID, "--type", string(typ)); err != nil {
		return fmt.Errorf("add %s dependency %s -> %s: %w", typ, fromID, toID, err)
	}
	return nil
}

// RemoveDependency deletes a typed relation between two nodes.
func (c *Client) RemoveDependency(ctx context.Context, fromID, toID string, typ model.RelationType) error {
	if _, err := c.runner.Exec(ctx, "dep", "remove", fromID, toID, "--type", string(typ)); err != nil {
		return fmt.Errorf("remove %s dependency %s -> %s: %w", typ, fromID, toID, err)
	}
	return nil
}
