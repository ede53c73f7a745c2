// Package domain defines the core records of the mind-map graph: sessions,
// nodes, and edges. A Session is the root aggregate; it owns its nodes and
// edges for lifecycle purposes, and deleting a session removes all graph
// elements with it. Nodes are referenced (not owned) by their incident edges.
package domain

import "time"

// Default position and size applied when a client omits them on node creation.
const (
	DefaultNodeX      = 100
	DefaultNodeY      = 100
	DefaultNodeWidth  = 200
	DefaultNodeHeight = 100
)

// Session is a named collaborative workspace containing one graph.
type Session struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Node is a single mind-map element. SessionID is immutable after creation.
// Style is an open key-value map of rendering attributes the server stores
// without interpreting.
type Node struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Content   string         `json:"content"`
	X         int            `json:"x"`
	Y         int            `json:"y"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Style     map[string]any `json:"style"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
}

// Edge is a directed connection between two nodes of the same session.
// (A,B) and (B,A) are distinct edges; at most one edge may exist per ordered
// (session, source, target) triple.
type Edge struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	SourceID  string    `json:"source_id"`
	TargetID  string    `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NodeSpec carries the client-supplied fields for node creation. Nil fields
// take the server-side defaults.
type NodeSpec struct {
	Content *string        `json:"content,omitempty"`
	X       *int           `json:"x,omitempty"`
	Y       *int           `json:"y,omitempty"`
	Width   *int           `json:"width,omitempty"`
	Height  *int           `json:"height,omitempty"`
	Style   map[string]any `json:"style,omitempty"`
}

// NewNode materializes a node from a spec, filling unset fields with the
// documented defaults.
func NewNode(id, sessionID string, spec NodeSpec, now time.Time) *Node {
	node := &Node{
		ID:        id,
		SessionID: sessionID,
		X:         DefaultNodeX,
		Y:         DefaultNodeY,
		Width:     DefaultNodeWidth,
		Height:    DefaultNodeHeight,
		Style:     map[string]any{},
		CreatedAt: now,
	}
	if spec.Content != nil {
		node.Content = *spec.Content
	}
	if spec.X != nil {
		node.X = *spec.X
	}
	if spec.Y != nil {
		node.Y = *spec.Y
	}
	if spec.Width != nil {
		node.Width = *spec.Width
	}
	if spec.Height != nil {
		node.Height = *spec.Height
	}
	if spec.Style != nil {
		node.Style = spec.Style
	}
	return node
}

// NodePatch is a sparse update: only non-nil fields are applied, everything
// else is left untouched.
type NodePatch struct {
	Content *string        `json:"content,omitempty"`
	X       *int           `json:"x,omitempty"`
	Y       *int           `json:"y,omitempty"`
	Width   *int           `json:"width,omitempty"`
	Height  *int           `json:"height,omitempty"`
	Style   map[string]any `json:"style,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p NodePatch) IsEmpty() bool {
	return p.Content == nil && p.X == nil && p.Y == nil &&
		p.Width == nil && p.Height == nil && p.Style == nil
}

// Apply writes the present fields of the patch onto the node.
func (p NodePatch) Apply(node *Node, now time.Time) {
	if p.Content != nil {
		node.Content = *p.Content
	}
	if p.X != nil {
		node.X = *p.X
	}
	if p.Y != nil {
		node.Y = *p.Y
	}
	if p.Width != nil {
		node.Width = *p.Width
	}
	if p.Height != nil {
		node.Height = *p.Height
	}
	if p.Style != nil {
		node.Style = p.Style
	}
	node.UpdatedAt = &now
}

// SessionState is the full snapshot of a session's graph, used for the join
// bootstrap and for resync after reconnect.
type SessionState struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}
