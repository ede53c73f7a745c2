package websocket

import (
	"encoding/json"
	"fmt"

	"mindmap-backend/internal/domain"
)

// Client -> server event names.
const (
	EventJoinSession  = "join_session"
	EventLeaveSession = "leave_session"
	EventNodeCreate   = "node_create"
	EventNodeUpdate   = "node_update"
	EventNodeDelete   = "node_delete"
	EventEdgeCreate   = "edge_create"
	EventEdgeDelete   = "edge_delete"
	EventCursorMove   = "cursor_move"
)

// Server -> client event names.
const (
	EventInitialState = "initial_state"
	EventUserJoined   = "user_joined"
	EventNodeCreated  = "node_created"
	EventNodeUpdated  = "node_updated"
	EventNodeDeleted  = "node_deleted"
	EventEdgeCreated  = "edge_created"
	EventEdgeDeleted  = "edge_deleted"
	EventCursorMoved  = "cursor_moved"
	EventError        = "error"
)

// Envelope is the wire frame for every message in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// JoinSessionPayload carries a request to enter a session room. The session
// is auto-created when it does not exist yet.
type JoinSessionPayload struct {
	SessionID string `json:"session_id" validate:"required"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
}

// LeaveSessionPayload carries a request to leave a session room.
type LeaveSessionPayload struct {
	SessionID string `json:"session_id" validate:"required"`
}

// NodeCreatePayload carries a node creation intent. Omitted node fields take
// the server-side defaults.
type NodeCreatePayload struct {
	SessionID string          `json:"session_id" validate:"required"`
	Node      domain.NodeSpec `json:"node"`
}

// NodeUpdatePayload carries a sparse node update.
type NodeUpdatePayload struct {
	SessionID string           `json:"session_id" validate:"required"`
	NodeID    string           `json:"node_id" validate:"required"`
	Patch     domain.NodePatch `json:"patch"`
}

// NodeDeletePayload carries a node deletion intent.
type NodeDeletePayload struct {
	SessionID string `json:"session_id" validate:"required"`
	NodeID    string `json:"node_id" validate:"required"`
}

// EdgeSpec names the two endpoints of a new edge.
type EdgeSpec struct {
	SourceID string `json:"source_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
}

// EdgeCreatePayload carries an edge creation intent.
type EdgeCreatePayload struct {
	SessionID string   `json:"session_id" validate:"required"`
	Edge      EdgeSpec `json:"edge"`
}

// EdgeDeletePayload carries an edge deletion intent.
type EdgeDeletePayload struct {
	SessionID string `json:"session_id" validate:"required"`
	EdgeID    string `json:"edge_id" validate:"required"`
}

// CursorMovePayload is echoed verbatim to the rest of the room.
type CursorMovePayload struct {
	SessionID string  `json:"session_id" validate:"required"`
	UserID    string  `json:"user_id"`
	UserName  string  `json:"user_name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// marshalEvent frames a payload in the wire envelope.
func marshalEvent(eventType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return json.Marshal(Envelope{Type: eventType, Data: data})
}

// errorEvent builds the originator-only error frame.
func errorEvent(message string) []byte {
	frame, err := marshalEvent(EventError, map[string]string{"message": message})
	if err != nil {
		return []byte(`{"type":"error","data":{"message":"internal error"}}`)
	}
	return frame
}
