package websocket

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mindmap-backend/internal/service/graph"
	appErrors "mindmap-backend/pkg/errors"
	"mindmap-backend/pkg/observability"
)

// Conn is what the engine needs from a connection: hub membership plus the
// current session tracking. Client implements it; tests substitute fakes.
type Conn interface {
	Member
	Session() string
	SetSession(sessionID string)
	User() (id, name string)
	SetUser(id, name string)
}

// Engine is the realtime sync engine. For every mutation intent it validates
// the correlating fields, re-verifies the target against current state,
// delegates to the graph service, and on success broadcasts the canonical
// post-mutation record to the session room. Failures of any kind go back to
// the originating connection only, as an error event; they never abort the
// connection and never reach other room members.
//
// Persist-then-broadcast is serialized per session, so every room member
// observes structural mutations in commit order (last-writer-wins at the
// field level). Cursor moves are not persisted and are echoed to the room
// excluding the sender.
type Engine struct {
	service  graph.Service
	hub      *Hub
	validate *validator.Validate
	locks    *sessionLocks
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewEngine wires the engine to its collaborators.
func NewEngine(service graph.Service, hub *Hub, logger *zap.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		service:  service,
		hub:      hub,
		validate: validator.New(),
		locks:    newSessionLocks(),
		logger:   logger,
		metrics:  metrics,
	}
}

// HandleConnect records a newly upgraded connection.
func (e *Engine) HandleConnect(c Conn) {
	if e.metrics != nil {
		e.metrics.ActiveConnections.Inc()
	}
	e.logger.Info("client connected", zap.String("connectionID", c.ID()))
}

// HandleDisconnect runs the implicit leave when a connection closes.
func (e *Engine) HandleDisconnect(c Conn) {
	if sessionID := c.Session(); sessionID != "" {
		e.hub.Leave(sessionID, c)
		c.SetSession("")
	}
	if e.metrics != nil {
		e.metrics.ActiveConnections.Dec()
	}
	e.logger.Info("client disconnected", zap.String("connectionID", c.ID()))
}

// HandleMessage dispatches one inbound frame from a connection.
func (e *Engine) HandleMessage(c Conn, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		e.sendError(c, "invalid message")
		return
	}

	ctx := context.Background()
	switch envelope.Type {
	case EventJoinSession:
		e.handleJoin(ctx, c, envelope.Data)
	case EventLeaveSession:
		e.handleLeave(c, envelope.Data)
	case EventNodeCreate:
		e.handleNodeCreate(ctx, c, envelope.Data)
	case EventNodeUpdate:
		e.handleNodeUpdate(ctx, c, envelope.Data)
	case EventNodeDelete:
		e.handleNodeDelete(ctx, c, envelope.Data)
	case EventEdgeCreate:
		e.handleEdgeCreate(ctx, c, envelope.Data)
	case EventEdgeDelete:
		e.handleEdgeDelete(ctx, c, envelope.Data)
	case EventCursorMove:
		e.handleCursorMove(c, envelope.Data)
	default:
		e.sendError(c, "unknown event type")
	}
}

func (e *Engine) handleJoin(ctx context.Context, c Conn, data json.RawMessage) {
	var payload JoinSessionPayload
	if !e.decode(c, data, &payload, "session_id is required") {
		return
	}

	// One room per connection: joining a new session leaves the old room.
	if previous := c.Session(); previous != "" && previous != payload.SessionID {
		e.hub.Leave(previous, c)
		c.SetSession("")
	}

	session, created, err := e.service.EnsureSession(ctx, payload.SessionID, "")
	if err != nil {
		e.sendError(c, appErrors.Message(err))
		return
	}
	if created {
		e.logger.Info("auto-created session on join",
			zap.String("sessionID", session.ID),
			zap.String("connectionID", c.ID()),
		)
	}

	err = e.hub.Join(session.ID, c, func() ([]byte, error) {
		state, err := e.service.GetSessionState(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		return marshalEvent(EventInitialState, state)
	})
	if err != nil {
		e.sendError(c, appErrors.Message(err))
		return
	}
	c.SetSession(session.ID)
	c.SetUser(payload.UserID, payload.UserName)

	frame, err := marshalEvent(EventUserJoined, map[string]string{
		"user_id":   payload.UserID,
		"user_name": payload.UserName,
	})
	if err != nil {
		e.logger.Error("failed to marshal user_joined", zap.Error(err))
		return
	}
	e.hub.Broadcast(session.ID, EventUserJoined, frame, c)

	e.logger.Info("user joined session",
		zap.String("sessionID", session.ID),
		zap.String("userID", payload.UserID),
		zap.String("userName", payload.UserName),
	)
}

func (e *Engine) handleLeave(c Conn, data json.RawMessage) {
	var payload LeaveSessionPayload
	if !e.decode(c, data, &payload, "session_id is required") {
		return
	}
	e.hub.Leave(payload.SessionID, c)
	if c.Session() == payload.SessionID {
		c.SetSession("")
	}
}

func (e *Engine) handleNodeCreate(ctx context.Context, c Conn, data json.RawMessage) {
	var payload NodeCreatePayload
	if !e.decode(c, data, &payload, "session_id is required") {
		return
	}

	unlock := e.locks.lock(payload.SessionID)
	defer unlock()

	if _, err := e.service.GetSession(ctx, payload.SessionID); err != nil {
		e.sendError(c, e.sessionMessage(err))
		return
	}
	node, err := e.service.CreateNode(ctx, payload.SessionID, payload.Node)
	if err != nil {
		e.sendError(c, appErrors.Message(err))
		return
	}
	e.broadcastRecord(c, payload.SessionID, EventNodeCreated, map[string]any{"node": node})
}

func (e *Engine) handleNodeUpdate(ctx context.Context, c Conn, data json.RawMessage) {
	var payload NodeUpdatePayload
	if !e.decode(c, data, &payload, "session_id and node_id are required") {
		return
	}

	unlock := e.locks.lock(payload.SessionID)
	defer unlock()

	// A stale client must not mutate a node it no longer shares a session
	// with, even if it still knows the id.
	node, err := e.service.GetNode(ctx, payload.NodeID)
	if err != nil || node.SessionID != payload.SessionID {
		e.sendError(c, e.recordMessage(err, "Node not found"))
		return
	}

	updated, err := e.service.UpdateNode(ctx, payload.NodeID, payload.Patch)
	if err != nil {
		e.sendError(c, e.recordMessage(err, "Node not found"))
		return
	}
	e.broadcastRecord(c, payload.SessionID, EventNodeUpdated, map[string]any{"node": updated})
}

func (e *Engine) handleNodeDelete(ctx context.Context, c Conn, data json.RawMessage) {
	var payload NodeDeletePayload
	if !e.decode(c, data, &payload, "session_id and node_id are required") {
		return
	}

	unlock := e.locks.lock(payload.SessionID)
	defer unlock()

	node, err := e.service.GetNode(ctx, payload.NodeID)
	if err != nil || node.SessionID != payload.SessionID {
		e.sendError(c, e.recordMessage(err, "Node not found"))
		return
	}

	deleted, err := e.service.DeleteNode(ctx, payload.NodeID)
	if err != nil {
		e.sendError(c, appErrors.Message(err))
		return
	}
	if !deleted {
		e.sendError(c, "Node not found")
		return
	}
	e.broadcastRecord(c, payload.SessionID, EventNodeDeleted, map[string]string{"node_id": payload.NodeID})
}

func (e *Engine) handleEdgeCreate(ctx context.Context, c Conn, data json.RawMessage) {
	var payload EdgeCreatePayload
	if !e.decode(c, data, &payload, "session_id is required") {
		return
	}

	unlock := e.locks.lock(payload.SessionID)
	defer unlock()

	if _, err := e.service.GetSession(ctx, payload.SessionID); err != nil {
		e.sendError(c, e.sessionMessage(err))
		return
	}
	edge, err := e.service.CreateEdge(ctx, payload.SessionID, payload.Edge.SourceID, payload.Edge.TargetID)
	if err != nil {
		e.sendError(c, appErrors.Message(err))
		return
	}
	e.broadcastRecord(c, payload.SessionID, EventEdgeCreated, map[string]any{"edge": edge})
}

func (e *Engine) handleEdgeDelete(ctx context.Context, c Conn, data json.RawMessage) {
	var payload EdgeDeletePayload
	if !e.decode(c, data, &payload, "session_id and edge_id are required") {
		return
	}

	unlock := e.locks.lock(payload.SessionID)
	defer unlock()

	edge, err := e.service.GetEdge(ctx, payload.EdgeID)
	if err != nil || edge.SessionID != payload.SessionID {
		e.sendError(c, e.recordMessage(err, "Edge not found"))
		return
	}

	deleted, err := e.service.DeleteEdge(ctx, payload.EdgeID)
	if err != nil {
		e.sendError(c, appErrors.Message(err))
		return
	}
	if !deleted {
		e.sendError(c, "Edge not found")
		return
	}
	e.broadcastRecord(c, payload.SessionID, EventEdgeDeleted, map[string]string{"edge_id": payload.EdgeID})
}

func (e *Engine) handleCursorMove(c Conn, data json.RawMessage) {
	var payload CursorMovePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	// Cursor positions are transient: nothing is persisted and a missing
	// session id is silently dropped rather than answered with an error.
	if payload.SessionID == "" {
		return
	}
	frame, err := marshalEvent(EventCursorMoved, payload)
	if err != nil {
		return
	}
	// The sender already has authoritative local cursor state.
	e.hub.Broadcast(payload.SessionID, EventCursorMoved, frame, c)
}

// broadcastRecord fans the canonical post-mutation record out to the full
// room, originator included, so optimistic local state reconciles against
// what the server actually committed.
func (e *Engine) broadcastRecord(c Conn, sessionID, eventType string, payload any) {
	frame, err := marshalEvent(eventType, payload)
	if err != nil {
		e.logger.Error("failed to marshal broadcast",
			zap.String("event", eventType),
			zap.Error(err),
		)
		e.sendError(c, "internal error")
		return
	}
	e.hub.Broadcast(sessionID, eventType, frame, nil)
}

// decode unmarshals and validates an event payload, replying to the
// originator with missingMessage when required correlating fields are
// absent.
func (e *Engine) decode(c Conn, data json.RawMessage, payload any, missingMessage string) bool {
	if len(data) > 0 {
		if err := json.Unmarshal(data, payload); err != nil {
			e.sendError(c, "invalid message")
			return false
		}
	}
	if err := e.validate.Struct(payload); err != nil {
		e.sendError(c, missingMessage)
		return false
	}
	return true
}

func (e *Engine) sessionMessage(err error) string {
	if appErrors.IsNotFound(err) {
		return "Session not found"
	}
	return appErrors.Message(err)
}

// recordMessage maps a lookup failure (or a cross-session mismatch, where
// err is nil) to the not-found message, passing through storage errors.
func (e *Engine) recordMessage(err error, notFound string) string {
	if err == nil || appErrors.IsNotFound(err) {
		return notFound
	}
	return appErrors.Message(err)
}

// sendError replies to the originating connection only; errors are never
// broadcast.
func (e *Engine) sendError(c Conn, message string) {
	if !c.Enqueue(errorEvent(message)) {
		if sessionID := c.Session(); sessionID != "" {
			e.hub.Leave(sessionID, c)
		}
		c.CloseSlow()
	}
}
