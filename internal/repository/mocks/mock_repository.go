// Package mocks provides an in-memory implementation of the repository
// interface for testing services without a real database.
package mocks

import (
	"context"
	"sync"
	"time"

	"mindmap-backend/internal/domain"
	appErrors "mindmap-backend/pkg/errors"
)

// MockRepository is an in-memory Repository. It mirrors the store's
// semantics closely enough for unit tests: cascade deletes, the ordered-pair
// duplicate guard, and sparse node updates.
type MockRepository struct {
	mu sync.RWMutex

	sessions map[string]*domain.Session
	nodes    map[string]*domain.Node
	edges    map[string]*domain.Edge
	guards   map[string]string // (session,source,target) key -> edgeID

	// For testing error scenarios. Guarded by failMu, not mu, so one-shot
	// errors can be consumed from read methods too.
	failMu       sync.Mutex
	shouldFailOn map[string]error
	failOnceOn   map[string]error
}

// NewMockRepository creates a new mock repository instance.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		sessions:     make(map[string]*domain.Session),
		nodes:        make(map[string]*domain.Node),
		edges:        make(map[string]*domain.Edge),
		guards:       make(map[string]string),
		shouldFailOn: make(map[string]error),
		failOnceOn:   make(map[string]error),
	}
}

// SetError configures the mock to return an error for a specific method.
func (m *MockRepository) SetError(method string, err error) {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	m.shouldFailOn[method] = err
}

// SetErrorOnce configures the mock to fail only the next call of a method.
func (m *MockRepository) SetErrorOnce(method string, err error) {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	m.failOnceOn[method] = err
}

// ClearErrors removes all configured errors.
func (m *MockRepository) ClearErrors() {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	m.shouldFailOn = make(map[string]error)
	m.failOnceOn = make(map[string]error)
}

func (m *MockRepository) failure(method string) error {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	if err, ok := m.failOnceOn[method]; ok {
		delete(m.failOnceOn, method)
		return err
	}
	return m.shouldFailOn[method]
}

func guardKey(sessionID, sourceID, targetID string) string {
	return sessionID + "#" + sourceID + "#" + targetID
}

func (m *MockRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("CreateSession"); err != nil {
		return err
	}
	if _, exists := m.sessions[session.ID]; exists {
		return appErrors.NewValidation("session already exists")
	}
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *MockRepository) FindSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure("FindSession"); err != nil {
		return nil, err
	}
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, appErrors.NewNotFound("session not found")
	}
	copied := *session
	return &copied, nil
}

func (m *MockRepository) ListSessions(ctx context.Context) ([]*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure("ListSessions"); err != nil {
		return nil, err
	}
	sessions := make([]*domain.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		copied := *session
		sessions = append(sessions, &copied)
	}
	return sessions, nil
}

func (m *MockRepository) UpdateSessionTitle(ctx context.Context, sessionID, title string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("UpdateSessionTitle"); err != nil {
		return nil, err
	}
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, appErrors.NewNotFound("session not found")
	}
	now := time.Now().UTC()
	session.Title = title
	session.UpdatedAt = &now
	copied := *session
	return &copied, nil
}

func (m *MockRepository) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("DeleteSession"); err != nil {
		return false, err
	}
	if _, ok := m.sessions[sessionID]; !ok {
		return false, nil
	}
	delete(m.sessions, sessionID)
	for id, node := range m.nodes {
		if node.SessionID == sessionID {
			delete(m.nodes, id)
		}
	}
	for id, edge := range m.edges {
		if edge.SessionID == sessionID {
			delete(m.guards, guardKey(edge.SessionID, edge.SourceID, edge.TargetID))
			delete(m.edges, id)
		}
	}
	return true, nil
}

func (m *MockRepository) CreateNode(ctx context.Context, node *domain.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("CreateNode"); err != nil {
		return err
	}
	copied := *node
	m.nodes[node.ID] = &copied
	return nil
}

func (m *MockRepository) FindNode(ctx context.Context, nodeID string) (*domain.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure("FindNode"); err != nil {
		return nil, err
	}
	node, ok := m.nodes[nodeID]
	if !ok {
		return nil, appErrors.NewNotFound("node not found")
	}
	copied := *node
	return &copied, nil
}

func (m *MockRepository) UpdateNode(ctx context.Context, nodeID string, patch domain.NodePatch) (*domain.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("UpdateNode"); err != nil {
		return nil, err
	}
	node, ok := m.nodes[nodeID]
	if !ok {
		return nil, appErrors.NewNotFound("node not found")
	}
	patch.Apply(node, time.Now().UTC())
	copied := *node
	return &copied, nil
}

func (m *MockRepository) DeleteNode(ctx context.Context, nodeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("DeleteNode"); err != nil {
		return false, err
	}
	if _, ok := m.nodes[nodeID]; !ok {
		return false, nil
	}
	delete(m.nodes, nodeID)
	for id, edge := range m.edges {
		if edge.SourceID == nodeID || edge.TargetID == nodeID {
			delete(m.guards, guardKey(edge.SessionID, edge.SourceID, edge.TargetID))
			delete(m.edges, id)
		}
	}
	return true, nil
}

func (m *MockRepository) CreateEdge(ctx context.Context, edge *domain.Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("CreateEdge"); err != nil {
		return err
	}
	source, sourceOK := m.nodes[edge.SourceID]
	target, targetOK := m.nodes[edge.TargetID]
	if !sourceOK || !targetOK {
		return appErrors.NewValidation("source or target node not found")
	}
	if source.SessionID != edge.SessionID || target.SessionID != edge.SessionID {
		return appErrors.NewValidation("source or target node not found")
	}
	gk := guardKey(edge.SessionID, edge.SourceID, edge.TargetID)
	if _, exists := m.guards[gk]; exists {
		return appErrors.NewValidation("edge already exists")
	}
	copied := *edge
	m.edges[edge.ID] = &copied
	m.guards[gk] = edge.ID
	return nil
}

func (m *MockRepository) FindEdge(ctx context.Context, edgeID string) (*domain.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure("FindEdge"); err != nil {
		return nil, err
	}
	edge, ok := m.edges[edgeID]
	if !ok {
		return nil, appErrors.NewNotFound("edge not found")
	}
	copied := *edge
	return &copied, nil
}

func (m *MockRepository) DeleteEdge(ctx context.Context, edgeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("DeleteEdge"); err != nil {
		return false, err
	}
	edge, ok := m.edges[edgeID]
	if !ok {
		return false, nil
	}
	delete(m.guards, guardKey(edge.SessionID, edge.SourceID, edge.TargetID))
	delete(m.edges, edgeID)
	return true, nil
}

func (m *MockRepository) GetSessionState(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure("GetSessionState"); err != nil {
		return nil, err
	}
	state := &domain.SessionState{Nodes: []*domain.Node{}, Edges: []*domain.Edge{}}
	for _, node := range m.nodes {
		if node.SessionID == sessionID {
			copied := *node
			state.Nodes = append(state.Nodes, &copied)
		}
	}
	for _, edge := range m.edges {
		if edge.SessionID == sessionID {
			copied := *edge
			state.Edges = append(state.Edges, &copied)
		}
	}
	return state, nil
}
