// Package repository defines the persistence contract for the mind-map
// graph. The interface keeps the service layer independent of the concrete
// store; the ddb subpackage implements it on DynamoDB and the mocks
// subpackage provides an in-memory implementation for tests.
package repository

import (
	"context"

	"mindmap-backend/internal/domain"
)

// Repository is the Persistence Store contract consumed by the graph
// service. All operations are safe to retry on transient failure; none are
// retried internally.
//
// Error conventions: lookups return a NotFound AppError when the record is
// absent; CreateEdge returns a Validation AppError when the duplicate guard
// trips; storage failures surface as Transient AppErrors. Deletes of absent
// records return (false, nil), not an error.
type Repository interface {
	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	FindSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ListSessions(ctx context.Context) ([]*domain.Session, error)
	UpdateSessionTitle(ctx context.Context, sessionID, title string) (*domain.Session, error)
	// DeleteSession removes the session and every node and edge it owns.
	DeleteSession(ctx context.Context, sessionID string) (bool, error)

	// Nodes
	CreateNode(ctx context.Context, node *domain.Node) error
	FindNode(ctx context.Context, nodeID string) (*domain.Node, error)
	UpdateNode(ctx context.Context, nodeID string, patch domain.NodePatch) (*domain.Node, error)
	// DeleteNode removes the node and all edges incident to it (as source or
	// target) in one atomic unit.
	DeleteNode(ctx context.Context, nodeID string) (bool, error)

	// Edges
	// CreateEdge persists the edge together with its ordered-pair uniqueness
	// guard; a duplicate (session, source, target) triple fails atomically.
	CreateEdge(ctx context.Context, edge *domain.Edge) error
	FindEdge(ctx context.Context, edgeID string) (*domain.Edge, error)
	DeleteEdge(ctx context.Context, edgeID string) (bool, error)

	// GetSessionState returns the full graph snapshot for a session. The
	// result is deterministic per call but carries no ordering guarantee.
	GetSessionState(ctx context.Context, sessionID string) (*domain.SessionState, error)
}
