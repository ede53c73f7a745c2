// Package graph provides the business operations over the mind-map graph:
// session lifecycle, node and edge CRUD with referential invariants, and the
// full-state snapshot used for the join bootstrap.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mindmap-backend/internal/domain"
	"mindmap-backend/internal/repository"
	appErrors "mindmap-backend/pkg/errors"
)

// Service defines the graph operations consumed by the realtime engine and
// the REST surface.
type Service interface {
	// CreateSession creates a session with a server-generated identifier.
	CreateSession(ctx context.Context, title string) (*domain.Session, error)

	// EnsureSession returns the session, creating it first when absent. The
	// bool reports whether a new session was created. Used by the join
	// bootstrap, where the client may supply its own session identifier.
	EnsureSession(ctx context.Context, sessionID, title string) (*domain.Session, bool, error)

	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ListSessions(ctx context.Context) ([]*domain.Session, error)
	UpdateSessionTitle(ctx context.Context, sessionID, title string) (*domain.Session, error)

	// DeleteSession removes the session and cascades to all of its nodes and
	// edges. Returns false when the session did not exist.
	DeleteSession(ctx context.Context, sessionID string) (bool, error)

	// CreateNode creates a node in a session, filling omitted fields with
	// the documented defaults. Session existence is the caller's check; the
	// realtime engine verifies it before delegating here.
	CreateNode(ctx context.Context, sessionID string, spec domain.NodeSpec) (*domain.Node, error)

	GetNode(ctx context.Context, nodeID string) (*domain.Node, error)

	// UpdateNode applies a sparse patch: only fields present in the patch
	// are written, everything else is left untouched.
	UpdateNode(ctx context.Context, nodeID string, patch domain.NodePatch) (*domain.Node, error)

	// DeleteNode removes a node and every edge incident to it in one atomic
	// unit. Returns false when the node did not exist.
	DeleteNode(ctx context.Context, nodeID string) (bool, error)

	// CreateEdge connects two nodes of a session. Both endpoints must exist
	// and belong to sessionID, and the ordered (session, source, target)
	// triple must not already have an edge.
	CreateEdge(ctx context.Context, sessionID, sourceID, targetID string) (*domain.Edge, error)

	GetEdge(ctx context.Context, edgeID string) (*domain.Edge, error)
	DeleteEdge(ctx context.Context, edgeID string) (bool, error)

	// GetSessionState returns the full graph snapshot for bootstrap/resync.
	GetSessionState(ctx context.Context, sessionID string) (*domain.SessionState, error)
}

type service struct {
	repo repository.Repository
}

// NewService creates the graph service on top of a repository.
func NewService(repo repository.Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateSession(ctx context.Context, title string) (*domain.Session, error) {
	if title == "" {
		return nil, appErrors.NewValidation("title is required")
	}
	session := &domain.Session{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) EnsureSession(ctx context.Context, sessionID, title string) (*domain.Session, bool, error) {
	if sessionID == "" {
		return nil, false, appErrors.NewValidation("session_id is required")
	}

	session, err := s.repo.FindSession(ctx, sessionID)
	if err == nil {
		return session, false, nil
	}
	if !appErrors.IsNotFound(err) {
		return nil, false, err
	}

	if title == "" {
		title = fmt.Sprintf("Session %s", sessionID)
	}
	session = &domain.Session{
		ID:        sessionID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	err = s.repo.CreateSession(ctx, session)
	if err == nil {
		return session, true, nil
	}
	// A concurrent joiner may have created it between the lookup and the
	// conditional put; the store rejects the duplicate and we read theirs.
	if appErrors.IsValidation(err) {
		existing, findErr := s.repo.FindSession(ctx, sessionID)
		if findErr != nil {
			return nil, false, findErr
		}
		return existing, false, nil
	}
	return nil, false, err
}

func (s *service) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.repo.FindSession(ctx, sessionID)
}

func (s *service) ListSessions(ctx context.Context) ([]*domain.Session, error) {
	return s.repo.ListSessions(ctx)
}

func (s *service) UpdateSessionTitle(ctx context.Context, sessionID, title string) (*domain.Session, error) {
	if title == "" {
		return nil, appErrors.NewValidation("title is required")
	}
	return s.repo.UpdateSessionTitle(ctx, sessionID, title)
}

func (s *service) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	return s.repo.DeleteSession(ctx, sessionID)
}

func (s *service) CreateNode(ctx context.Context, sessionID string, spec domain.NodeSpec) (*domain.Node, error) {
	if sessionID == "" {
		return nil, appErrors.NewValidation("session_id is required")
	}
	node := domain.NewNode(uuid.New().String(), sessionID, spec, time.Now().UTC())
	if err := s.repo.CreateNode(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

func (s *service) GetNode(ctx context.Context, nodeID string) (*domain.Node, error) {
	return s.repo.FindNode(ctx, nodeID)
}

func (s *service) UpdateNode(ctx context.Context, nodeID string, patch domain.NodePatch) (*domain.Node, error) {
	if patch.IsEmpty() {
		// A no-field patch is a no-op; return the current record so the
		// canonical broadcast still reflects server state.
		return s.repo.FindNode(ctx, nodeID)
	}
	return s.repo.UpdateNode(ctx, nodeID, patch)
}

func (s *service) DeleteNode(ctx context.Context, nodeID string) (bool, error) {
	return s.repo.DeleteNode(ctx, nodeID)
}

func (s *service) CreateEdge(ctx context.Context, sessionID, sourceID, targetID string) (*domain.Edge, error) {
	if sourceID == "" || targetID == "" {
		return nil, appErrors.NewValidation("source_id and target_id are required")
	}

	source, err := s.findEndpoint(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	target, err := s.findEndpoint(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if source.SessionID != sessionID || target.SessionID != sessionID {
		return nil, appErrors.NewValidation("nodes must belong to the same session")
	}

	edge := &domain.Edge{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		SourceID:  sourceID,
		TargetID:  targetID,
		CreatedAt: time.Now().UTC(),
	}
	// The store re-checks endpoint existence and the duplicate guard
	// atomically, so a concurrent node delete cannot slip an edge in.
	if err := s.repo.CreateEdge(ctx, edge); err != nil {
		return nil, err
	}
	return edge, nil
}

func (s *service) findEndpoint(ctx context.Context, nodeID string) (*domain.Node, error) {
	node, err := s.repo.FindNode(ctx, nodeID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return nil, appErrors.NewValidation("source or target node not found")
		}
		return nil, err
	}
	return node, nil
}

func (s *service) GetEdge(ctx context.Context, edgeID string) (*domain.Edge, error) {
	return s.repo.FindEdge(ctx, edgeID)
}

func (s *service) DeleteEdge(ctx context.Context, edgeID string) (bool, error) {
	return s.repo.DeleteEdge(ctx, edgeID)
}

func (s *service) GetSessionState(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	return s.repo.GetSessionState(ctx, sessionID)
}
