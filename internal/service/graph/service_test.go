package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmap-backend/internal/domain"
	"mindmap-backend/internal/repository/mocks"
	appErrors "mindmap-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *mocks.MockRepository) {
	t.Helper()
	repo := mocks.NewMockRepository()
	return NewService(repo), repo
}

func mustCreateSession(t *testing.T, svc Service, title string) *domain.Session {
	t.Helper()
	session, err := svc.CreateSession(context.Background(), title)
	require.NoError(t, err)
	return session
}

func mustCreateNode(t *testing.T, svc Service, sessionID string, spec domain.NodeSpec) *domain.Node {
	t.Helper()
	node, err := svc.CreateNode(context.Background(), sessionID, spec)
	require.NoError(t, err)
	return node
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestCreateSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session := mustCreateSession(t, svc, "Brainstorm")
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "Brainstorm", session.Title)
	assert.False(t, session.CreatedAt.IsZero())

	found, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, found.ID)

	_, err = svc.CreateSession(ctx, "")
	assert.True(t, appErrors.IsValidation(err))
}

func TestEnsureSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Absent session is created with a derived title.
	session, created, err := svc.EnsureSession(ctx, "room-42", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "room-42", session.ID)
	assert.Equal(t, "Session room-42", session.Title)

	// Second ensure finds the existing session.
	again, created, err := svc.EnsureSession(ctx, "room-42", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, session.Title, again.Title)

	_, _, err = svc.EnsureSession(ctx, "", "")
	assert.True(t, appErrors.IsValidation(err))
}

func TestEnsureSessionLostCreateRace(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	// The lookup misses but the conditional put is rejected, as happens when
	// another joiner creates the session in between. Ensure must fall back to
	// reading the winner's record.
	require.NoError(t, repo.CreateSession(ctx, &domain.Session{ID: "raced", Title: "Theirs"}))
	repo.SetErrorOnce("FindSession", appErrors.NewNotFound("session not found"))
	repo.SetError("CreateSession", appErrors.NewValidation("session already exists"))

	session, created, err := svc.EnsureSession(ctx, "raced", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Theirs", session.Title)

	// When even the fallback lookup misses, the failure surfaces.
	repo.ClearErrors()
	repo.SetError("CreateSession", appErrors.NewValidation("session already exists"))
	session, created, err = svc.EnsureSession(ctx, "other", "")
	assert.Error(t, err)
	assert.False(t, created)
	assert.Nil(t, session)
}

func TestUpdateSessionTitle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session := mustCreateSession(t, svc, "Old")
	updated, err := svc.UpdateSessionTitle(ctx, session.ID, "New")
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.NotNil(t, updated.UpdatedAt)

	_, err = svc.UpdateSessionTitle(ctx, session.ID, "")
	assert.True(t, appErrors.IsValidation(err))

	_, err = svc.UpdateSessionTitle(ctx, "missing", "X")
	assert.True(t, appErrors.IsNotFound(err))
}

func TestCreateNodeDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	session := mustCreateSession(t, svc, "S")
	node := mustCreateNode(t, svc, session.ID, domain.NodeSpec{})

	assert.NotEmpty(t, node.ID)
	assert.Equal(t, session.ID, node.SessionID)
	assert.Equal(t, "", node.Content)
	assert.Equal(t, domain.DefaultNodeX, node.X)
	assert.Equal(t, domain.DefaultNodeY, node.Y)
	assert.Equal(t, domain.DefaultNodeWidth, node.Width)
	assert.Equal(t, domain.DefaultNodeHeight, node.Height)
	assert.NotNil(t, node.Style)
	assert.Empty(t, node.Style)
}

func TestCreateNodeExplicitFields(t *testing.T) {
	svc, _ := newTestService(t)

	session := mustCreateSession(t, svc, "S")
	node := mustCreateNode(t, svc, session.ID, domain.NodeSpec{
		Content: strPtr("idea"),
		X:       intPtr(0),
		Y:       intPtr(-5),
		Width:   intPtr(320),
		Style:   map[string]any{"color": "red"},
	})

	assert.Equal(t, "idea", node.Content)
	assert.Equal(t, 0, node.X)
	assert.Equal(t, -5, node.Y)
	assert.Equal(t, 320, node.Width)
	assert.Equal(t, domain.DefaultNodeHeight, node.Height)
	assert.Equal(t, "red", node.Style["color"])
}

func TestUpdateNodeSparsePatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session := mustCreateSession(t, svc, "S")
	node := mustCreateNode(t, svc, session.ID, domain.NodeSpec{Content: strPtr("before")})

	updated, err := svc.UpdateNode(ctx, node.ID, domain.NodePatch{X: intPtr(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.X)
	assert.Equal(t, "before", updated.Content)
	assert.NotNil(t, updated.UpdatedAt)

	// An empty patch is a no-op returning the current record.
	same, err := svc.UpdateNode(ctx, node.ID, domain.NodePatch{})
	require.NoError(t, err)
	assert.Equal(t, 7, same.X)

	_, err = svc.UpdateNode(ctx, "missing", domain.NodePatch{X: intPtr(1)})
	assert.True(t, appErrors.IsNotFound(err))
}

func TestDeleteNodeCascadesEdges(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session := mustCreateSession(t, svc, "S")
	a := mustCreateNode(t, svc, session.ID, domain.NodeSpec{})
	b := mustCreateNode(t, svc, session.ID, domain.NodeSpec{})
	c := mustCreateNode(t, svc, session.ID, domain.NodeSpec{})

	ab, err := svc.CreateEdge(ctx, session.ID, a.ID, b.ID)
	require.NoError(t, err)
	bc, err := svc.CreateEdge(ctx, session.ID, b.ID, c.ID)
	require.NoError(t, err)

	deleted, err := svc.DeleteNode(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Both incident edges are gone, the untouched node survives.
	_, err = svc.GetEdge(ctx, ab.ID)
	assert.True(t, appErrors.IsNotFound(err))
	_, err = svc.GetEdge(ctx, bc.ID)
	assert.True(t, appErrors.IsNotFound(err))
	_, err = svc.GetNode(ctx, a.ID)
	assert.NoError(t, err)

	deleted, err = svc.DeleteNode(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCreateEdgeValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	s1 := mustCreateSession(t, svc, "one")
	s2 := mustCreateSession(t, svc, "two")
	a := mustCreateNode(t, svc, s1.ID, domain.NodeSpec{})
	b := mustCreateNode(t, svc, s1.ID, domain.NodeSpec{})
	foreign := mustCreateNode(t, svc, s2.ID, domain.NodeSpec{})

	edge, err := svc.CreateEdge(ctx, s1.ID, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, edge.SourceID)
	assert.Equal(t, b.ID, edge.TargetID)

	// Missing endpoint.
	_, err = svc.CreateEdge(ctx, s1.ID, a.ID, "missing")
	require.True(t, appErrors.IsValidation(err))
	assert.Equal(t, "source or target node not found", appErrors.Message(err))

	// Endpoint from another session.
	_, err = svc.CreateEdge(ctx, s1.ID, a.ID, foreign.ID)
	require.True(t, appErrors.IsValidation(err))
	assert.Equal(t, "nodes must belong to the same session", appErrors.Message(err))

	// Duplicate ordered pair.
	_, err = svc.CreateEdge(ctx, s1.ID, a.ID, b.ID)
	require.True(t, appErrors.IsValidation(err))
	assert.Equal(t, "edge already exists", appErrors.Message(err))

	// The reverse direction is a distinct edge.
	_, err = svc.CreateEdge(ctx, s1.ID, b.ID, a.ID)
	assert.NoError(t, err)
}

func TestDeleteEdgeAllowsRecreate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session := mustCreateSession(t, svc, "S")
	a := mustCreateNode(t, svc, session.ID, domain.NodeSpec{})
	b := mustCreateNode(t, svc, session.ID, domain.NodeSpec{})

	edge, err := svc.CreateEdge(ctx, session.ID, a.ID, b.ID)
	require.NoError(t, err)

	deleted, err := svc.DeleteEdge(ctx, edge.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.DeleteEdge(ctx, edge.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	// The ordered pair is free again.
	_, err = svc.CreateEdge(ctx, session.ID, a.ID, b.ID)
	assert.NoError(t, err)
}

func TestDeleteSessionCascades(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session := mustCreateSession(t, svc, "S")
	a := mustCreateNode(t, svc, session.ID, domain.NodeSpec{})
	b := mustCreateNode(t, svc, session.ID, domain.NodeSpec{})
	edge, err := svc.CreateEdge(ctx, session.ID, a.ID, b.ID)
	require.NoError(t, err)

	deleted, err := svc.DeleteSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = svc.GetSession(ctx, session.ID)
	assert.True(t, appErrors.IsNotFound(err))
	_, err = svc.GetNode(ctx, a.ID)
	assert.True(t, appErrors.IsNotFound(err))
	_, err = svc.GetEdge(ctx, edge.ID)
	assert.True(t, appErrors.IsNotFound(err))

	deleted, err = svc.DeleteSession(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestGetSessionState(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session := mustCreateSession(t, svc, "S")
	other := mustCreateSession(t, svc, "other")

	a := mustCreateNode(t, svc, session.ID, domain.NodeSpec{})
	b := mustCreateNode(t, svc, session.ID, domain.NodeSpec{})
	mustCreateNode(t, svc, other.ID, domain.NodeSpec{})
	_, err := svc.CreateEdge(ctx, session.ID, a.ID, b.ID)
	require.NoError(t, err)

	state, err := svc.GetSessionState(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, state.Nodes, 2)
	assert.Len(t, state.Edges, 1)

	// A fresh session snapshots as empty lists, not nils.
	empty, err := svc.GetSessionState(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, empty.Nodes, 1)
	assert.NotNil(t, empty.Edges)
	assert.Empty(t, empty.Edges)
}

// Exercises the documented end-to-end flow: build a three-node graph, rename
// content, drop the hub node, and check the surviving state.
func TestGraphLifecycleScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session := mustCreateSession(t, svc, "planning")
	root := mustCreateNode(t, svc, session.ID, domain.NodeSpec{Content: strPtr("root")})
	left := mustCreateNode(t, svc, session.ID, domain.NodeSpec{Content: strPtr("left")})
	right := mustCreateNode(t, svc, session.ID, domain.NodeSpec{Content: strPtr("right")})

	_, err := svc.CreateEdge(ctx, session.ID, root.ID, left.ID)
	require.NoError(t, err)
	_, err = svc.CreateEdge(ctx, session.ID, root.ID, right.ID)
	require.NoError(t, err)

	_, err = svc.UpdateNode(ctx, left.ID, domain.NodePatch{Content: strPtr("left renamed")})
	require.NoError(t, err)

	deleted, err := svc.DeleteNode(ctx, root.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	state, err := svc.GetSessionState(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, state.Nodes, 2)
	assert.Empty(t, state.Edges)

	contents := map[string]bool{}
	for _, n := range state.Nodes {
		contents[n.Content] = true
	}
	assert.True(t, contents["left renamed"])
	assert.True(t, contents["right"])
}

func TestStorageErrorsPassThrough(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	repo.SetError("FindSession", appErrors.NewTransient("storage temporarily unavailable", nil))
	_, err := svc.GetSession(ctx, "any")
	assert.True(t, appErrors.IsTransient(err))

	repo.ClearErrors()
	repo.SetError("FindNode", appErrors.NewInternal("boom", nil))
	_, err = svc.CreateEdge(ctx, "s", "a", "b")
	assert.True(t, appErrors.IsInternal(err))
}
