package websocket

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeMember is an in-memory Member recording what the hub delivers.
type fakeMember struct {
	id string

	mu     sync.Mutex
	frames [][]byte
	full   bool
	closed bool
}

func newFakeMember(id string) *fakeMember {
	return &fakeMember{id: id}
}

func (f *fakeMember) ID() string { return f.id }

func (f *fakeMember) Enqueue(frame []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.frames = append(f.frames, frame)
	return true
}

func (f *fakeMember) CloseSlow() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeMember) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.frames))
	copy(out, f.frames)
	return out
}

func (f *fakeMember) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func staticBootstrap(frame []byte) func() ([]byte, error) {
	return func() ([]byte, error) { return frame, nil }
}

func TestHubJoinDeliversBootstrap(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	m := newFakeMember("c1")

	err := hub.Join("s1", m, staticBootstrap([]byte("snapshot")))
	require.NoError(t, err)

	frames := m.received()
	require.Len(t, frames, 1)
	assert.Equal(t, "snapshot", string(frames[0]))
	assert.Equal(t, 1, hub.RoomSize("s1"))
}

func TestHubJoinBootstrapFailure(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	m := newFakeMember("c1")

	err := hub.Join("s1", m, func() ([]byte, error) {
		return nil, errors.New("load failed")
	})
	require.Error(t, err)
	assert.Empty(t, m.received())
	assert.Equal(t, 0, hub.RoomSize("s1"))
}

func TestHubBroadcastExcludes(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	a := newFakeMember("a")
	b := newFakeMember("b")
	c := newFakeMember("c")
	require.NoError(t, hub.Join("s1", a, staticBootstrap([]byte("boot"))))
	require.NoError(t, hub.Join("s1", b, staticBootstrap([]byte("boot"))))
	require.NoError(t, hub.Join("s1", c, staticBootstrap([]byte("boot"))))

	hub.Broadcast("s1", "cursor_moved", []byte("frame"), b)

	assert.Len(t, a.received(), 2)
	assert.Len(t, b.received(), 1) // bootstrap only
	assert.Len(t, c.received(), 2)
}

func TestHubBroadcastOtherRoomUnaffected(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	a := newFakeMember("a")
	b := newFakeMember("b")
	require.NoError(t, hub.Join("s1", a, staticBootstrap([]byte("boot"))))
	require.NoError(t, hub.Join("s2", b, staticBootstrap([]byte("boot"))))

	hub.Broadcast("s1", "node_created", []byte("frame"), nil)

	assert.Len(t, a.received(), 2)
	assert.Len(t, b.received(), 1)
}

func TestHubLeaveEvictsEmptyRoom(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	a := newFakeMember("a")
	b := newFakeMember("b")
	require.NoError(t, hub.Join("s1", a, staticBootstrap([]byte("boot"))))
	require.NoError(t, hub.Join("s1", b, staticBootstrap([]byte("boot"))))

	hub.Leave("s1", a)
	assert.Equal(t, 1, hub.RoomSize("s1"))

	hub.Leave("s1", b)
	assert.Equal(t, 0, hub.RoomSize("s1"))

	// Leaving again, or leaving an unknown room, is a no-op.
	hub.Leave("s1", b)
	hub.Leave("nope", b)
}

func TestHubSlowMemberDroppedOnBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	ok := newFakeMember("ok")
	slow := newFakeMember("slow")
	require.NoError(t, hub.Join("s1", ok, staticBootstrap([]byte("boot"))))
	require.NoError(t, hub.Join("s1", slow, staticBootstrap([]byte("boot"))))

	slow.mu.Lock()
	slow.full = true
	slow.mu.Unlock()

	hub.Broadcast("s1", "node_created", []byte("frame"), nil)

	assert.True(t, slow.isClosed())
	assert.False(t, ok.isClosed())
	assert.Equal(t, 1, hub.RoomSize("s1"))
}

func TestHubSlowMemberDroppedOnJoin(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	slow := newFakeMember("slow")
	slow.full = true

	err := hub.Join("s1", slow, staticBootstrap([]byte("boot")))
	require.NoError(t, err)
	assert.True(t, slow.isClosed())
	assert.Equal(t, 0, hub.RoomSize("s1"))
}

// A broadcast issued while a join is bootstrapping must not reach the joiner
// ahead of its snapshot.
func TestHubBootstrapPrecedesConcurrentBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	first := newFakeMember("first")
	require.NoError(t, hub.Join("s1", first, staticBootstrap([]byte("boot")))) // keeps the room alive

	joiner := newFakeMember("joiner")
	started := make(chan struct{})
	release := make(chan struct{})
	joined := make(chan struct{})

	go func() {
		_ = hub.Join("s1", joiner, func() ([]byte, error) {
			close(started)
			<-release
			return []byte("snapshot"), nil
		})
		close(joined)
	}()

	<-started
	broadcastDone := make(chan struct{})
	go func() {
		// Blocks on the room lock until the join completes.
		hub.Broadcast("s1", "node_created", []byte("update"), nil)
		close(broadcastDone)
	}()

	// The broadcast must not finish while the bootstrap holds the room.
	select {
	case <-broadcastDone:
		t.Fatal("broadcast completed during join bootstrap")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-joined
	<-broadcastDone

	frames := joiner.received()
	require.Len(t, frames, 2)
	assert.Equal(t, "snapshot", string(frames[0]))
	assert.Equal(t, "update", string(frames[1]))
}
