package websocket

import (
	"sync"

	"go.uber.org/zap"

	"mindmap-backend/pkg/observability"
)

// Member is one live connection from the hub's point of view. Client
// implements it; tests substitute fakes.
type Member interface {
	// ID returns the connection identifier.
	ID() string
	// Enqueue hands a frame to the member's send buffer without blocking.
	// It reports false when the buffer is full.
	Enqueue(frame []byte) bool
	// CloseSlow tears the connection down after a full send buffer.
	CloseSlow()
}

// Hub is the session room registry: a process-scoped map from session id to
// the set of connections currently viewing that session. It holds no durable
// state; rooms are created on first join and evicted when the last member
// leaves, so eviction is safe at any time.
//
// Each room carries its own mutex, held across a room broadcast and across
// the join bootstrap. That serialization is what guarantees a joiner
// receives its initial snapshot before any later broadcast for the session.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room

	logger  *zap.Logger
	metrics *observability.Metrics
}

type room struct {
	mu      sync.Mutex
	members map[Member]bool
	evicted bool
}

// NewHub creates an empty room registry.
func NewHub(logger *zap.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		rooms:   make(map[string]*room),
		logger:  logger,
		metrics: metrics,
	}
}

// Join adds member to the session's room. Under the room lock it first runs
// the bootstrap loader and enqueues the resulting frame to the joining
// member, then records membership — so no broadcast issued after the
// snapshot was taken can reach the member ahead of it. Joining a room the
// member is already in re-sends the bootstrap without duplicating
// membership.
func (h *Hub) Join(sessionID string, member Member, bootstrap func() ([]byte, error)) error {
	for {
		h.mu.Lock()
		r, ok := h.rooms[sessionID]
		if !ok {
			r = &room{members: make(map[Member]bool)}
			h.rooms[sessionID] = r
			if h.metrics != nil {
				h.metrics.ActiveRooms.Inc()
			}
		}
		h.mu.Unlock()

		r.mu.Lock()
		if r.evicted {
			// Lost a race with the last member leaving; the entry is gone
			// from the map, take a fresh one.
			r.mu.Unlock()
			continue
		}

		frame, err := bootstrap()
		if err != nil {
			empty := len(r.members) == 0
			r.mu.Unlock()
			if empty {
				h.evictIfEmpty(sessionID, r)
			}
			return err
		}
		if !member.Enqueue(frame) {
			r.mu.Unlock()
			h.dropSlow(sessionID, member)
			return nil
		}
		r.members[member] = true
		size := len(r.members)
		r.mu.Unlock()

		h.logger.Debug("member joined room",
			zap.String("sessionID", sessionID),
			zap.String("connectionID", member.ID()),
			zap.Int("roomSize", size),
		)
		return nil
	}
}

// Leave removes member from the session's room, evicting the room when it
// becomes empty. Leaving a room the member is not in is a no-op.
func (h *Hub) Leave(sessionID string, member Member) {
	h.mu.Lock()
	r, ok := h.rooms[sessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	r.mu.Lock()
	delete(r.members, member)
	size := len(r.members)
	if size == 0 {
		r.evicted = true
		delete(h.rooms, sessionID)
		if h.metrics != nil {
			h.metrics.ActiveRooms.Dec()
		}
	}
	r.mu.Unlock()
	h.mu.Unlock()

	h.logger.Debug("member left room",
		zap.String("sessionID", sessionID),
		zap.String("connectionID", member.ID()),
		zap.Int("roomSize", size),
	)
}

// Broadcast delivers a frame to every current member of the session's room
// except exclude (nil excludes nobody). Membership is read at broadcast
// time: a handle joining mid-broadcast may miss this frame, which is fine
// because the join bootstrap supplies full state. Members whose send buffer
// is full are torn down rather than allowed to stall the room.
func (h *Hub) Broadcast(sessionID, eventType string, frame []byte, exclude Member) {
	h.mu.RLock()
	r, ok := h.rooms[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	var slow []Member
	r.mu.Lock()
	for member := range r.members {
		if member == exclude {
			continue
		}
		if !member.Enqueue(frame) {
			slow = append(slow, member)
		}
	}
	r.mu.Unlock()

	if h.metrics != nil {
		h.metrics.BroadcastsTotal.WithLabelValues(eventType).Inc()
	}
	for _, member := range slow {
		h.dropSlow(sessionID, member)
	}
}

// RoomSize reports the current number of members in a session's room.
func (h *Hub) RoomSize(sessionID string) int {
	h.mu.RLock()
	r, ok := h.rooms[sessionID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (h *Hub) dropSlow(sessionID string, member Member) {
	h.logger.Warn("closing slow client",
		zap.String("sessionID", sessionID),
		zap.String("connectionID", member.ID()),
	)
	if h.metrics != nil {
		h.metrics.SlowClientsDropped.Inc()
	}
	h.Leave(sessionID, member)
	member.CloseSlow()
}

func (h *Hub) evictIfEmpty(sessionID string, r *room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	current, ok := h.rooms[sessionID]
	if !ok || current != r {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) == 0 {
		r.evicted = true
		delete(h.rooms, sessionID)
		if h.metrics != nil {
			h.metrics.ActiveRooms.Dec()
		}
	}
}
