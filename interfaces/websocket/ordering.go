package websocket

import "sync"

// sessionLocks serializes persist-then-broadcast per session id, so room
// members observe structural mutations in the server's commit order. Entries
// are reference-counted and removed when the last holder unlocks.
type sessionLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{entries: make(map[string]*lockEntry)}
}

// lock acquires the mutex for key and returns the matching unlock.
func (s *sessionLocks) lock(key string) func() {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if !ok {
		entry = &lockEntry{}
		s.entries[key] = entry
	}
	entry.refs++
	s.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		s.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(s.entries, key)
		}
		s.mu.Unlock()
	}
}
