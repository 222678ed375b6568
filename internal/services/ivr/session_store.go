package ivr

import (
	"sync"
	"time"
)

// SessionStore holds in-flight call sessions. Sessions are transient: an
// abandoned call is simply never finalized and ages out.
type SessionStore interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

type storeEntry struct {
	session    *Session
	insertedAt time.Time
}

// MemorySessionStore is a time-bounded in-memory store with lazy
// sweep-on-read eviction. Entries older than the TTL are dropped the next
// time any read happens.
type MemorySessionStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]storeEntry
}

// NewMemorySessionStore creates a store that evicts sessions after ttl
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]storeEntry),
	}
}

// Put stores a session, resetting its eviction clock
func (s *MemorySessionStore) Put(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = storeEntry{session: session, insertedAt: time.Now()}
}

// Get returns the session with the given id. Expired entries encountered
// during the read are swept out.
func (s *MemorySessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.sessions {
		if now.Sub(entry.insertedAt) > s.ttl {
			delete(s.sessions, key)
		}
	}

	entry, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return entry.session, true
}

// Delete removes a session
func (s *MemorySessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live entries (expired ones included until swept)
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
