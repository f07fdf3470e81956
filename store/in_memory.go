package store

import "sync"

// InMemoryStore is a volatile Store implementation. It is safe for
// concurrent access and best suited for tests or ephemeral demo setups.
// Snapshots are cloned on both Save and Load to prevent external mutation
// of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Load implements Store.
func (s *InMemoryStore) Load() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone(), nil
}

// Save implements Store.
func (s *InMemoryStore) Save(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap.Clone()
	return nil
}
