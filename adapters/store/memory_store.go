package store

import (
	"context"
	"sync"
	"time"

	"github.com/chaintalk/chaintalk/ports"
)

// MemoryStore is an in-memory implementation of the Store interface,
// intended for tests and single-instance development.
type MemoryStore struct {
	entries map[string]entry
	mu      sync.Mutex
}

type entry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry)}
}

var _ ports.Store = (*MemoryStore)(nil)

// Set stores a key with a value and expiration time.
func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Take removes the key and reports whether it was present and unexpired.
func (s *MemoryStore) Take(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	delete(s.entries, key)
	if time.Now().After(e.expiresAt) {
		return false, nil
	}
	return true, nil
}

// Expire forces a key to be treated as expired. Test helper.
func (s *MemoryStore) Expire(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.expiresAt = time.Now().Add(-time.Second)
		s.entries[key] = e
	}
}
