package otp

import (
	"context"
	"sync"
	"time"
)

// CacheStore is the TTL-evicting keyed store backing the reset-code hedge.
// The persisted actor record stays the source of truth; this store only
// covers read lag between issue and verify.
type CacheStore interface {
	Put(ctx context.Context, key, code string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is an in-process CacheStore. Expiry is checked on read; a
// single mutex keeps writes for the same key serialized.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Put stores or overwrites the code for key.
func (s *MemoryStore) Put(ctx context.Context, key, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{code: code, expiresAt: s.now().Add(ttl)}
	return nil
}

// Get returns the live code for key, evicting it lazily if expired.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return "", false, nil
	}
	return entry.code, true, nil
}

// Delete removes the entry for key, if any.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
