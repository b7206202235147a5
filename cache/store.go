package cache

import (
	"time"
)

// entryBackend is the storage a MemoryStore writes through to.
// cacheinfra's sturdyc backend satisfies it.
type entryBackend interface {
	Get(key string) (Entry, bool)
	Set(key string, value Entry)
	Clear() int
	Len() int
}

// MemoryStore is the process-local Store. Entries are replaced whole and
// live until Clear or until the backend retention window evicts them.
type MemoryStore struct {
	backend entryBackend
	now     Clock
}

// StoreOption customises a MemoryStore.
type StoreOption func(*MemoryStore)

// WithClock sets the clock used for FetchedAt and freshness checks.
func WithClock(clock Clock) StoreOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

func newMemoryStore(backend entryBackend, opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the entry for key. It has no side effects.
func (s *MemoryStore) Get(key string) (Entry, bool) {
	return s.backend.Get(key)
}

// Put replaces the entry for key with a fresh one fetched now.
func (s *MemoryStore) Put(key string, payload any) Entry {
	entry := Entry{
		Key:       key,
		Payload:   payload,
		FetchedAt: s.now(),
	}
	s.backend.Set(key, entry)
	return entry
}

// IsFresh reports whether entry is younger than ttl.
func (s *MemoryStore) IsFresh(entry Entry, ttl time.Duration) bool {
	return s.now().Sub(entry.FetchedAt) < ttl
}

// Clear empties the store.
func (s *MemoryStore) Clear() {
	s.backend.Clear()
}

// Len reports the number of stored entries.
func (s *MemoryStore) Len() int {
	return s.backend.Len()
}

// Now exposes the store clock.
func (s *MemoryStore) Now() time.Time {
	return s.now()
}
