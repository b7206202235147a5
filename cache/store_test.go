package cache

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, clock *fakeClock) *MemoryStore {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Capacity = 128
	cfg.NumShards = 4

	store, err := NewStore(cfg, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	return store
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got %v", err)
	}
	if cfg.Retention != 24*time.Hour {
		t.Errorf("expected retention of 24h, got %v", cfg.Retention)
	}
}

func TestNewStore_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retention = 0

	if _, err := NewStore(cfg); err == nil {
		t.Fatal("expected error for zero retention")
	}
}

func TestMemoryStore_PutGet(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, clock)

	if _, ok := store.Get("news::all"); ok {
		t.Fatal("expected empty store")
	}

	entry := store.Put("news::all", []string{"a", "b"})
	if entry.Key != "news::all" {
		t.Errorf("expected key news::all, got %q", entry.Key)
	}
	if !entry.FetchedAt.Equal(clock.Now()) {
		t.Errorf("expected fetchedAt %v, got %v", clock.Now(), entry.FetchedAt)
	}
	if entry.Stale {
		t.Error("expected a freshly put entry not to be stale")
	}

	got, ok := store.Get("news::all")
	if !ok {
		t.Fatal("expected entry to be present")
	}
	if payload := got.Payload.([]string); len(payload) != 2 {
		t.Errorf("expected 2 items, got %v", payload)
	}
}

func TestMemoryStore_PutReplacesWholeEntry(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, clock)

	store.Put("k", "old")
	clock.Advance(time.Minute)
	store.Put("k", "new")

	got, _ := store.Get("k")
	if got.Payload != "new" {
		t.Errorf("expected new payload, got %v", got.Payload)
	}
	if !got.FetchedAt.Equal(clock.Now()) {
		t.Errorf("expected fetchedAt to move with the replacement")
	}
	if store.Len() != 1 {
		t.Errorf("expected one entry, got %d", store.Len())
	}
}

func TestMemoryStore_IsFresh(t *testing.T) {
	ttl := 15 * time.Second

	tests := []struct {
		name    string
		elapsed time.Duration
		fresh   bool
	}{
		{name: "just written", elapsed: 0, fresh: true},
		{name: "inside ttl", elapsed: ttl - time.Nanosecond, fresh: true},
		{name: "exactly ttl", elapsed: ttl, fresh: false},
		{name: "past ttl", elapsed: 2 * ttl, fresh: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			store := newTestStore(t, clock)

			entry := store.Put("metals::gold", 1)
			clock.Advance(tt.elapsed)

			if got := store.IsFresh(entry, ttl); got != tt.fresh {
				t.Errorf("expected fresh=%v after %v, got %v", tt.fresh, tt.elapsed, got)
			}
		})
	}
}

func TestMemoryStore_PerCallTTL(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, clock)

	entry := store.Put("k", 1)
	clock.Advance(time.Minute)

	if store.IsFresh(entry, 15*time.Second) {
		t.Error("expected entry to be stale for a 15s ttl")
	}
	if !store.IsFresh(entry, 5*time.Minute) {
		t.Error("expected entry to be fresh for a 5m ttl")
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, clock)

	store.Put("a", 1)
	store.Put("b", 2)
	store.Clear()

	if store.Len() != 0 {
		t.Errorf("expected empty store after Clear, got %d", store.Len())
	}
	if _, ok := store.Get("a"); ok {
		t.Error("expected a to be gone after Clear")
	}
}

func TestLookup(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, clock)
	store.Put("n", 42)

	v, entry, ok := Lookup[int](store, "n")
	if !ok || v != 42 || entry.Key != "n" {
		t.Errorf("expected typed lookup to return 42, got %v (ok=%v)", v, ok)
	}

	if _, _, ok := Lookup[string](store, "n"); ok {
		t.Error("expected type mismatch to report false")
	}
	if _, _, ok := Lookup[int](store, "missing"); ok {
		t.Error("expected missing key to report false")
	}
}
