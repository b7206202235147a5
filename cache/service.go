package cache

import (
	"context"
	"time"
)

// KeySerializer builds a cache key from a method name + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// Clock returns the current time. Stores take one so freshness can be tested
// without sleeping.
type Clock func() time.Time

// Entry is a cached payload and the time it was fetched.
// Stale is never stored; it is set on copies served as a last resort.
type Entry struct {
	Key       string
	Payload   any
	FetchedAt time.Time
	Stale     bool
}

// Age reports how old the entry is relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// Store keeps one Entry per key. Freshness is decided by the caller's TTL,
// so a single store can hold keys with different freshness requirements.
type Store interface {
	Get(key string) (Entry, bool)
	Put(key string, payload any) Entry
	IsFresh(entry Entry, ttl time.Duration) bool
	Clear()
	Len() int
}

// ComputeFn produces the payload for a key on cache miss.
type ComputeFn func(ctx context.Context) (any, error)

// FetchFn is the typed form of ComputeFn.
type FetchFn[T any] func(ctx context.Context) (T, error)

// GetOrCompute is a type-safe wrapper around Coordinator.GetOrCompute.
func GetOrCompute[T any](ctx context.Context, c *Coordinator, key string, ttl time.Duration, fetchFn FetchFn[T]) (T, Entry, error) {
	entry, err := c.GetOrCompute(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return fetchFn(ctx)
	})
	if err != nil {
		var zero T
		return zero, entry, err
	}
	value, _ := entry.Payload.(T)
	return value, entry, nil
}

// Lookup returns the typed payload stored under key, fresh or not.
func Lookup[T any](s Store, key string) (T, Entry, bool) {
	entry, ok := s.Get(key)
	if !ok {
		var zero T
		return zero, Entry{}, false
	}
	value, ok := entry.Payload.(T)
	return value, entry, ok
}
