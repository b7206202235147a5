package aggregator

import (
	"time"

	"github.com/goliatone/go-finance-cache/cache"
	"github.com/goliatone/go-finance-cache/pkg/failure"
)

// Policy decides what a caller gets when a key cannot be computed.
type Policy int

const (
	// Soft domains fall back to cached data, then to the zero value. They
	// never return an error.
	Soft Policy = iota
	// Hard domains fall back to cached data, then fail with a hard failure.
	Hard
)

func (p Policy) String() string {
	if p == Hard {
		return "hard"
	}
	return "soft"
}

// resolve applies p after a failed computation for key. Any cached entry,
// however old, is returned and flagged stale unless still within ttl.
func resolve[T any](store cache.Store, key string, ttl time.Duration, p Policy, cause error) (T, cache.Entry, error) {
	if value, entry, ok := cache.Lookup[T](store, key); ok {
		entry.Stale = !store.IsFresh(entry, ttl)
		return value, entry, nil
	}

	var zero T
	if p == Soft {
		return zero, cache.Entry{Key: key}, nil
	}
	return zero, cache.Entry{Key: key}, failure.HardFailure(key, cause)
}
