package cacheinfra

import (
	"time"

	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc backed entry storage.
type Config struct {
	// Capacity defines the maximum number of entries that the backend can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of shards used for concurrent access.
	// Must be greater than 0. Default: 64
	NumShards int

	// Retention is how long an entry survives in the backend. It is not the
	// freshness window: freshness is decided per read by the caller. Retention
	// must be longer than the largest freshness TTL, otherwise entries vanish
	// before they can be served stale.
	Retention time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when a shard reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often expired entries are swept.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config sized for a handful of hot keys kept for a day.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          64,
		Retention:          24 * time.Hour,
		EvictionPercentage: 10,
		EvictionInterval:   0,
	}
}

// ToSturdycOptions converts the Config to sturdyc.Option slice.
// Capacity, NumShards, Retention and EvictionPercentage go straight to
// sturdyc.New and are not included here.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.NumShards > c.Capacity {
		return &ConfigError{Field: "NumShards", Message: "must not exceed Capacity"}
	}

	if c.Retention <= 0 {
		return &ConfigError{Field: "Retention", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// sturdycBackend stores whole values in a sharded sturdyc client.
// Every Set replaces the value for a key; readers see either the old or
// the new value.
type sturdycBackend[T any] struct {
	client *sturdyc.Client[T]
}

// NewSturdycBackend validates cfg and builds a sturdyc client for values of type T.
//
// Version compatibility note: this assumes the sturdyc v1.x API
// (New, Get, Set, Delete, ScanKeys, Size).
func NewSturdycBackend[T any](cfg Config) (*sturdycBackend[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[T](
		cfg.Capacity,
		cfg.NumShards,
		cfg.Retention,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &sturdycBackend[T]{client: client}, nil
}

// Get returns the value stored under key.
func (b *sturdycBackend[T]) Get(key string) (T, bool) {
	return b.client.Get(key)
}

// Set replaces the value stored under key.
func (b *sturdycBackend[T]) Set(key string, value T) {
	b.client.Set(key, value)
}

// Delete removes a single key.
func (b *sturdycBackend[T]) Delete(key string) {
	b.client.Delete(key)
}

// Keys lists every key currently held.
func (b *sturdycBackend[T]) Keys() []string {
	return b.client.ScanKeys()
}

// Clear deletes every key and reports how many were removed.
func (b *sturdycBackend[T]) Clear() int {
	keys := b.Keys()
	for _, key := range keys {
		b.Delete(key)
	}
	return len(keys)
}

// Len reports the number of stored entries.
func (b *sturdycBackend[T]) Len() int {
	return b.client.Size()
}
