package cache

import (
	"time"

	"github.com/goliatone/go-finance-cache/internal/cacheinfra"
)

// Config exposes store configuration options for consumers of the cache package.
type Config struct {
	Capacity           int
	NumShards          int
	Retention          time.Duration
	EvictionPercentage int
	EvictionInterval   time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// NewStore constructs the default sturdyc backed Store.
func NewStore(cfg Config, opts ...StoreOption) (*MemoryStore, error) {
	backend, err := cacheinfra.NewSturdycBackend[Entry](cfg.toInternal())
	if err != nil {
		return nil, err
	}
	return newMemoryStore(backend, opts...), nil
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		Retention:          c.Retention,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		Retention:          cfg.Retention,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}
