package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// call is the in-flight computation for one key. done is closed once entry
// and err are final.
type call struct {
	done  chan struct{}
	entry Entry
	err   error
}

// Coordinator makes sure that, for any key, at most one computation is in
// flight. Concurrent callers for the same key share that computation's result.
type Coordinator struct {
	store   Store
	pending *xsync.MapOf[string, *call]
	logger  *slog.Logger
}

// CoordinatorOption customises a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCoordinator creates a Coordinator writing results into store.
func NewCoordinator(store Store, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:   store,
		pending: xsync.NewMapOf[string, *call](),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the store results are written into.
func (c *Coordinator) Store() Store {
	return c.store
}

// Pending reports the number of keys with a computation in flight.
func (c *Coordinator) Pending() int {
	return c.pending.Size()
}

// GetOrCompute returns the fresh entry for key, or joins the computation in
// flight for key, or starts one.
//
// The computation runs detached from ctx: if the caller gives up, waiting
// stops but the computation keeps going and fills the store for the next
// caller. Failed computations are not cached; the error is returned to every
// waiting caller and the next call starts over.
func (c *Coordinator) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFn) (Entry, error) {
	if entry, ok := c.store.Get(key); ok && c.store.IsFresh(entry, ttl) {
		return entry, nil
	}

	cl, loaded := c.pending.LoadOrCompute(key, func() *call {
		return &call{done: make(chan struct{})}
	})
	if !loaded {
		go c.run(context.WithoutCancel(ctx), key, ttl, cl, compute)
	} else {
		c.logger.Debug("joining in-flight computation", slog.String("key", key))
	}

	select {
	case <-cl.done:
		return cl.entry, cl.err
	case <-ctx.Done():
		return Entry{}, ctx.Err()
	}
}

func (c *Coordinator) run(ctx context.Context, key string, ttl time.Duration, cl *call, compute ComputeFn) {
	defer func() {
		if r := recover(); r != nil {
			cl.err = fmt.Errorf("compute %s panicked: %v", key, r)
			c.logger.Error("computation panicked", slog.String("key", key), slog.Any("panic", r))
		}
		c.pending.Delete(key)
		close(cl.done)
	}()

	// a computation that settled between the caller's check and this
	// registration already wrote a fresh entry
	if entry, ok := c.store.Get(key); ok && c.store.IsFresh(entry, ttl) {
		cl.entry = entry
		return
	}

	start := time.Now()
	payload, err := compute(ctx)
	if err != nil {
		cl.err = err
		c.logger.Debug("computation failed",
			slog.String("key", key),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return
	}

	cl.entry = c.store.Put(key, payload)
	c.logger.Debug("computation stored",
		slog.String("key", key),
		slog.Duration("elapsed", time.Since(start)),
	)
}
