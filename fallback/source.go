package fallback

import (
	"context"
	"time"
)

// Batch is what a normalizer produces from one raw payload: the records that
// passed validation and one error per record that did not.
type Batch[T any] struct {
	Records  []T
	Rejected []error
}

// Len reports the number of accepted records.
func (b Batch[T]) Len() int {
	return len(b.Records)
}

// Reject appends a rejection for a single record.
func (b *Batch[T]) Reject(err error) {
	if err != nil {
		b.Rejected = append(b.Rejected, err)
	}
}

// Accept appends a valid record.
func (b *Batch[T]) Accept(record T) {
	b.Records = append(b.Records, record)
}

// Source is one upstream provider in a chain. Implementations are immutable
// once built.
type Source[T any] interface {
	Name() string
	Priority() int
	Timeout() time.Duration
	Load(ctx context.Context) (Batch[T], error)
}

// SourceConfig describes where a source sits in a chain.
type SourceConfig struct {
	Name string
	// Priority orders sources ascending; ties keep declaration order.
	Priority int
	// Timeout bounds a single Load. Zero means no per-source timeout.
	Timeout time.Duration
}

// FetchFunc retrieves a raw payload from an upstream.
type FetchFunc[R any] func(ctx context.Context) (R, error)

// NormalizeFunc turns a raw payload into validated records. It returns an
// error only when the payload as a whole cannot be parsed; individual bad
// records go into Batch.Rejected.
type NormalizeFunc[R, T any] func(raw R) (Batch[T], error)

type descriptor[R, T any] struct {
	cfg       SourceConfig
	fetch     FetchFunc[R]
	normalize NormalizeFunc[R, T]
}

// NewSource binds a fetch function and the normalizer for its payload shape
// into a Source. The raw type R stays private to the source so a chain can
// mix REST, feed and constant sources.
func NewSource[R, T any](cfg SourceConfig, fetch FetchFunc[R], normalize NormalizeFunc[R, T]) Source[T] {
	return &descriptor[R, T]{cfg: cfg, fetch: fetch, normalize: normalize}
}

func (d *descriptor[R, T]) Name() string           { return d.cfg.Name }
func (d *descriptor[R, T]) Priority() int          { return d.cfg.Priority }
func (d *descriptor[R, T]) Timeout() time.Duration { return d.cfg.Timeout }

// Load fetches and normalizes within the source timeout.
func (d *descriptor[R, T]) Load(ctx context.Context) (Batch[T], error) {
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	raw, err := d.fetch(ctx)
	if err != nil {
		return Batch[T]{}, err
	}
	return d.normalize(raw)
}

// Static builds a source that always yields records. It is meant as the
// last entry of a chain, e.g. a hardcoded FX rate.
func Static[T any](cfg SourceConfig, records ...T) Source[T] {
	fixed := append([]T(nil), records...)
	return NewSource[[]T, T](cfg,
		func(context.Context) ([]T, error) { return fixed, nil },
		func(raw []T) (Batch[T], error) { return Batch[T]{Records: append([]T(nil), raw...)}, nil },
	)
}
