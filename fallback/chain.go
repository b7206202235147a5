package fallback

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-finance-cache/pkg/failure"
)

// Attempt records what happened when a chain tried one source.
type Attempt struct {
	Source   string
	Priority int
	Records  int
	Rejected int
	Elapsed  time.Duration
	Err      error
}

// Result is the outcome of a successful run: the records of the first source
// that produced any, and the attempts made to get there.
type Result[T any] struct {
	Records  []T
	Source   string
	RunID    string
	Attempts []Attempt
}

type options struct {
	logger *slog.Logger
	budget time.Duration
}

// Option configures a Chain.
type Option func(*options)

// WithLogger sets the chain logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBudget caps the total time a run may spend across all sources.
// Zero, the default, leaves only the per-source timeouts in place.
func WithBudget(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.budget = d
		}
	}
}

// Chain tries sources in ascending priority until one yields records.
type Chain[T any] struct {
	name    string
	sources []Source[T]
	opts    options
}

// NewChain orders sources once by priority, keeping declaration order for ties.
func NewChain[T any](name string, sources []Source[T], opts ...Option) *Chain[T] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	ordered := slices.Clone(sources)
	slices.SortStableFunc(ordered, func(a, b Source[T]) int {
		return a.Priority() - b.Priority()
	})

	return &Chain[T]{name: name, sources: ordered, opts: o}
}

// Name returns the chain name used in logs and errors.
func (c *Chain[T]) Name() string {
	return c.name
}

// Sources returns the sources in run order.
func (c *Chain[T]) Sources() []Source[T] {
	return slices.Clone(c.sources)
}

// Run walks the chain. The first source whose normalized batch is non-empty
// wins and later sources are not called. Source failures are logged and
// skipped. When no source yields records Run returns an error wrapping
// failure.ErrChainExhausted.
func (c *Chain[T]) Run(ctx context.Context) (Result[T], error) {
	runID := uuid.NewString()
	logger := c.opts.logger.With(slog.String("chain", c.name), slog.String("run_id", runID))

	if c.opts.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.budget)
		defer cancel()
	}

	result := Result[T]{RunID: runID}
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			logger.Warn("chain stopped before trying every source",
				slog.String("next_source", src.Name()),
				slog.String("error", err.Error()),
			)
			break
		}

		start := time.Now()
		batch, err := load(ctx, src)
		attempt := Attempt{
			Source:   src.Name(),
			Priority: src.Priority(),
			Records:  len(batch.Records),
			Rejected: len(batch.Rejected),
			Elapsed:  time.Since(start),
		}

		if len(batch.Rejected) > 0 {
			logger.Debug("records rejected",
				slog.String("source", src.Name()),
				slog.Int("count", len(batch.Rejected)),
				slog.String("first", batch.Rejected[0].Error()),
			)
		}

		if err != nil || len(batch.Records) == 0 {
			attempt.Err = failure.SourceUnavailable(src.Name(), err)
			result.Attempts = append(result.Attempts, attempt)
			failure.Log(logger, attempt.Err)
			continue
		}

		result.Attempts = append(result.Attempts, attempt)
		result.Records = batch.Records
		result.Source = src.Name()
		logger.Debug("source succeeded",
			slog.String("source", src.Name()),
			slog.Int("records", len(batch.Records)),
			slog.Duration("elapsed", attempt.Elapsed),
		)
		return result, nil
	}

	return result, failure.ChainExhausted(c.name, len(result.Attempts))
}

// load calls src and reports a panic as a source error.
func load[T any](ctx context.Context, src Source[T]) (batch Batch[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			batch = Batch[T]{}
			err = fmt.Errorf("source %s panicked: %v", src.Name(), r)
		}
	}()
	return src.Load(ctx)
}

// Run is a shorthand for running an unnamed chain once.
func Run[T any](ctx context.Context, sources ...Source[T]) (Result[T], error) {
	return NewChain("anonymous", sources).Run(ctx)
}
