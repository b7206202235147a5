// Package fallback runs an ordered chain of alternative upstream sources and
// returns the records of the first one that produces any.
//
// A Source pairs a fetch function with the normalizer for that upstream's
// payload shape. Normalizers validate each candidate record on its own: bad
// records are rejected into Batch.Rejected and never abort the batch. A source
// counts as failed when its fetch errors, its payload cannot be parsed, or
// its batch ends up empty. The chain logs the failure and moves on.
//
// Ordering is first-success-wins, not best-of-all: sources should be declared
// from most to least preferred. When every source fails, Run returns an error
// for which errors.Is(err, failure.ErrChainExhausted) holds, leaving the
// caller to decide between empty results, stale data or a hard error.
//
// Each source carries its own timeout. A chain has no overall deadline unless
// WithBudget is set, so a fully exhausted chain can take the sum of its
// source timeouts.
package fallback
