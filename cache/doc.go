// Package cache provides the in-memory entry store and the single-flight
// coordinator used in front of slow upstream providers.
//
// # Overview
//
// The package exports three building blocks:
//
//   - Store / MemoryStore: one Entry{Payload, FetchedAt} per key, backed by a
//     sharded sturdyc client. Freshness is decided per call with a TTL.
//   - Coordinator: guarantees that at most one computation per key is in
//     flight. Concurrent callers wait for and share that computation.
//   - KeySerializer: builds stable, namespaced keys from a method name and
//     arguments.
//
// # Basic Usage
//
//	store, err := cache.NewStore(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	coord := cache.NewCoordinator(store, cache.WithLogger(logger))
//	keys := cache.NewDefaultKeySerializer()
//
//	quote, entry, err := cache.GetOrCompute(ctx, coord, keys.SerializeKey("LiveGoldPrice"), 15*time.Second,
//		func(ctx context.Context) (metals.Quote, error) {
//			return fetchGold(ctx)
//		})
//
// # Freshness and Retention
//
// The same store holds keys with different freshness needs (seconds for spot
// prices, minutes for news, an hour for FX rates), so the TTL is passed on
// every read and never stored on the entry. An entry is fresh while
// now - FetchedAt < ttl.
//
// Entries are not dropped when they stop being fresh. They stay in the
// backend for the configured Retention window so callers can still serve
// them, flagged stale, when every upstream fails.
//
// # Cancellation
//
// A computation started by the coordinator is detached from the caller's
// context. A caller whose context ends stops waiting and gets ctx.Err(); the
// computation keeps running and fills the store for the next caller.
//
// # Failures
//
// Failed computations are never cached and never block the key: the pending
// call is removed before waiters are released, so the next call starts over.
// What to do on failure (serve stale, return empty, raise) is left to the
// caller; see the aggregator package.
package cache
