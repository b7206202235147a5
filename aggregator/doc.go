// Package aggregator is the public entry point for finance news and metal
// prices.
//
// # Overview
//
// A Service composes the single-flight coordinator and cache store from the
// cache package with one fallback chain per key family. Each lookup builds a
// cache key, asks the coordinator for a fresh entry, and on failure applies
// the policy of its domain.
//
//	store, _ := cache.NewStore(cache.DefaultConfig())
//	coord := cache.NewCoordinator(store)
//
//	svc := aggregator.New(coord,
//		aggregator.WithNewsChain(news.CategoryAll, allNews),
//		aggregator.WithSpotChain(metals.SymbolGold, goldSpot),
//		aggregator.WithRateChain(usdINR),
//	)
//
//	res := svc.GetFinanceNews(ctx, "stocks")
//	quote, err := svc.GetLiveGoldPrice(ctx)
//
// # Failure Policy
//
// News is a soft domain. GetFinanceNews, GetCategorizedNews and
// GetTopHeadlines never return an error: when every source fails they serve
// the last cached articles flagged stale, or an empty list.
//
// Live prices are a hard domain. A failed refresh serves the last cached
// quote with Stale set. When no quote was ever cached the caller gets an
// error with the HARD_FAILURE text code instead of a zero price. The USD/INR
// rate follows the same rule, and a quote priced with a stale rate is itself
// marked stale. A caller whose context ends before a result is ready gets the
// context error, not a hard failure.
//
// # Cache Keys
//
//   - get_finance_news::<category>
//   - get_live_price::<symbol>
//   - get_usdinr_rate::usd/inr
//
// Categories without a chain of their own are fetched from the "all" chain
// but cached under their own key.
//
// # Request IDs
//
// WithRequestID tags a context. The id is added to every log line of the
// lookup and to hard failure errors. A uuid is generated when none is set.
package aggregator
