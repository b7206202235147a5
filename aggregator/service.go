package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-finance-cache/cache"
	"github.com/goliatone/go-finance-cache/fallback"
	"github.com/goliatone/go-finance-cache/metals"
	"github.com/goliatone/go-finance-cache/news"
	"github.com/goliatone/go-finance-cache/pkg/failure"
)

// DefaultHeadlineLimit is used when GetTopHeadlines gets a non-positive limit.
const DefaultHeadlineLimit = 10

// Runner runs a fallback chain. *fallback.Chain satisfies it.
type Runner[T any] interface {
	Name() string
	Run(ctx context.Context) (fallback.Result[T], error)
}

// Interface assertions
var (
	_ Runner[news.Article] = (*fallback.Chain[news.Article])(nil)
	_ Runner[metals.Spot]  = (*fallback.Chain[metals.Spot])(nil)
	_ Runner[metals.Rate]  = (*fallback.Chain[metals.Rate])(nil)
)

// TTLs are the freshness windows per domain.
type TTLs struct {
	News  time.Duration
	Price time.Duration
	FX    time.Duration
}

// DefaultTTLs returns five minutes for news, fifteen seconds for live prices
// and one hour for the FX rate.
func DefaultTTLs() TTLs {
	return TTLs{
		News:  5 * time.Minute,
		Price: 15 * time.Second,
		FX:    time.Hour,
	}
}

// NewsResult is what news callers get. Articles is never nil.
type NewsResult struct {
	Category  string         `json:"category"`
	Articles  []news.Article `json:"articles"`
	Source    string         `json:"source,omitempty"`
	FetchedAt time.Time      `json:"fetchedAt,omitzero"`
	Stale     bool           `json:"stale"`
}

// CategorizedNews holds one best-effort list per known category.
type CategorizedNews struct {
	All     []news.Article `json:"all"`
	Stocks  []news.Article `json:"stocks"`
	Crypto  []news.Article `json:"crypto"`
	Economy []news.Article `json:"economy"`
}

// MetalPrices holds independent gold and silver quotes; either may be nil.
type MetalPrices struct {
	Gold   *metals.Quote `json:"gold"`
	Silver *metals.Quote `json:"silver"`
}

// newsBatch is the cached payload for a news category.
type newsBatch struct {
	Articles []news.Article
	Source   string
}

// Service is the entry point for news and price lookups. Every lookup goes
// through the coordinator, so concurrent callers for the same key share one
// chain run, and failures are resolved with the domain policy.
type Service struct {
	coord  *cache.Coordinator
	store  cache.Store
	keys   cache.KeySerializer
	ttl    TTLs
	logger *slog.Logger
	now    cache.Clock

	news  map[string]Runner[news.Article]
	spots map[string]Runner[metals.Spot]
	fx    Runner[metals.Rate]
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithKeySerializer replaces the default cache key builder.
func WithKeySerializer(keys cache.KeySerializer) Option {
	return func(s *Service) {
		if keys != nil {
			s.keys = keys
		}
	}
}

// WithTTLs overrides the freshness windows. Zero fields keep their default.
func WithTTLs(ttl TTLs) Option {
	return func(s *Service) {
		if ttl.News > 0 {
			s.ttl.News = ttl.News
		}
		if ttl.Price > 0 {
			s.ttl.Price = ttl.Price
		}
		if ttl.FX > 0 {
			s.ttl.FX = ttl.FX
		}
	}
}

// WithClock sets the clock used to stamp quotes.
func WithClock(clock cache.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithNewsChain registers the chain for a news category. The "all" chain also
// serves categories without a chain of their own.
func WithNewsChain(category string, runner Runner[news.Article]) Option {
	return func(s *Service) {
		if runner != nil {
			s.news[news.NormalizeCategory(category)] = runner
		}
	}
}

// WithSpotChain registers the spot price chain for a metal symbol.
func WithSpotChain(symbol string, runner Runner[metals.Spot]) Option {
	return func(s *Service) {
		if runner != nil {
			s.spots[strings.ToUpper(symbol)] = runner
		}
	}
}

// WithRateChain registers the USD/INR chain.
func WithRateChain(runner Runner[metals.Rate]) Option {
	return func(s *Service) {
		if runner != nil {
			s.fx = runner
		}
	}
}

// New creates a Service on top of coord and the store it writes to.
func New(coord *cache.Coordinator, opts ...Option) *Service {
	s := &Service{
		coord:  coord,
		store:  coord.Store(),
		keys:   cache.NewDefaultKeySerializer(),
		ttl:    DefaultTTLs(),
		logger: slog.Default(),
		now:    time.Now,
		news:   make(map[string]Runner[news.Article]),
		spots:  make(map[string]Runner[metals.Spot]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTLs returns the freshness windows in use.
func (s *Service) TTLs() TTLs {
	return s.ttl
}

// GetFinanceNews returns the articles for category, newest first. It never
// fails: when every source is down it serves the last cached articles marked
// stale, or an empty list when nothing was ever cached.
func (s *Service) GetFinanceNews(ctx context.Context, category string) NewsResult {
	ctx, reqID := ensureRequestID(ctx)
	category = news.NormalizeCategory(category)
	key := s.keys.SerializeKey("GetFinanceNews", category)
	logger := s.logger.With(slog.String("request_id", reqID), slog.String("key", key))

	batch, entry, err := cache.GetOrCompute(ctx, s.coord, key, s.ttl.News, func(ctx context.Context) (newsBatch, error) {
		return s.fetchNews(ctx, category)
	})
	if err != nil {
		failure.Log(logger, err)
		batch, entry, _ = resolve[newsBatch](s.store, key, s.ttl.News, Soft, err)
		if entry.Stale {
			logger.Warn("serving stale news",
				slog.Int("articles", len(batch.Articles)),
				slog.Duration("age", entry.Age(s.now())),
			)
		}
	}

	articles := slices.Clone(batch.Articles)
	if articles == nil {
		articles = []news.Article{}
	}
	return NewsResult{
		Category:  category,
		Articles:  articles,
		Source:    batch.Source,
		FetchedAt: entry.FetchedAt,
		Stale:     entry.Stale,
	}
}

func (s *Service) fetchNews(ctx context.Context, category string) (newsBatch, error) {
	runner, ok := s.news[category]
	if !ok {
		runner, ok = s.news[news.CategoryAll]
	}
	if !ok {
		return newsBatch{}, fmt.Errorf("no news sources configured for %s", category)
	}

	result, err := runner.Run(ctx)
	if err != nil {
		return newsBatch{}, err
	}

	articles := news.Dedupe(result.Records)
	news.SortNewest(articles)
	return newsBatch{Articles: articles, Source: result.Source}, nil
}

// GetCategorizedNews fetches every known category concurrently. A category
// whose chain is exhausted does not affect the others.
func (s *Service) GetCategorizedNews(ctx context.Context) CategorizedNews {
	ctx, _ = ensureRequestID(ctx)

	results := make([]NewsResult, len(news.Categories))
	var wg sync.WaitGroup
	for i, category := range news.Categories {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.GetFinanceNews(ctx, category)
		}()
	}
	wg.Wait()

	var out CategorizedNews
	for _, res := range results {
		switch res.Category {
		case news.CategoryAll:
			out.All = res.Articles
		case news.CategoryStocks:
			out.Stocks = res.Articles
		case news.CategoryCrypto:
			out.Crypto = res.Articles
		case news.CategoryEconomy:
			out.Economy = res.Articles
		}
	}
	return out
}

// GetTopHeadlines returns the newest articles across all categories.
func (s *Service) GetTopHeadlines(ctx context.Context, limit int) []news.Article {
	if limit <= 0 {
		limit = DefaultHeadlineLimit
	}
	top := news.Top(s.GetFinanceNews(ctx, news.CategoryAll).Articles, limit)
	if top == nil {
		top = []news.Article{}
	}
	return top
}

// ClearNewsCache empties the whole store, prices included.
func (s *Service) ClearNewsCache() {
	before := s.store.Len()
	s.store.Clear()
	s.logger.Info("cache cleared", slog.Int("entries", before))
}

// GetLiveGoldPrice returns the gold quote in INR.
func (s *Service) GetLiveGoldPrice(ctx context.Context) (metals.Quote, error) {
	return s.livePrice(ctx, metals.SymbolGold)
}

// GetLiveSilverPrice returns the silver quote in INR.
func (s *Service) GetLiveSilverPrice(ctx context.Context) (metals.Quote, error) {
	return s.livePrice(ctx, metals.SymbolSilver)
}

// livePrice serves a fresh quote, or the last cached quote marked stale. With
// no quote cached at all it returns a hard failure rather than a made up price.
func (s *Service) livePrice(ctx context.Context, symbol string) (metals.Quote, error) {
	ctx, reqID := ensureRequestID(ctx)
	key := s.keys.SerializeKey("GetLivePrice", symbol)
	logger := s.logger.With(slog.String("request_id", reqID), slog.String("key", key))

	quote, _, err := cache.GetOrCompute(ctx, s.coord, key, s.ttl.Price, func(ctx context.Context) (metals.Quote, error) {
		return s.fetchQuote(ctx, symbol)
	})
	if err == nil {
		return quote, nil
	}
	if callerGone(ctx, err) {
		logger.Debug("caller stopped waiting for quote", slog.String("error", err.Error()))
		return metals.Quote{}, err
	}

	failure.Log(logger, err)
	quote, entry, err := resolve[metals.Quote](s.store, key, s.ttl.Price, Hard, err)
	if err != nil {
		err = withRequestID(err, reqID)
		failure.Log(logger, err)
		return metals.Quote{}, err
	}

	quote.Stale = quote.Stale || entry.Stale
	logger.Warn("serving stale quote", slog.Duration("age", entry.Age(s.now())))
	return quote, nil
}

func (s *Service) fetchQuote(ctx context.Context, symbol string) (metals.Quote, error) {
	runner, ok := s.spots[symbol]
	if !ok {
		return metals.Quote{}, fmt.Errorf("no spot sources configured for %s", symbol)
	}

	result, err := runner.Run(ctx)
	if err != nil {
		return metals.Quote{}, err
	}

	rate, err := s.GetUSDINRRate(ctx)
	if err != nil {
		return metals.Quote{}, err
	}

	return metals.NewQuote(result.Records[0], rate, s.now()), nil
}

// GetLiveMetalPrices fetches gold and silver concurrently. A side that fails
// is left nil.
func (s *Service) GetLiveMetalPrices(ctx context.Context) MetalPrices {
	ctx, _ = ensureRequestID(ctx)

	var (
		out MetalPrices
		wg  sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if q, err := s.GetLiveGoldPrice(ctx); err == nil {
			out.Gold = &q
		}
	}()
	go func() {
		defer wg.Done()
		if q, err := s.GetLiveSilverPrice(ctx); err == nil {
			out.Silver = &q
		}
	}()
	wg.Wait()

	return out
}

// GetUSDINRRate returns the USD/INR rate used to price metals. The rate is
// a hard domain value like the quotes built from it.
func (s *Service) GetUSDINRRate(ctx context.Context) (metals.Rate, error) {
	ctx, reqID := ensureRequestID(ctx)
	key := s.keys.SerializeKey("GetUSDINRRate", metals.PairUSDINR)
	logger := s.logger.With(slog.String("request_id", reqID), slog.String("key", key))

	rate, _, err := cache.GetOrCompute(ctx, s.coord, key, s.ttl.FX, func(ctx context.Context) (metals.Rate, error) {
		if s.fx == nil {
			return metals.Rate{}, errors.New("no fx sources configured")
		}
		result, err := s.fx.Run(ctx)
		if err != nil {
			return metals.Rate{}, err
		}
		return result.Records[0], nil
	})
	if err == nil {
		return rate, nil
	}
	if callerGone(ctx, err) {
		logger.Debug("caller stopped waiting for rate", slog.String("error", err.Error()))
		return metals.Rate{}, err
	}

	failure.Log(logger, err)
	rate, entry, err := resolve[metals.Rate](s.store, key, s.ttl.FX, Hard, err)
	if err != nil {
		return metals.Rate{}, withRequestID(err, reqID)
	}

	rate.Stale = entry.Stale
	logger.Warn("serving stale rate", slog.Duration("age", entry.Age(s.now())))
	return rate, nil
}

// callerGone reports whether err only says that ctx was cancelled or timed
// out while waiting, which is not an upstream failure.
func callerGone(ctx context.Context, err error) bool {
	ctxErr := ctx.Err()
	return ctxErr != nil && errors.Is(err, ctxErr)
}

func withRequestID(err error, id string) error {
	var rich *goerrors.Error
	if errors.As(err, &rich) {
		rich.WithRequestID(id)
	}
	return err
}
