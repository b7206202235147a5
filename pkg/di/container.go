package di

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-finance-cache/aggregator"
	"github.com/goliatone/go-finance-cache/cache"
	"github.com/goliatone/go-finance-cache/config"
	"github.com/goliatone/go-finance-cache/fallback"
	"github.com/goliatone/go-finance-cache/metals"
	"github.com/goliatone/go-finance-cache/news"
	"github.com/goliatone/go-finance-cache/provider"
)

// Container wires the store, the coordinator, the upstream client and one
// fallback chain per key family into an aggregator.Service. Every component
// is a singleton owned by the container.
type Container struct {
	config        *config.Config
	logger        *slog.Logger
	store         *cache.MemoryStore
	coordinator   *cache.Coordinator
	client        *provider.Client
	keySerializer cache.KeySerializer
	newsChains    map[string]*fallback.Chain[news.Article]
	spotChains    map[string]*fallback.Chain[metals.Spot]
	rateChain     *fallback.Chain[metals.Rate]
	service       *aggregator.Service
}

type containerOptions struct {
	logger     *slog.Logger
	httpClient *http.Client
	clock      cache.Clock
}

// Option customises container construction.
type Option func(*containerOptions)

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *containerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithHTTPClient sets the base client used for upstream calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *containerOptions) {
		o.httpClient = client
	}
}

// WithClock replaces the wall clock for the store, the service and the
// normalizers.
func WithClock(clock cache.Clock) Option {
	return func(o *containerOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// NewContainer validates cfg and builds the component graph from it.
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		defaults, err := config.Default()
		if err != nil {
			return nil, err
		}
		cfg = defaults
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := containerOptions{logger: slog.Default(), clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	store, err := cache.NewStore(StoreConfig(cfg.Cache), cache.WithClock(o.clock))
	if err != nil {
		return nil, err
	}

	c := &Container{
		config:        cfg,
		logger:        o.logger,
		store:         store,
		coordinator:   cache.NewCoordinator(store, cache.WithLogger(o.logger)),
		client:        provider.NewClient(cfg.HTTP.UserAgent, o.httpClient),
		keySerializer: cache.NewDefaultKeySerializer(),
		newsChains:    make(map[string]*fallback.Chain[news.Article]),
		spotChains:    make(map[string]*fallback.Chain[metals.Spot]),
	}

	chainOpts := []fallback.Option{
		fallback.WithLogger(o.logger),
		fallback.WithBudget(cfg.Chain.Budget),
	}

	settings := NewsSettings(cfg.News, o.clock)
	for category, catCfg := range cfg.News.Categories {
		category = news.NormalizeCategory(category)
		sources := news.Sources(c.client, category, settings, CategorySettings(catCfg))
		c.newsChains[category] = fallback.NewChain("news:"+category, sources, chainOpts...)
	}

	c.rateChain = fallback.NewChain("fx:"+strings.ToLower(cfg.Metals.FX.Pair),
		metals.RateSources(c.client, RateSettings(cfg.Metals.FX)), chainOpts...)

	for symbol, spotCfg := range map[string]config.SpotConfig{
		metals.SymbolGold:   cfg.Metals.Gold,
		metals.SymbolSilver: cfg.Metals.Silver,
	} {
		c.spotChains[symbol] = fallback.NewChain("spot:"+strings.ToLower(symbol),
			metals.SpotSources(c.client, SpotSettings(symbol, spotCfg)), chainOpts...)
	}

	serviceOpts := []aggregator.Option{
		aggregator.WithLogger(o.logger),
		aggregator.WithKeySerializer(c.keySerializer),
		aggregator.WithClock(o.clock),
		aggregator.WithTTLs(aggregator.TTLs{
			News:  cfg.News.TTL,
			Price: cfg.Metals.PriceTTL,
			FX:    cfg.Metals.FXTTL,
		}),
		aggregator.WithRateChain(c.rateChain),
	}
	for category, chain := range c.newsChains {
		serviceOpts = append(serviceOpts, aggregator.WithNewsChain(category, chain))
	}
	for symbol, chain := range c.spotChains {
		serviceOpts = append(serviceOpts, aggregator.WithSpotChain(symbol, chain))
	}
	c.service = aggregator.New(c.coordinator, serviceOpts...)

	return c, nil
}

// NewContainerWithDefaults builds a container from the embedded defaults.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	cfg, err := config.Default()
	if err != nil {
		return nil, err
	}
	return NewContainer(cfg, opts...)
}

// Service returns the aggregation facade.
func (c *Container) Service() *aggregator.Service {
	return c.service
}

// Store returns the shared cache store.
func (c *Container) Store() *cache.MemoryStore {
	return c.store
}

// Coordinator returns the single-flight coordinator.
func (c *Container) Coordinator() *cache.Coordinator {
	return c.coordinator
}

// Client returns the upstream HTTP client.
func (c *Container) Client() *provider.Client {
	return c.client
}

// KeySerializer returns the key serializer shared with the service.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the logger handed to the components.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// NewsChain returns the chain registered for category.
func (c *Container) NewsChain(category string) (*fallback.Chain[news.Article], bool) {
	chain, ok := c.newsChains[news.NormalizeCategory(category)]
	return chain, ok
}

// SpotChain returns the spot chain for a metal symbol.
func (c *Container) SpotChain(symbol string) (*fallback.Chain[metals.Spot], bool) {
	chain, ok := c.spotChains[strings.ToUpper(symbol)]
	return chain, ok
}

// RateChain returns the USD/INR chain.
func (c *Container) RateChain() *fallback.Chain[metals.Rate] {
	return c.rateChain
}

// NewsCategories lists the configured categories in name order.
func (c *Container) NewsCategories() []string {
	out := make([]string, 0, len(c.newsChains))
	for category := range c.newsChains {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// StoreConfig maps the cache section onto the store configuration.
func StoreConfig(cfg config.CacheConfig) cache.Config {
	return cache.Config{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		Retention:          cfg.Retention,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}

// NewsSettings maps the news section onto the settings shared by every
// news chain.
func NewsSettings(cfg config.NewsConfig, now cache.Clock) news.SourceSettings {
	return news.SourceSettings{
		API: news.APISettings{
			BaseURL:  cfg.API.BaseURL,
			Key:      cfg.API.APIKey,
			Country:  cfg.API.Country,
			Language: cfg.API.Language,
			PageSize: cfg.API.PageSize,
			Timeout:  cfg.API.Timeout,
		},
		FeedTimeout:       cfg.FeedTimeout,
		DescriptionLength: cfg.DescriptionLength,
		Now:               now,
	}
}

// CategorySettings maps one configured category.
func CategorySettings(cfg config.CategoryConfig) news.CategorySettings {
	feeds := make([]news.Feed, 0, len(cfg.Feeds))
	for _, feed := range cfg.Feeds {
		feeds = append(feeds, news.Feed{Name: feed.Name, URL: feed.URL})
	}
	return news.CategorySettings{
		Query:       cfg.Query,
		APICategory: cfg.APICategory,
		Feeds:       feeds,
	}
}

// RateSettings maps the FX section.
func RateSettings(cfg config.FXConfig) metals.RateSettings {
	return metals.RateSettings{
		Pair:      cfg.Pair,
		Endpoints: endpoints(cfg.Sources),
		Bounds:    metals.Bounds{Min: cfg.Bounds.Min, Max: cfg.Bounds.Max},
		Fallback:  cfg.Fallback,
	}
}

// SpotSettings maps the section of one metal.
func SpotSettings(symbol string, cfg config.SpotConfig) metals.SpotSettings {
	return metals.SpotSettings{
		Symbol:    symbol,
		Endpoints: endpoints(cfg.Sources),
		Bounds:    metals.Bounds{Min: cfg.Bounds.Min, Max: cfg.Bounds.Max},
	}
}

func endpoints(sources []config.EndpointConfig) []metals.Endpoint {
	out := make([]metals.Endpoint, 0, len(sources))
	for _, src := range sources {
		// units are checked by config validation
		unit, err := metals.ParseUnit(src.Unit)
		if err != nil {
			unit = metals.UnitOunce
		}
		out = append(out, metals.Endpoint{
			Name:    src.Name,
			URL:     src.URL,
			Query:   src.Query,
			Path:    src.Path,
			Unit:    unit,
			Timeout: src.Timeout,
		})
	}
	return out
}
