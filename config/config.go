// Package config loads the fincache configuration: embedded defaults, an
// optional YAML file on top, then environment overrides.
package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/xdg"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

var jsonPathPrefix = regexp.MustCompile(`^\$`)

// EnvNewsAPIKey overrides news.api.api_key when set.
const EnvNewsAPIKey = "FINCACHE_NEWS_API_KEY"

type Config struct {
	Cache  CacheConfig  `yaml:"cache"`
	HTTP   HTTPConfig   `yaml:"http"`
	Chain  ChainConfig  `yaml:"chain"`
	News   NewsConfig   `yaml:"news"`
	Metals MetalsConfig `yaml:"metals"`
}

type CacheConfig struct {
	Capacity           int           `yaml:"capacity"`
	NumShards          int           `yaml:"num_shards"`
	Retention          time.Duration `yaml:"retention"`
	EvictionPercentage int           `yaml:"eviction_percentage"`
	EvictionInterval   time.Duration `yaml:"eviction_interval"`
}

type HTTPConfig struct {
	UserAgent string `yaml:"user_agent"`
}

type ChainConfig struct {
	Budget time.Duration `yaml:"budget"`
}

type NewsConfig struct {
	TTL               time.Duration             `yaml:"ttl"`
	DescriptionLength int                       `yaml:"description_length"`
	FeedTimeout       time.Duration             `yaml:"feed_timeout"`
	API               NewsAPIConfig             `yaml:"api"`
	Categories        map[string]CategoryConfig `yaml:"categories"`
}

type NewsAPIConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Country  string        `yaml:"country"`
	Language string        `yaml:"language"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
}

type CategoryConfig struct {
	Query       string       `yaml:"query,omitempty"`
	APICategory string       `yaml:"api_category,omitempty"`
	Feeds       []FeedConfig `yaml:"feeds"`
}

type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type MetalsConfig struct {
	PriceTTL time.Duration `yaml:"price_ttl"`
	FXTTL    time.Duration `yaml:"fx_ttl"`
	FX       FXConfig      `yaml:"fx"`
	Gold     SpotConfig    `yaml:"gold"`
	Silver   SpotConfig    `yaml:"silver"`
}

type FXConfig struct {
	Pair     string           `yaml:"pair"`
	Bounds   BoundsConfig     `yaml:"bounds"`
	Fallback float64          `yaml:"fallback"`
	Sources  []EndpointConfig `yaml:"sources"`
}

type SpotConfig struct {
	Bounds  BoundsConfig     `yaml:"bounds"`
	Sources []EndpointConfig `yaml:"sources"`
}

type BoundsConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// EndpointConfig is a JSON provider and the jsonpath of the number it quotes.
type EndpointConfig struct {
	Name    string            `yaml:"name"`
	URL     string            `yaml:"url"`
	Query   map[string]string `yaml:"query,omitempty"`
	Path    string            `yaml:"path"`
	Unit    string            `yaml:"unit,omitempty"`
	Timeout time.Duration     `yaml:"timeout"`
}

// DefaultPath is the user config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "fincache", "config.yaml")
}

// DefaultYAML returns the embedded default configuration document.
func DefaultYAML() []byte {
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return data
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(DefaultYAML(), &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the defaults, applies the file at path, then the environment.
// An empty path means DefaultPath, which may be missing. An explicit path
// must exist.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteDefaults writes the embedded defaults to path unless a file exists.
func WriteDefaults(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, DefaultYAML(), 0o644)
}

func (c *Config) applyEnv() {
	if key := strings.TrimSpace(os.Getenv(EnvNewsAPIKey)); key != "" {
		c.News.API.APIKey = key
	}
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.News.API.APIKey != "" {
		c.News.API.APIKey = "********"
	}
	return c
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Cache),
		validation.Field(&c.Chain),
		validation.Field(&c.News),
		validation.Field(&c.Metals),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid configuration")
	}
	return nil
}

func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1), validation.Max(c.Capacity)),
		validation.Field(&c.Retention, validation.Required),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0))),
	)
}

func (c ChainConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Budget, validation.Min(time.Duration(0))),
	)
}

func (c NewsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TTL, validation.Required),
		validation.Field(&c.DescriptionLength, validation.Min(0)),
		validation.Field(&c.FeedTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.API),
		validation.Field(&c.Categories, validation.Required),
	)
}

func (c NewsAPIConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, is.URL),
		validation.Field(&c.PageSize, validation.Min(0), validation.Max(100)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

func (c CategoryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Feeds),
	)
}

func (f FeedConfig) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.URL, validation.Required, is.URL),
	)
}

func (c MetalsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PriceTTL, validation.Required),
		validation.Field(&c.FXTTL, validation.Required),
		validation.Field(&c.FX),
		validation.Field(&c.Gold),
		validation.Field(&c.Silver),
	)
}

func (c FXConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Bounds),
		validation.Field(&c.Fallback, validation.Min(0.0)),
		validation.Field(&c.Sources),
	)
}

func (c SpotConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Bounds),
		validation.Field(&c.Sources),
	)
}

func (b BoundsConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Min, validation.Min(0.0)),
		validation.Field(&b.Max, validation.When(b.Max != 0, validation.Min(b.Min))),
	)
}

func (e EndpointConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.URL, validation.Required, is.URL),
		validation.Field(&e.Path, validation.Required, validation.Match(jsonPathPrefix)),
		validation.Field(&e.Unit, validation.In("ounce", "oz", "troy_ounce", "gram", "g")),
		validation.Field(&e.Timeout, validation.Min(time.Duration(0))),
	)
}
