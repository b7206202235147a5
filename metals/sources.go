package metals

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-finance-cache/fallback"
)

// Getter fetches a URL. provider.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, rawURL string, query url.Values) ([]byte, error)
}

// Endpoint is one JSON provider and where its number lives.
type Endpoint struct {
	Name    string
	URL     string
	Query   map[string]string
	Path    string
	Unit    Unit
	Timeout time.Duration
}

func (e Endpoint) values() url.Values {
	if len(e.Query) == 0 {
		return nil
	}
	q := make(url.Values, len(e.Query))
	for k, v := range e.Query {
		q.Set(k, v)
	}
	return q
}

// RateSettings describe the FX chain. Fallback, when positive, is appended as
// the lowest priority source so the chain cannot exhaust.
type RateSettings struct {
	Pair      string
	Endpoints []Endpoint
	Bounds    Bounds
	Fallback  float64
}

// SpotSettings describe the chain for one metal.
type SpotSettings struct {
	Symbol    string
	Endpoints []Endpoint
	Bounds    Bounds
}

// RateSources builds the FX chain sources in endpoint order.
func RateSources(client Getter, settings RateSettings) []fallback.Source[Rate] {
	pair := settings.Pair
	if pair == "" {
		pair = PairUSDINR
	}

	var sources []fallback.Source[Rate]
	for i, ep := range settings.Endpoints {
		if strings.TrimSpace(ep.URL) == "" {
			continue
		}
		name := "fx:" + endpointName(ep)
		normalize := NormalizeRate(pair, ep.Path, settings.Bounds)
		sources = append(sources, fallback.NewSource(
			fallback.SourceConfig{Name: name, Priority: i + 1, Timeout: ep.Timeout},
			fetcher(client, ep),
			func(raw []byte) (fallback.Batch[Rate], error) {
				batch, err := normalize(raw)
				for j := range batch.Records {
					batch.Records[j].Source = name
				}
				return batch, err
			},
		))
	}

	if settings.Fallback > 0 {
		name := "fx:constant"
		sources = append(sources, fallback.Static(
			fallback.SourceConfig{Name: name, Priority: len(settings.Endpoints) + 1},
			Rate{Pair: pair, Value: decimal.NewFromFloat(settings.Fallback), Source: name},
		))
	}

	return sources
}

// SpotSources builds the spot chain sources for one metal in endpoint order.
func SpotSources(client Getter, settings SpotSettings) []fallback.Source[Spot] {
	var sources []fallback.Source[Spot]
	for i, ep := range settings.Endpoints {
		if strings.TrimSpace(ep.URL) == "" {
			continue
		}
		name := strings.ToLower(settings.Symbol) + ":" + endpointName(ep)
		normalize := NormalizeSpot(settings.Symbol, ep.Path, ep.Unit, settings.Bounds)
		sources = append(sources, fallback.NewSource(
			fallback.SourceConfig{Name: name, Priority: i + 1, Timeout: ep.Timeout},
			fetcher(client, ep),
			func(raw []byte) (fallback.Batch[Spot], error) {
				batch, err := normalize(raw)
				for j := range batch.Records {
					batch.Records[j].Source = name
				}
				return batch, err
			},
		))
	}
	return sources
}

func fetcher(client Getter, ep Endpoint) fallback.FetchFunc[[]byte] {
	target, query := ep.URL, ep.values()
	return func(ctx context.Context) ([]byte, error) {
		return client.Get(ctx, target, query)
	}
}

func endpointName(ep Endpoint) string {
	if name := strings.TrimSpace(ep.Name); name != "" {
		return name
	}
	if u, err := url.Parse(ep.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return ep.URL
}
