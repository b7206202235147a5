package metals

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-finance-cache/fallback"
	"github.com/goliatone/go-finance-cache/pkg/failure"
	"github.com/goliatone/go-finance-cache/pkg/testsupport"
	"github.com/goliatone/go-finance-cache/provider"
)

func TestRateSources_OutOfBoundsFallsThrough(t *testing.T) {
	server := testsupport.NewFixtureServer(t, map[string]testsupport.Route{
		"/broken": {Body: testsupport.LoadFixture(t, testsupport.FixturePath("fx_broken.json"))},
		"/open":   {Body: testsupport.LoadFixture(t, testsupport.FixturePath("fx_open.json"))},
	})

	sources := RateSources(provider.NewClient("", nil), RateSettings{
		Endpoints: []Endpoint{
			{Name: "broken", URL: server.URLFor("/broken"), Path: "$.rates.INR", Timeout: time.Second},
			{Name: "open", URL: server.URLFor("/open"), Path: "$.rates.INR", Timeout: time.Second},
		},
		Bounds:   USDINRBounds,
		Fallback: 83,
	})
	require.Len(t, sources, 3)

	result, err := fallback.NewChain("fx", sources).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "fx:open", result.Source)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "fx:open", result.Records[0].Source)
	assert.Equal(t, PairUSDINR, result.Records[0].Pair)
	assert.True(t, decimal.RequireFromString("82.91").Equal(result.Records[0].Value))
	assert.True(t, failure.Is(result.Attempts[0].Err, failure.TextCodeSourceUnavailable))
}

func TestRateSources_ConstantFallback(t *testing.T) {
	server := testsupport.NewFixtureServer(t, map[string]testsupport.Route{
		"/down": {Status: http.StatusBadGateway},
	})

	sources := RateSources(provider.NewClient("", nil), RateSettings{
		Pair:      PairUSDINR,
		Endpoints: []Endpoint{{URL: server.URLFor("/down"), Path: "$.rates.INR"}},
		Bounds:    USDINRBounds,
		Fallback:  83.5,
	})

	result, err := fallback.NewChain("fx", sources).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fx:constant", result.Source)
	assert.True(t, decimal.RequireFromString("83.5").Equal(result.Records[0].Value))
}

func TestRateSources_NoFallbackExhausts(t *testing.T) {
	sources := RateSources(provider.NewClient("", nil), RateSettings{
		Endpoints: []Endpoint{{Name: "blank"}},
		Bounds:    USDINRBounds,
	})
	assert.Empty(t, sources)

	_, err := fallback.NewChain("fx", sources).Run(context.Background())
	assert.ErrorIs(t, err, failure.ErrChainExhausted)
}

func TestSpotSources(t *testing.T) {
	server := testsupport.NewFixtureServer(t, map[string]testsupport.Route{
		"/price/XAG": {Body: []byte(`{"error":"symbol not supported"}`)},
		"/series":    {Body: testsupport.LoadFixture(t, testsupport.FixturePath("silver_series.json"))},
	})

	sources := SpotSources(provider.NewClient("", nil), SpotSettings{
		Symbol: SymbolSilver,
		Endpoints: []Endpoint{
			{Name: "gold-api", URL: server.URLFor("/price/XAG"), Path: "$.price"},
			{URL: server.URLFor("/series"), Query: map[string]string{"metal": "silver"}, Path: "$.series[-1:].price", Unit: UnitGram},
		},
		Bounds: SilverBounds,
	})
	require.Len(t, sources, 2)
	assert.Equal(t, "xag:gold-api", sources[0].Name())

	result, err := fallback.NewChain("silver", sources).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, SymbolSilver, result.Records[0].Symbol)
	assert.Contains(t, result.Records[0].Source, "xag:127.0.0.1")
	assert.Equal(t, 1, server.Hits("/series"))
}
