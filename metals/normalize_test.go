package metals

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-finance-cache/pkg/failure"
	"github.com/goliatone/go-finance-cache/pkg/testsupport"
)

func TestNormalizeRate(t *testing.T) {
	raw := testsupport.LoadFixture(t, testsupport.FixturePath("fx_open.json"))

	batch, err := NormalizeRate(PairUSDINR, "$.rates.INR", USDINRBounds)(raw)
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, PairUSDINR, batch.Records[0].Pair)
	assert.True(t, decimal.RequireFromString("82.91").Equal(batch.Records[0].Value))
}

func TestNormalizeRate_OutOfBoundsIsRejected(t *testing.T) {
	raw := testsupport.LoadFixture(t, testsupport.FixturePath("fx_broken.json"))

	batch, err := NormalizeRate(PairUSDINR, "$.rates.INR", USDINRBounds)(raw)
	require.NoError(t, err)
	assert.Empty(t, batch.Records)
	require.Len(t, batch.Rejected, 1)
	assert.True(t, failure.Is(batch.Rejected[0], failure.TextCodeRecordInvalid))
}

func TestNormalizeRate_Values(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		path    string
		want    string
		wantErr bool
		reject  bool
	}{
		{name: "number", raw: `{"rate":83.1}`, path: "$.rate", want: "83.1"},
		{name: "numeric string", raw: `{"rate":" 83.40 "}`, path: "$.rate", want: "83.4"},
		{name: "list of one", raw: `{"quotes":[{"v":84.2},{"v":85}]}`, path: "$.quotes[0:1].v", want: "84.2"},
		{name: "lower bound inclusive", raw: `{"rate":70}`, path: "$.rate", want: "70"},
		{name: "upper bound inclusive", raw: `{"rate":100}`, path: "$.rate", want: "100"},
		{name: "below bound", raw: `{"rate":69.99}`, path: "$.rate", reject: true},
		{name: "zero", raw: `{"rate":0}`, path: "$.rate", reject: true},
		{name: "negative", raw: `{"rate":-83}`, path: "$.rate", reject: true},
		{name: "missing path", raw: `{"other":1}`, path: "$.rate", wantErr: true},
		{name: "not a number", raw: `{"rate":"n/a"}`, path: "$.rate", wantErr: true},
		{name: "object", raw: `{"rate":{"v":1}}`, path: "$.rate", wantErr: true},
		{name: "empty list", raw: `{"quotes":[]}`, path: "$.quotes[*].v", wantErr: true},
		{name: "not json", raw: `<error/>`, path: "$.rate", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := NormalizeRate(PairUSDINR, tt.path, USDINRBounds)([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, batch.Records)
				return
			}
			require.NoError(t, err)
			if tt.reject {
				assert.Empty(t, batch.Records)
				assert.Len(t, batch.Rejected, 1)
				return
			}
			require.Len(t, batch.Records, 1)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(batch.Records[0].Value),
				"got %s want %s", batch.Records[0].Value, tt.want)
		})
	}
}

func TestNormalizeSpot_Ounce(t *testing.T) {
	raw := testsupport.LoadFixture(t, testsupport.FixturePath("gold_spot.json"))

	batch, err := NormalizeSpot(SymbolGold, "$.price", UnitOunce, GoldBounds)(raw)
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, SymbolGold, batch.Records[0].Symbol)
	assert.True(t, decimal.NewFromInt(2000).Equal(batch.Records[0].USDPerOunce))
}

func TestNormalizeSpot_GramConvertedToOunce(t *testing.T) {
	raw := testsupport.LoadFixture(t, testsupport.FixturePath("silver_series.json"))

	batch, err := NormalizeSpot(SymbolSilver, "$.series[-1:].price", UnitGram, SilverBounds)(raw)
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	assert.True(t, decimal.RequireFromString("24.385144").Equal(batch.Records[0].USDPerOunce),
		"got %s", batch.Records[0].USDPerOunce)
}

func TestNormalizeSpot_BoundsAppliedAfterConversion(t *testing.T) {
	// 2000 per gram is far above any plausible per ounce gold price
	batch, err := NormalizeSpot(SymbolGold, "$.price", UnitGram, GoldBounds)([]byte(`{"price":2000}`))
	require.NoError(t, err)
	assert.Empty(t, batch.Records)
	assert.Len(t, batch.Rejected, 1)
}

func TestBounds_OpenUpperSide(t *testing.T) {
	b := Bounds{Min: 1}
	assert.NoError(t, b.Check(decimal.NewFromInt(1_000_000)))
	assert.Error(t, b.Check(decimal.RequireFromString("0.5")))
}

func TestParseUnit(t *testing.T) {
	for in, want := range map[string]Unit{"": UnitOunce, "oz": UnitOunce, " Gram ": UnitGram, "g": UnitGram} {
		got, err := ParseUnit(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", in)
	}

	_, err := ParseUnit("tola")
	assert.Error(t, err)
}
