package metals

import (
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Metal symbols and the currency pair quoted by the FX chain.
const (
	SymbolGold   = "XAU"
	SymbolSilver = "XAG"
	PairUSDINR   = "USD/INR"
	// CurrencyINR is the currency every Quote is expressed in.
	CurrencyINR = "INR"
)

// GramsPerTroyOunce converts troy ounce quotes to grams.
const GramsPerTroyOunce = 31.1035

var gramsPerOunce = decimal.RequireFromString("31.1035")

// Rate is a validated currency rate, e.g. how many INR one USD buys.
type Rate struct {
	Pair   string          `json:"pair"`
	Value  decimal.Decimal `json:"value"`
	Source string          `json:"source"`
	// Stale is set when the rate was served from cache after its TTL.
	Stale bool `json:"stale"`
}

// Spot is a validated metal spot price, always in USD per troy ounce.
type Spot struct {
	Symbol      string          `json:"symbol"`
	USDPerOunce decimal.Decimal `json:"usdPerOunce"`
	Source      string          `json:"source"`
}

// Quote is a metal price converted to INR.
type Quote struct {
	Symbol            string          `json:"symbol"`
	PricePerGramINR   decimal.Decimal `json:"pricePerGramINR"`
	PricePer10GramINR decimal.Decimal `json:"pricePer10GramINR"`
	PricePerOunceINR  decimal.Decimal `json:"pricePerOunceINR"`
	USDPrice          decimal.Decimal `json:"usdPrice"`
	Source            string          `json:"source"`
	FetchedAt         time.Time       `json:"fetchedAt"`
	Currency          string          `json:"currency"`
	// Stale is set when the quote is served from cache after every source failed.
	Stale bool `json:"stale"`
}

// NewQuote prices spot in INR at rate. Amounts are rounded to two places
// only after the per gram and per ten gram figures are derived.
func NewQuote(spot Spot, rate Rate, now time.Time) Quote {
	perOunce := spot.USDPerOunce.Mul(rate.Value)
	perGram := perOunce.Div(gramsPerOunce)

	return Quote{
		Symbol:            spot.Symbol,
		PricePerGramINR:   perGram.Round(2),
		PricePer10GramINR: perGram.Mul(decimal.NewFromInt(10)).Round(2),
		PricePerOunceINR:  perOunce.Round(2),
		USDPrice:          spot.USDPerOunce.Round(2),
		Source:            spot.Source,
		FetchedAt:         now.UTC(),
		Currency:          CurrencyINR,
		Stale:             rate.Stale,
	}
}

// Name returns a display name for the quote symbol.
func (q Quote) Name() string {
	return SymbolName(q.Symbol)
}

// SymbolName maps a metal symbol to its common name.
func SymbolName(symbol string) string {
	switch strings.ToUpper(symbol) {
	case SymbolGold:
		return "Gold"
	case SymbolSilver:
		return "Silver"
	default:
		return symbol
	}
}

// Display formats amount with the currency symbol and grouping of currency.
func Display(amount decimal.Decimal, currency string) string {
	m := money.New(0, currency)
	minor := amount.Shift(int32(m.Currency().Fraction)).Round(0)
	return money.New(minor.IntPart(), currency).Display()
}
