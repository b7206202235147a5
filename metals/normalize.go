package metals

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/goliatone/go-finance-cache/fallback"
	"github.com/goliatone/go-finance-cache/pkg/failure"
)

// Unit is the weight a provider quotes spot prices in.
type Unit string

const (
	UnitOunce Unit = "ounce"
	UnitGram  Unit = "gram"
)

// ParseUnit reads a unit name; empty means troy ounce.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "oz", "ounce", "troy_ounce":
		return UnitOunce, nil
	case "g", "gram":
		return UnitGram, nil
	default:
		return "", fmt.Errorf("unknown unit %q", s)
	}
}

// Bounds is the range a quoted value must fall in to be trusted.
// A zero Max leaves the upper side open.
type Bounds struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Common sanity bounds.
var (
	USDINRBounds = Bounds{Min: 70, Max: 100}
	GoldBounds   = Bounds{Min: 500, Max: 10000}
	SilverBounds = Bounds{Min: 5, Max: 250}
)

// Check validates v against b.
func (b Bounds) Check(v decimal.Decimal) error {
	f := v.InexactFloat64()
	return validation.Validate(f,
		validation.Required.Error("must be a positive value"),
		validation.Min(b.Min),
		validation.When(b.Max > 0, validation.Max(b.Max)),
	)
}

// NormalizeRate extracts a currency rate at path from a JSON payload. A value
// outside bounds is rejected, leaving the batch empty so the chain moves on.
func NormalizeRate(pair, path string, bounds Bounds) fallback.NormalizeFunc[[]byte, Rate] {
	return func(raw []byte) (fallback.Batch[Rate], error) {
		var batch fallback.Batch[Rate]

		value, err := extract(raw, path)
		if err != nil {
			return batch, err
		}
		if err := bounds.Check(value); err != nil {
			batch.Reject(failure.RecordInvalid(
				validation.Errors{"rate": err},
				fmt.Sprintf("%s rate %s out of bounds", pair, value),
			))
			return batch, nil
		}

		batch.Accept(Rate{Pair: pair, Value: value})
		return batch, nil
	}
}

// NormalizeSpot extracts a metal spot price at path. Gram quotes are scaled
// to troy ounces before the bounds check so every Spot uses one unit.
func NormalizeSpot(symbol, path string, unit Unit, bounds Bounds) fallback.NormalizeFunc[[]byte, Spot] {
	return func(raw []byte) (fallback.Batch[Spot], error) {
		var batch fallback.Batch[Spot]

		value, err := extract(raw, path)
		if err != nil {
			return batch, err
		}
		if unit == UnitGram {
			value = value.Mul(gramsPerOunce)
		}
		if err := bounds.Check(value); err != nil {
			batch.Reject(failure.RecordInvalid(
				validation.Errors{"price": err},
				fmt.Sprintf("%s spot %s out of bounds", symbol, value),
			))
			return batch, nil
		}

		batch.Accept(Spot{Symbol: symbol, USDPerOunce: value})
		return batch, nil
	}
}

// extract evaluates path against a JSON document and reads the result as a
// number. Numbers quoted as strings are accepted.
func extract(raw []byte, path string) (decimal.Decimal, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return decimal.Zero, fmt.Errorf("decode payload: %w", err)
	}

	value, err := jsonpath.Get(path, doc)
	if err != nil {
		return decimal.Zero, fmt.Errorf("evaluate %q: %w", path, err)
	}

	// a path can resolve to a single value or a list of one
	if list, ok := value.([]any); ok {
		if len(list) == 0 {
			return decimal.Zero, fmt.Errorf("evaluate %q: no match", path)
		}
		value = list[0]
	}

	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(v), ",", ""))
		if err != nil {
			return decimal.Zero, fmt.Errorf("evaluate %q: %q is not a number", path, v)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("evaluate %q: unexpected %T", path, value)
	}
}
