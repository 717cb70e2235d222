// Package units maps a jurisdiction onto its volume unit, price labels,
// currency and default tax convention.
package units

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/csg33k/fuel-receipts/internal/domain"
)

// Profile is the unit-and-currency convention of one jurisdiction.
type Profile struct {
	Jurisdiction   domain.Jurisdiction
	VolumeUnit     string // long form, e.g. "gallon"
	VolumeAbbrev   string // printed after volumes, e.g. "GAL"
	PriceLabel     string // unit price caption, e.g. "PRICE/GAL"
	Currency       string // ISO 4217
	CurrencySymbol string
	// TaxInclusive reports whether posted pump prices already include tax.
	TaxInclusive bool
	DefaultTax   domain.TaxPolicy
}

var profiles = map[domain.Jurisdiction]Profile{
	domain.USA: {
		Jurisdiction:   domain.USA,
		VolumeUnit:     "gallon",
		VolumeAbbrev:   "GAL",
		PriceLabel:     "PRICE/GAL",
		Currency:       "USD",
		CurrencySymbol: "$",
		TaxInclusive:   false,
		DefaultTax: domain.TaxPolicy{
			Convention: domain.TaxZeroLine,
			Rate:       decimal.Zero,
			Label:      "TAX",
		},
	},
	domain.Canada: {
		Jurisdiction:   domain.Canada,
		VolumeUnit:     "litre",
		VolumeAbbrev:   "L",
		PriceLabel:     "PRICE/L",
		Currency:       "CAD",
		CurrencySymbol: "$",
		TaxInclusive:   true,
		DefaultTax: domain.TaxPolicy{
			Convention: domain.TaxInclusiveBackOut,
			Rate:       decimal.NewFromInt(13).Div(decimal.NewFromInt(100)),
			Label:      "HST",
		},
	},
}

// For returns the profile of j. Jurisdiction is a closed set, so an unknown
// value is a programming error.
func For(j domain.Jurisdiction) Profile {
	p, ok := profiles[j]
	if !ok {
		panic(fmt.Sprintf("units: no profile for jurisdiction %q", string(j)))
	}
	return p
}

// Lookup is the non-panicking form of For.
func Lookup(j domain.Jurisdiction) (Profile, bool) {
	p, ok := profiles[j]
	return p, ok
}
