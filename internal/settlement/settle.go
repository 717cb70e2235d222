package settlement

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/csg33k/fuel-receipts/internal/domain"
	"github.com/csg33k/fuel-receipts/internal/units"
)

// PreviewRate is the flat rate the intake form's live preview uses.
var PreviewRate = decimal.RequireFromString("0.08")

var ErrNoItems = errors.New("settlement: no line items")

// Calculator settles transactions against a shared item catalog.
type Calculator struct {
	catalog Catalog
}

func NewCalculator(catalog Catalog) *Calculator {
	return &Calculator{catalog: catalog}
}

// Classify classifies item for merchant m using the calculator's catalog.
func (c *Calculator) Classify(item domain.LineItem, m *domain.Merchant) Classification {
	return Classify(item, m, c.catalog)
}

// Settle classifies items and aggregates them. A zero policy falls back to
// the jurisdiction's default convention.
func (c *Calculator) Settle(items []domain.LineItem, m *domain.Merchant, j domain.Jurisdiction, policy domain.TaxPolicy) (domain.Settlement, error) {
	if len(items) == 0 {
		return domain.Settlement{}, ErrNoItems
	}
	if policy.Convention == 0 {
		policy = units.For(j).DefaultTax
	}

	s := domain.Settlement{
		Lines:       make([]domain.SettledLine, 0, len(items)),
		Subtotal:    decimal.Zero,
		FuelVolume:  decimal.Zero,
		CashAdvance: decimal.Zero,
		Tax:         policy,
	}
	for i, item := range items {
		if err := checkItem(item); err != nil {
			return domain.Settlement{}, fmt.Errorf("item %d (%s): %w", i+1, item.Name, err)
		}
		cl := c.Classify(item, m)
		amount := Contribution(item, cl.Kind)
		s.Lines = append(s.Lines, domain.SettledLine{
			Item:      item,
			Kind:      cl.Kind,
			Amount:    amount,
			Ambiguous: cl.Ambiguous,
		})
		s.Subtotal = s.Subtotal.Add(amount)
		if cl.Kind == domain.KindCashAdvance {
			s.CashAdvance = s.CashAdvance.Add(amount)
		} else {
			s.FuelVolume = s.FuelVolume.Add(item.DeclaredQuantity)
		}
	}
	s.TaxAmount, s.Total = applyTax(s.Subtotal, policy)
	return s, nil
}

// Preview settles items with the form's flat itemized preview tax. No brand
// conventions apply.
func (c *Calculator) Preview(items []domain.LineItem, j domain.Jurisdiction) (domain.Settlement, error) {
	return c.Settle(items, nil, j, domain.TaxPolicy{
		Convention: domain.TaxItemized,
		Rate:       PreviewRate,
		Label:      "EST. TAX",
	})
}

// Contribution is the amount one line adds to the subtotal, rounded to cents.
//
// Cash advances carry a dollar count, not a volume: the declared quantity is
// used when present, then the multiplier count, then the unit price. The
// amount is never multiplied.
func Contribution(item domain.LineItem, kind domain.LineItemKind) decimal.Decimal {
	switch kind {
	case domain.KindCashAdvance:
		switch {
		case item.DeclaredQuantity.IsPositive():
			return item.DeclaredQuantity.Round(2)
		case item.MultiplierQty != nil && item.MultiplierQty.IsPositive():
			return item.MultiplierQty.Round(2)
		}
		return item.UnitPrice.Round(2)
	case domain.KindVolumeOnly:
		return item.DeclaredQuantity.Mul(item.UnitPrice).Round(2)
	case domain.KindFuel:
		amount := item.DeclaredQuantity.Mul(item.UnitPrice)
		if item.MultiplierQty != nil && item.MultiplierQty.IsPositive() {
			amount = amount.Mul(*item.MultiplierQty)
		}
		return amount.Round(2)
	}
	panic(fmt.Sprintf("settlement: unhandled kind %q", string(kind)))
}

func applyTax(subtotal decimal.Decimal, policy domain.TaxPolicy) (tax, total decimal.Decimal) {
	switch policy.Convention {
	case domain.TaxZeroLine:
		return decimal.Zero, subtotal
	case domain.TaxItemized:
		tax = subtotal.Mul(policy.Rate).Round(2)
		return tax, subtotal.Add(tax)
	case domain.TaxInclusiveBackOut:
		net := subtotal.Div(decimal.NewFromInt(1).Add(policy.Rate)).Round(2)
		return subtotal.Sub(net), subtotal
	}
	panic(fmt.Sprintf("settlement: unhandled tax convention %d", int(policy.Convention)))
}

func checkItem(item domain.LineItem) error {
	if item.DeclaredQuantity.IsNegative() {
		return errors.New("quantity must not be negative")
	}
	if item.UnitPrice.IsNegative() {
		return errors.New("price must not be negative")
	}
	if item.MultiplierQty != nil && item.MultiplierQty.IsNegative() {
		return errors.New("qty must not be negative")
	}
	return nil
}

// Money formats an amount with two fractional digits.
func Money(d decimal.Decimal) string { return d.StringFixed(2) }

// Volume formats a volume with three fractional digits, as pumps print it.
func Volume(d decimal.Decimal) string { return d.StringFixed(3) }
