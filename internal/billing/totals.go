// Package billing holds the pure money and numbering rules for quotes and invoices.
package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/erp-desk/internal/domain"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Totals are expressed in minor currency units (centimes).
type Totals struct {
	SubtotalMinor int64
	TaxMinor      int64
	TotalMinor    int64
}

// Total returns the grand total in major units.
func (t Totals) Total() decimal.Decimal {
	return decimal.New(t.TotalMinor, -2)
}

// LineSubtotal is quantity × unit price × (1 − discount), unrounded, in major units.
func LineSubtotal(item domain.LineItem) decimal.Decimal {
	unit := decimal.NewFromInt(item.UnitPriceMinor).Div(hundred)
	discount := item.DiscountPct.Div(hundred)
	return item.Quantity.Mul(unit).Mul(one.Sub(discount))
}

// LineTax is the VAT owed on a line subtotal, unrounded.
func LineTax(item domain.LineItem, subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(item.VATRate).Div(hundred)
}

// ComputeTotals sums subtotal and tax over items with exact decimals and
// rounds each sum half-up to the centime. Total is subtotal plus tax after
// rounding.
func ComputeTotals(items []domain.LineItem) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, item := range items {
		line := LineSubtotal(item)
		subtotal = subtotal.Add(line)
		tax = tax.Add(LineTax(item, line))
	}
	subtotalMinor := toMinor(subtotal)
	taxMinor := toMinor(tax)
	return Totals{
		SubtotalMinor: subtotalMinor,
		TaxMinor:      taxMinor,
		TotalMinor:    subtotalMinor + taxMinor,
	}
}

// toMinor rounds a major-unit amount half-up to an integer count of centimes.
// Decimal.Round rounds half away from zero, which is half-up for the
// non-negative amounts ValidateItems allows.
func toMinor(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// ValidateItems checks the ranges ComputeTotals relies on.
func ValidateItems(items []domain.LineItem) error {
	var errs []error
	for i, item := range items {
		if item.Quantity.IsNegative() {
			errs = append(errs, fmt.Errorf("items[%d].quantity must not be negative", i))
		}
		if item.UnitPriceMinor < 0 {
			errs = append(errs, fmt.Errorf("items[%d].unit_price_minor must not be negative", i))
		}
		if item.VATRate.IsNegative() || item.VATRate.GreaterThan(hundred) {
			errs = append(errs, fmt.Errorf("items[%d].vat_rate must be between 0 and 100", i))
		}
		if item.DiscountPct.IsNegative() || item.DiscountPct.GreaterThan(hundred) {
			errs = append(errs, fmt.Errorf("items[%d].discount_pct must be between 0 and 100", i))
		}
	}
	return errors.Join(errs...)
}
