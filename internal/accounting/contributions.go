// Package accounting implements the URSSAF contribution table, declaration
// periods and the micro-entreprise / VAT franchise threshold checks.
package accounting

import (
	"github.com/shopspring/decimal"

	"github.com/spec-kit/erp-desk/internal/domain"
)

// ContributionRate returns the flat URSSAF rate for kind as a fraction.
// Unknown kinds have a zero rate.
func ContributionRate(kind domain.ActivityKind) decimal.Decimal {
	switch kind {
	case domain.ActivitySales:
		return decimal.RequireFromString("0.123")
	case domain.ActivityServicesBIC:
		return decimal.RequireFromString("0.212")
	case domain.ActivityLiberalBNC:
		return decimal.RequireFromString("0.246")
	case domain.ActivityLiberalCIPAV:
		return decimal.RequireFromString("0.232")
	}
	return decimal.Zero
}

// RateLabel is the display form of the rate, "-" for unknown kinds.
func RateLabel(kind domain.ActivityKind) string {
	switch kind {
	case domain.ActivitySales:
		return "12,3 %"
	case domain.ActivityServicesBIC:
		return "21,2 %"
	case domain.ActivityLiberalBNC:
		return "24,6 %"
	case domain.ActivityLiberalCIPAV:
		return "23,2 %"
	}
	return "-"
}

// ComputeContributions estimates contributions owed on revenue, rounded
// half-up to the cent.
func ComputeContributions(kind domain.ActivityKind, revenue decimal.Decimal) decimal.Decimal {
	return revenue.Mul(ContributionRate(kind)).Round(2)
}
