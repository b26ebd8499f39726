package accounting

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/erp-desk/internal/domain"
)

// VATPosition places turnover relative to the VAT franchise caps.
type VATPosition string

const (
	VATBelowBase      VATPosition = "BELOW_BASE"
	VATAboveBase      VATPosition = "ABOVE_BASE"
	VATAboveTolerance VATPosition = "ABOVE_TOLERANCE"
)

// MicroCap is the micro-entreprise revenue cap for kind.
func MicroCap(th domain.LegalThresholds, kind domain.ActivityKind) int64 {
	if kind.IsSales() {
		return th.MicroCapSales
	}
	return th.MicroCapServices
}

// VATCaps returns the franchise base and tolerance caps for kind.
func VATCaps(th domain.LegalThresholds, kind domain.ActivityKind) (base, tolerance int64) {
	if kind.IsSales() {
		return th.VATBaseSales, th.VATBaseSalesTolerance
	}
	return th.VATBaseServices, th.VATBaseServicesTolerance
}

// Progress is turnover / limit × 100 rounded to two places, 0 when limit is not positive.
// This is a display figure and is computed in float64.
func Progress(turnover decimal.Decimal, limit int64) float64 {
	if limit <= 0 {
		return 0
	}
	pct, _ := turnover.Div(decimal.NewFromInt(limit)).Mul(decimal.NewFromInt(100)).Float64()
	return math.Round(pct*100) / 100
}

// MicroCapStatus compares turnover with the micro-entreprise cap.
type MicroCapStatus struct {
	Cap      int64
	Progress float64
	Exceeded bool
}

// MicroCapProgress reports how much of the micro cap turnover uses.
func MicroCapProgress(th domain.LegalThresholds, kind domain.ActivityKind, turnover decimal.Decimal) MicroCapStatus {
	limit := MicroCap(th, kind)
	return MicroCapStatus{
		Cap:      limit,
		Progress: Progress(turnover, limit),
		Exceeded: turnover.GreaterThan(decimal.NewFromInt(limit)),
	}
}

// VATFranchise compares turnover with the franchise base and tolerance.
type VATFranchise struct {
	Base              int64
	Tolerance         int64
	BaseProgress      float64
	ToleranceProgress float64
	Position          VATPosition
}

// VatFranchiseStatus reports where turnover stands against the VAT franchise.
func VatFranchiseStatus(th domain.LegalThresholds, kind domain.ActivityKind, turnover decimal.Decimal) VATFranchise {
	base, tolerance := VATCaps(th, kind)
	position := VATBelowBase
	switch {
	case turnover.GreaterThan(decimal.NewFromInt(tolerance)):
		position = VATAboveTolerance
	case turnover.GreaterThan(decimal.NewFromInt(base)):
		position = VATAboveBase
	}
	return VATFranchise{
		Base:              base,
		Tolerance:         tolerance,
		BaseProgress:      Progress(turnover, base),
		ToleranceProgress: Progress(turnover, tolerance),
		Position:          position,
	}
}
