package accounting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/erp-desk/internal/domain"
)

func TestComputeContributions(t *testing.T) {
	tests := []struct {
		kind    domain.ActivityKind
		revenue string
		want    string
		label   string
	}{
		{domain.ActivitySales, "10000.00", "1230.00", "12,3 %"},
		{domain.ActivityLiberalBNC, "1000.00", "246.00", "24,6 %"},
		{domain.ActivityServicesBIC, "1000.00", "212.00", "21,2 %"},
		{domain.ActivityLiberalCIPAV, "1000.00", "232.00", "23,2 %"},
		// 0.05 × 0.123 = 0.00615 → 0.01
		{domain.ActivitySales, "0.05", "0.01", "12,3 %"},
		// 12.5 × 0.212 = 2.65
		{domain.ActivityServicesBIC, "12.50", "2.65", "21,2 %"},
		// 0.25 × 0.246 = 0.0615 → 0.06
		{domain.ActivityLiberalBNC, "0.25", "0.06", "24,6 %"},
		{domain.ActivityKind("UNKNOWN"), "1000.00", "0", "-"},
	}
	for _, tt := range tests {
		got := ComputeContributions(tt.kind, decimal.RequireFromString(tt.revenue))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ComputeContributions(%s, %s) = %s, want %s", tt.kind, tt.revenue, got, tt.want)
		}
		if label := RateLabel(tt.kind); label != tt.label {
			t.Errorf("RateLabel(%s) = %q, want %q", tt.kind, label, tt.label)
		}
	}
}

func TestCurrentPeriodBounds(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		freq  domain.UrssafFrequency
		today time.Time
		start time.Time
	}{
		{domain.UrssafMonthly, day(2025, time.March, 17), day(2025, time.March, 1)},
		{domain.UrssafMonthly, day(2025, time.January, 1), day(2025, time.January, 1)},
		{domain.UrssafQuarterly, day(2025, time.March, 31), day(2025, time.January, 1)},
		{domain.UrssafQuarterly, day(2025, time.April, 1), day(2025, time.April, 1)},
		{domain.UrssafQuarterly, day(2025, time.August, 20), day(2025, time.July, 1)},
		{domain.UrssafQuarterly, day(2025, time.December, 31), day(2025, time.October, 1)},
	}
	for _, tt := range tests {
		start, end := CurrentPeriodBounds(tt.freq, tt.today.Add(15*time.Hour))
		if !start.Equal(tt.start) || !end.Equal(tt.today) {
			t.Errorf("CurrentPeriodBounds(%s, %s) = [%s, %s], want [%s, %s]",
				tt.freq, tt.today.Format(time.DateOnly), start.Format(time.DateOnly), end.Format(time.DateOnly),
				tt.start.Format(time.DateOnly), tt.today.Format(time.DateOnly))
		}
	}
}

func TestYearToDateBounds(t *testing.T) {
	start, end := YearToDateBounds(time.Date(2025, time.June, 9, 18, 30, 0, 0, time.UTC))
	if start.Format(time.DateOnly) != "2025-01-01" || end.Format(time.DateOnly) != "2025-06-09" {
		t.Fatalf("YearToDateBounds = [%s, %s]", start, end)
	}
}

func TestMicroCapProgress(t *testing.T) {
	th := domain.DefaultLegalThresholds(2025)

	sales := MicroCapProgress(th, domain.ActivitySales, decimal.RequireFromString("18870"))
	if sales.Cap != 188700 || sales.Progress != 10 || sales.Exceeded {
		t.Fatalf("sales progress = %+v", sales)
	}

	services := MicroCapProgress(th, domain.ActivityLiberalBNC, decimal.RequireFromString("10000"))
	if services.Cap != 77700 || services.Progress != 12.87 {
		t.Fatalf("services progress = %+v", services)
	}

	over := MicroCapProgress(th, domain.ActivityServicesBIC, decimal.RequireFromString("80000"))
	if !over.Exceeded {
		t.Fatalf("expected cap exceeded: %+v", over)
	}

	if got := Progress(decimal.RequireFromString("10"), 0); got != 0 {
		t.Fatalf("Progress with zero cap = %v", got)
	}
}

func TestVatFranchiseStatus(t *testing.T) {
	th := domain.DefaultLegalThresholds(2025)
	tests := []struct {
		kind     domain.ActivityKind
		turnover string
		base     int64
		tol      int64
		position VATPosition
	}{
		{domain.ActivitySales, "85000", 85000, 93500, VATBelowBase},
		{domain.ActivitySales, "85000.01", 85000, 93500, VATAboveBase},
		{domain.ActivitySales, "93500.01", 85000, 93500, VATAboveTolerance},
		{domain.ActivityLiberalBNC, "37500.01", 37500, 41250, VATAboveBase},
		{domain.ActivityLiberalCIPAV, "100", 37500, 41250, VATBelowBase},
	}
	for _, tt := range tests {
		got := VatFranchiseStatus(th, tt.kind, decimal.RequireFromString(tt.turnover))
		if got.Base != tt.base || got.Tolerance != tt.tol || got.Position != tt.position {
			t.Errorf("VatFranchiseStatus(%s, %s) = %+v", tt.kind, tt.turnover, got)
		}
	}
}
