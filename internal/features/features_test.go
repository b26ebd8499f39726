package features

import (
	"errors"
	"testing"

	"github.com/spec-kit/erp-desk/internal/domain"
)

func TestEnabled(t *testing.T) {
	tests := []struct {
		plan    domain.Plan
		feature Feature
		want    bool
	}{
		{domain.PlanBasic, Tickets, true},
		{domain.PlanBasic, Quotes, true},
		{domain.PlanBasic, Invoices, false},
		{domain.PlanPro, Invoices, true},
		{domain.PlanEnterprise, Invoices, true},
		{domain.PlanPro, Feature("accounting_export"), false},
		{domain.Plan("GOLD"), Tickets, false},
	}
	for _, tt := range tests {
		if got := Enabled(tt.plan, tt.feature); got != tt.want {
			t.Errorf("Enabled(%s, %s) = %v, want %v", tt.plan, tt.feature, got, tt.want)
		}
	}
}

func TestPlanOfDefaultsToBasic(t *testing.T) {
	if got := PlanOf(nil); got != domain.PlanBasic {
		t.Fatalf("PlanOf(nil) = %s", got)
	}
	if Enabled(PlanOf(nil), Invoices) {
		t.Fatal("invoices must be disabled without a subscription")
	}
	if got := PlanOf(&domain.Subscription{Plan: domain.PlanPro}); got != domain.PlanPro {
		t.Fatalf("PlanOf(pro) = %s", got)
	}
}

func TestAuthorize(t *testing.T) {
	if err := Authorize(domain.PlanBasic, Invoices); !errors.Is(err, ErrDisabled) {
		t.Fatalf("Authorize(basic, invoices) = %v", err)
	}
	if err := Authorize(domain.PlanEnterprise, Invoices); err != nil {
		t.Fatalf("Authorize(enterprise, invoices) = %v", err)
	}
	if got := For(domain.PlanBasic); len(got) != 2 {
		t.Fatalf("For(basic) = %v", got)
	}
}
