package service

import (
	"context"
	"testing"

	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/features"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

func TestFeatureGating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	enabled, err := f.features.IsEnabled(ctx, f.company.ID, features.Invoices)
	if err != nil {
		t.Fatalf("is enabled: %v", err)
	}
	if enabled {
		t.Fatal("invoices enabled without subscription")
	}
	if err := f.features.Require(ctx, f.company.ID, features.Invoices); !apperrors.HasCode(err, apperrors.CodeFeatureDisabled) {
		t.Fatalf("expected feature disabled, got %v", err)
	}
	if err := f.features.Require(ctx, f.company.ID, features.Tickets); err != nil {
		t.Fatalf("tickets: %v", err)
	}

	if _, err := f.features.Subscribe(ctx, f.company.ID, domain.PlanPro); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := f.features.Require(ctx, f.company.ID, features.Invoices); err != nil {
		t.Fatalf("invoices after upgrade: %v", err)
	}

	// the most recent subscription wins
	if _, err := f.features.Subscribe(ctx, f.company.ID, domain.PlanBasic); err != nil {
		t.Fatalf("downgrade: %v", err)
	}
	plan, _, err := f.features.CurrentPlan(ctx, f.company.ID)
	if err != nil || plan != domain.PlanBasic {
		t.Fatalf("plan = %s, err %v", plan, err)
	}
	if _, err := f.features.Subscribe(ctx, f.company.ID, "GOLD"); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
