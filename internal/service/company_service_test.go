package service

import (
	"context"
	"testing"

	"github.com/spec-kit/erp-desk/internal/domain"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

func TestRegisterUserUniqueEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.companies.RegisterUser(context.Background(), "Again", "OWNER@example.com")
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestResolveMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.otherCompany(t)

	m, err := f.companies.ResolveMembership(ctx, f.owner.ID, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if m.CompanyID != f.company.ID || m.Role != domain.RoleAdmin {
		t.Fatalf("earliest membership = %+v", m)
	}
	m, err = f.companies.ResolveMembership(ctx, f.owner.ID, other.ID)
	if err != nil || m.CompanyID != other.ID {
		t.Fatalf("preferred membership = %+v, err %v", m, err)
	}

	stranger := f.member(t, "Sam", "sam@example.com", domain.RoleMember)
	if _, err := f.companies.ResolveMembership(ctx, stranger.ID, other.ID); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	freq := domain.UrssafMonthly
	updated, err := f.companies.UpdateCompany(ctx, f.company.ID, CompanyInput{UrssafFrequency: &freq, SIRET: ptr("732 829 320 00074")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.UrssafFrequency != domain.UrssafMonthly || updated.SIRET != "73282932000074" || updated.Name != "Acme" {
		t.Fatalf("unexpected company %+v", updated)
	}

	tests := []struct {
		name  string
		input CompanyInput
	}{
		{name: "bad siret", input: CompanyInput{SIRET: ptr("123")}},
		{name: "bad legal status", input: CompanyInput{LegalStatus: ptr(domain.LegalStatus("SARL"))}},
		{name: "bad urssaf frequency", input: CompanyInput{UrssafFrequency: ptr(domain.UrssafFrequency("YEARLY"))}},
		{name: "empty urssaf frequency", input: CompanyInput{UrssafFrequency: ptr(domain.UrssafFrequency(""))}},
		{name: "blank name", input: CompanyInput{Name: ptr(" ")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.companies.UpdateCompany(ctx, f.company.ID, tt.input); !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
