package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/erp-desk/internal/accounting"
	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/render"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

func TestGetThresholdsHealsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.account.GetThresholds(ctx, 2031)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := f.account.GetThresholds(ctx, 2031)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if *first != *second {
		t.Fatalf("second read differs: %+v vs %+v", first, second)
	}
	if first.MicroCapServices != domain.DefaultLegalThresholds(2031).MicroCapServices {
		t.Fatalf("unexpected defaults %+v", first)
	}
	if _, err := f.account.GetThresholds(ctx, 31); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateThresholdsRejectsToleranceBelowBase(t *testing.T) {
	f := newFixture(t)
	th := domain.DefaultLegalThresholds(2024)
	th.VATBaseServicesTolerance = th.VATBaseServices - 1
	if err := f.account.UpdateThresholds(context.Background(), &th); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestComputeContributions(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		kind    domain.ActivityKind
		revenue string
		want    string
	}{
		{kind: domain.ActivitySales, revenue: "10000.00", want: "1230"},
		{kind: domain.ActivityLiberalBNC, revenue: "1000.00", want: "246"},
		{kind: "UNKNOWN", revenue: "1000.00", want: "0"},
	}
	for _, tt := range tests {
		got := f.account.ComputeContributions(tt.kind, decimal.RequireFromString(tt.revenue))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("%s on %s = %s, want %s", tt.kind, tt.revenue, got, tt.want)
		}
	}
}

func issueInvoice(t *testing.T, f *fixture, day time.Time, unitMinor int64, status domain.DocumentStatus) {
	t.Helper()
	_, err := f.billing.CreateDocument(context.Background(), f.company.ID, f.owner.ID, domain.DocumentInvoice, DocumentInput{
		Status:    status,
		IssueDate: day,
		Items:     []domain.LineItem{line("1", unitMinor, "0", "0")},
	})
	if err != nil {
		t.Fatalf("invoice: %v", err)
	}
}

func TestYearToDateTurnoverAndDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issueInvoice(t, f, time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), 900000, domain.InvoiceStatusPaid)
	issueInvoice(t, f, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), 1000000, domain.InvoiceStatusPaid)
	issueInvoice(t, f, time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC), 250050, domain.InvoiceStatusIssued)
	issueInvoice(t, f, time.Date(2024, time.April, 3, 0, 0, 0, 0, time.UTC), 777700, domain.DocumentStatusCancelled)
	issueInvoice(t, f, time.Date(2024, time.May, 16, 0, 0, 0, 0, time.UTC), 500000, domain.InvoiceStatusIssued)

	entries := []domain.TurnoverEntry{
		{PeriodStart: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), PeriodEnd: time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("1500.25")},
		// straddles today, so it is not wholly within the range
		{PeriodStart: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), PeriodEnd: time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(999)},
	}
	for i := range entries {
		if err := f.account.AddTurnover(ctx, f.company.ID, &entries[i]); err != nil {
			t.Fatalf("turnover: %v", err)
		}
	}

	ytd, err := f.account.YearToDateTurnover(ctx, f.company.ID, fixedNow)
	if err != nil {
		t.Fatalf("ytd: %v", err)
	}
	if want := decimal.RequireFromString("14000.75"); !ytd.Equal(want) {
		t.Fatalf("ytd = %s, want %s", ytd, want)
	}

	dash, err := f.account.Dashboard(ctx, f.company.ID, fixedNow)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	// quarterly filer: April 1st through today
	if !dash.PeriodStart.Equal(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("period start = %s", dash.PeriodStart)
	}
	if !dash.PeriodRevenue.Equal(decimal.RequireFromString("2500.5")) {
		t.Fatalf("period revenue = %s", dash.PeriodRevenue)
	}
	// services BIC: 21.2 %
	if !dash.Contributions.Equal(decimal.RequireFromString("530.11")) {
		t.Fatalf("contributions = %s", dash.Contributions)
	}
	if dash.MicroCap.Cap != 77700 || dash.MicroCap.Progress != 18.02 {
		t.Fatalf("micro cap = %+v", dash.MicroCap)
	}
	if dash.VAT.Position != accounting.VATBelowBase || dash.RateLabel != "21,2 %" {
		t.Fatalf("vat = %+v, label %q", dash.VAT, dash.RateLabel)
	}
}

func TestAddTurnoverUpsertsAndValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)

	for _, amount := range []string{"100", "250.5"} {
		entry := &domain.TurnoverEntry{PeriodStart: start, PeriodEnd: end, Amount: decimal.RequireFromString(amount)}
		if err := f.account.AddTurnover(ctx, f.company.ID, entry); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	entries, err := f.account.ListTurnover(ctx, f.company.ID, start, end)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || !entries[0].Amount.Equal(decimal.RequireFromString("250.5")) {
		t.Fatalf("entries = %+v", entries)
	}

	bad := &domain.TurnoverEntry{PeriodStart: end, PeriodEnd: start, Amount: decimal.NewFromInt(1)}
	if err := f.account.AddTurnover(ctx, f.company.ID, bad); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	other := f.otherCompany(t)
	if err := f.account.DeleteTurnover(ctx, other.ID, entries[0].ID); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("foreign delete = %v, want not found", err)
	}
	if err := f.account.DeleteTurnover(ctx, f.company.ID, entries[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.account.DeleteTurnover(ctx, f.company.ID, entries[0].ID); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("second delete = %v, want not found", err)
	}
}

func TestUrssafSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	renderer := &stubRenderer{}
	svc := NewAccountingService(AccountingDependencies{Store: f.store, Renderer: renderer, Clock: f.account.now})
	issueInvoice(t, f, time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC), 100000, domain.InvoiceStatusPaid)

	file, err := svc.UrssafSummary(ctx, f.company.ID, fixedNow)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if file.Name != "urssaf_2024-04-01_2024-05-15.pdf" {
		t.Fatalf("name = %s", file.Name)
	}
	uc, ok := renderer.data.(render.UrssafContext)
	if !ok || len(uc.Invoices) != 1 || !uc.Contributions.Equal(decimal.NewFromInt(212)) {
		t.Fatalf("unexpected context %+v", renderer.data)
	}
}
