package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/render"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

func line(qty string, unitMinor int64, vat, discount string) domain.LineItem {
	return domain.LineItem{
		Description:    "service",
		Quantity:       decimal.RequireFromString(qty),
		UnitPriceMinor: unitMinor,
		VATRate:        decimal.RequireFromString(vat),
		DiscountPct:    decimal.RequireFromString(discount),
	}
}

func TestNextNumberConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 25
	numbers := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			num, err := f.billing.NextNumber(ctx, f.company.ID, domain.DocumentInvoice, 2024)
			if err != nil {
				t.Errorf("next number: %v", err)
			}
			numbers[i] = num
		}(i)
	}
	wg.Wait()

	sort.Strings(numbers)
	for i, num := range numbers {
		want := fmt.Sprintf("FAC-2024-%04d", i+1)
		if num != want {
			t.Fatalf("numbers[%d] = %s, want %s", i, num, want)
		}
	}
}

func TestNextNumberDefaultsToCurrentYear(t *testing.T) {
	f := newFixture(t)
	num, err := f.billing.NextNumber(context.Background(), f.company.ID, domain.DocumentQuote, 0)
	if err != nil {
		t.Fatalf("next number: %v", err)
	}
	if num != "DEV-2024-0001" {
		t.Fatalf("number = %s", num)
	}
}

func TestCreateDocumentAllocatesFromIssueYear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := &domain.Customer{Name: "Client"}
	if err := f.billing.CreateCustomer(ctx, f.company.ID, customer); err != nil {
		t.Fatalf("customer: %v", err)
	}

	issued := time.Date(2023, time.December, 30, 0, 0, 0, 0, time.UTC)
	doc, err := f.billing.CreateDocument(ctx, f.company.ID, f.owner.ID, domain.DocumentInvoice, DocumentInput{
		CustomerID: &customer.ID,
		IssueDate:  issued,
		Items:      []domain.LineItem{line("2", 1000, "20", "0")},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.Number != "FAC-2023-0001" || doc.Status != domain.DocumentStatusDraft || doc.Currency != "EUR" {
		t.Fatalf("unexpected document %+v", doc)
	}
	if totals := f.billing.Totals(*doc); totals.SubtotalMinor != 2000 || totals.TaxMinor != 400 || totals.TotalMinor != 2400 {
		t.Fatalf("totals = %+v", totals)
	}

	next, err := f.billing.NextNumber(ctx, f.company.ID, domain.DocumentInvoice, 2023)
	if err != nil {
		t.Fatalf("next number: %v", err)
	}
	if next != "FAC-2023-0002" {
		t.Fatalf("next = %s", next)
	}
}

func TestCreateDocumentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := fixedNow.AddDate(0, 0, -3)

	tests := []struct {
		name  string
		kind  domain.DocumentKind
		input DocumentInput
		code  string
	}{
		{name: "negative quantity", kind: domain.DocumentQuote, input: DocumentInput{Items: []domain.LineItem{line("-1", 100, "20", "0")}}, code: apperrors.CodeValidation},
		{name: "discount over 100", kind: domain.DocumentQuote, input: DocumentInput{Items: []domain.LineItem{line("1", 100, "20", "150")}}, code: apperrors.CodeValidation},
		{name: "invoice status on quote", kind: domain.DocumentQuote, input: DocumentInput{Status: domain.InvoiceStatusPaid}, code: apperrors.CodeValidation},
		{name: "due before issue", kind: domain.DocumentInvoice, input: DocumentInput{DueDate: &past}, code: apperrors.CodeValidation},
		{name: "unknown customer", kind: domain.DocumentInvoice, input: DocumentInput{CustomerID: ptr("5b0e4c4e-3c52-4d37-9d34-1f1f0d8e0a11")}, code: apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.billing.CreateDocument(ctx, f.company.ID, f.owner.ID, tt.kind, tt.input)
			if !apperrors.HasCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestUpdateDocumentStatusPerKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quote, err := f.billing.CreateDocument(ctx, f.company.ID, f.owner.ID, domain.DocumentQuote, DocumentInput{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.billing.UpdateDocumentStatus(ctx, f.company.ID, domain.DocumentQuote, quote.ID, domain.InvoiceStatusIssued); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	updated, err := f.billing.UpdateDocumentStatus(ctx, f.company.ID, domain.DocumentQuote, quote.ID, domain.QuoteStatusAccepted)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.QuoteStatusAccepted {
		t.Fatalf("status = %s", updated.Status)
	}
	// a quote id is not an invoice id
	if _, err := f.billing.GetDocument(ctx, f.company.ID, domain.DocumentInvoice, quote.ID); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteReferencedCustomerConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := &domain.Customer{Name: "Client"}
	if err := f.billing.CreateCustomer(ctx, f.company.ID, customer); err != nil {
		t.Fatalf("customer: %v", err)
	}
	if _, err := f.billing.CreateDocument(ctx, f.company.ID, f.owner.ID, domain.DocumentQuote, DocumentInput{CustomerID: &customer.ID}); err != nil {
		t.Fatalf("quote: %v", err)
	}

	if err := f.billing.DeleteCustomer(ctx, f.company.ID, customer.ID); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := f.billing.CreateCustomer(ctx, f.company.ID, &domain.Customer{Name: " "}); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type stubRenderer struct {
	key  render.TemplateKey
	data any
	err  error
}

func (r *stubRenderer) Render(_ context.Context, key render.TemplateKey, data any) ([]byte, error) {
	r.key, r.data = key, data
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-stub"), nil
}

type stubArchive struct {
	puts []string
	err  error
}

func (a *stubArchive) Put(_ context.Context, companyID, filename, _ string, _ []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	key := "documents/" + companyID + "/" + filename
	a.puts = append(a.puts, key)
	return key, nil
}

func (a *stubArchive) PresignGet(_ context.Context, key string) (string, error) {
	return "https://example.test/" + key, nil
}

func TestRenderDocument(t *testing.T) {
	tests := []struct {
		name       string
		renderErr  error
		archiveErr error
		wantCode   string
		wantKey    bool
	}{
		{name: "archived", wantKey: true},
		{name: "archive failure is not fatal", archiveErr: errors.New("s3 down")},
		{name: "render failure is fatal", renderErr: errors.New("boom"), wantCode: apperrors.CodeRenderFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			renderer := &stubRenderer{err: tt.renderErr}
			archive := &stubArchive{err: tt.archiveErr}
			svc := NewBillingService(BillingDependencies{Store: f.store, Renderer: renderer, Archive: archive, Metrics: f.metrics, Clock: f.billing.now})

			doc, err := svc.CreateDocument(ctx, f.company.ID, f.owner.ID, domain.DocumentInvoice, DocumentInput{
				Items: []domain.LineItem{line("1", 5000, "20", "0")},
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			file, err := svc.RenderDocument(ctx, f.company.ID, domain.DocumentInvoice, doc.ID)
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if file.Name != doc.Number+".pdf" || renderer.key != render.TemplateInvoice {
				t.Fatalf("file %s rendered with %s", file.Name, renderer.key)
			}
			dc, ok := renderer.data.(render.DocumentContext)
			if !ok || dc.Totals.TotalMinor != 6000 || dc.Company.ID != f.company.ID {
				t.Fatalf("unexpected context %+v", renderer.data)
			}
			if tt.wantKey != (file.ArchiveKey != "") {
				t.Fatalf("archive key = %q", file.ArchiveKey)
			}
			if tt.archiveErr != nil && f.metrics.SideEffectFailures("archive") != 1 {
				t.Fatalf("archive failure not counted")
			}
		})
	}
}
