package render

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/erp-desk/internal/billing"
	"github.com/spec-kit/erp-desk/internal/domain"
)

func TestPDFRendererDocument(t *testing.T) {
	items := []domain.LineItem{{
		Description:    "Audit",
		Quantity:       decimal.NewFromInt(2),
		UnitPriceMinor: 15000,
		VATRate:        decimal.NewFromInt(20),
		DiscountPct:    decimal.Zero,
	}}
	dc := DocumentContext{
		Company:  domain.Company{Name: "ACME"},
		Document: domain.Document{Kind: domain.DocumentInvoice, Number: "FAC-2025-0001", IssueDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Currency: "EUR", Items: items},
		Totals:   billing.ComputeTotals(items),
	}
	out, err := NewPDFRenderer().Render(context.Background(), TemplateInvoice, dc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
	if got := DocumentFilename(dc.Document); got != "FAC-2025-0001.pdf" {
		t.Fatalf("filename = %s", got)
	}
}

func TestPDFRendererRejectsWrongContext(t *testing.T) {
	r := NewPDFRenderer()
	if _, err := r.Render(context.Background(), TemplateUrssafSummary, DocumentContext{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("wrong context = %v", err)
	}
	if _, err := r.Render(context.Background(), TemplateKey("letter"), nil); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("unknown key = %v", err)
	}
}

func TestUrssafFilename(t *testing.T) {
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC)
	if got := UrssafFilename(start, end); got != "urssaf_2025-04-01_2025-05-14.pdf" {
		t.Fatalf("filename = %s", got)
	}
}
