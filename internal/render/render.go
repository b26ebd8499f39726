// Package render turns computed billing and accounting data into files.
package render

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/erp-desk/internal/billing"
	"github.com/spec-kit/erp-desk/internal/domain"
)

// TemplateKey selects a document layout.
type TemplateKey string

const (
	TemplateQuote         TemplateKey = "quote"
	TemplateInvoice       TemplateKey = "invoice"
	TemplateUrssafSummary TemplateKey = "urssaf_summary"
)

// TemplateFor returns the layout of a document kind.
func TemplateFor(kind domain.DocumentKind) TemplateKey {
	if kind == domain.DocumentInvoice {
		return TemplateInvoice
	}
	return TemplateQuote
}

// ErrUnsupported is returned for an unknown key or a context of the wrong type.
var ErrUnsupported = errors.New("unsupported template")

// Renderer produces an opaque file from a template and its context.
type Renderer interface {
	Render(ctx context.Context, key TemplateKey, data any) ([]byte, error)
}

// DocumentContext feeds the quote and invoice templates.
type DocumentContext struct {
	Company  domain.Company
	Customer *domain.Customer
	Document domain.Document
	Totals   billing.Totals
}

// UrssafContext feeds the contribution summary template.
type UrssafContext struct {
	Company       domain.Company
	PeriodStart   time.Time
	PeriodEnd     time.Time
	Turnover      decimal.Decimal
	Contributions decimal.Decimal
	RateLabel     string
	Invoices      []InvoiceLine
}

// InvoiceLine is one invoice counted in an URSSAF summary.
type InvoiceLine struct {
	Number     string
	IssueDate  time.Time
	TotalMinor int64
}

// DocumentFilename is the download name of a rendered quote or invoice.
func DocumentFilename(doc domain.Document) string {
	return doc.Number + ".pdf"
}

// UrssafFilename is the download name of a rendered summary.
func UrssafFilename(start, end time.Time) string {
	return "urssaf_" + start.Format(time.DateOnly) + "_" + end.Format(time.DateOnly) + ".pdf"
}
