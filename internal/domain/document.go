package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind distinguishes quotes from invoices.
type DocumentKind string

const (
	DocumentQuote   DocumentKind = "QUOTE"
	DocumentInvoice DocumentKind = "INVOICE"
)

func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentQuote, DocumentInvoice:
		return true
	}
	return false
}

// Prefix is the leading segment of the document number.
func (k DocumentKind) Prefix() string {
	switch k {
	case DocumentQuote:
		return "DEV"
	case DocumentInvoice:
		return "FAC"
	}
	return ""
}

// ParseDocumentKind accepts QUOTE/INVOICE and the plural route forms.
func ParseDocumentKind(raw string) (DocumentKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "quote", "quotes":
		return DocumentQuote, nil
	case "invoice", "invoices":
		return DocumentInvoice, nil
	}
	return "", fmt.Errorf("unknown document kind %q", raw)
}

// DocumentStatus is the lifecycle state of a quote or invoice. The valid set
// depends on the kind.
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "DRAFT"
	DocumentStatusCancelled DocumentStatus = "CANCELLED"

	QuoteStatusSent     DocumentStatus = "SENT"
	QuoteStatusAccepted DocumentStatus = "ACCEPTED"
	QuoteStatusDeclined DocumentStatus = "DECLINED"
	QuoteStatusExpired  DocumentStatus = "EXPIRED"

	InvoiceStatusIssued  DocumentStatus = "ISSUED"
	InvoiceStatusPaid    DocumentStatus = "PAID"
	InvoiceStatusOverdue DocumentStatus = "OVERDUE"
)

// AllowsStatus reports whether s belongs to the kind's lifecycle.
func (k DocumentKind) AllowsStatus(s DocumentStatus) bool {
	switch k {
	case DocumentQuote:
		switch s {
		case DocumentStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusDeclined, QuoteStatusExpired, DocumentStatusCancelled:
			return true
		}
	case DocumentInvoice:
		switch s {
		case DocumentStatusDraft, InvoiceStatusIssued, InvoiceStatusPaid, InvoiceStatusOverdue, DocumentStatusCancelled:
			return true
		}
	}
	return false
}

// LineItem is one row of a quote or invoice. UnitPriceMinor is in centimes,
// VATRate and DiscountPct are percentages.
type LineItem struct {
	ID             string
	Description    string
	Quantity       decimal.Decimal
	UnitPriceMinor int64
	VATRate        decimal.Decimal
	DiscountPct    decimal.Decimal
	Position       int
}

// Document is a quote or an invoice. Number has the form PREFIX-YYYY-NNNN and
// is unique per company. DueDate holds the validity date for quotes.
type Document struct {
	ID         string
	CompanyID  string
	Kind       DocumentKind
	CustomerID *string
	Number     string
	Status     DocumentStatus
	IssueDate  time.Time
	DueDate    *time.Time
	Currency   string
	Notes      string
	CreatedBy  *string
	Items      []LineItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CountsAsTurnover reports whether an invoice contributes to declared turnover.
func (d Document) CountsAsTurnover() bool {
	return d.Kind == DocumentInvoice && d.Status != DocumentStatusCancelled
}
