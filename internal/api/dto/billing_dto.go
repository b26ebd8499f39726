package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/erp-desk/internal/billing"
	"github.com/spec-kit/erp-desk/internal/domain"
)

// CustomerRequest payload.
type CustomerRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	BillingAddress string `json:"billing_address"`
	VATNumber      string `json:"vat_number"`
	SIRET          string `json:"siret"`
	Active         *bool  `json:"active"`
}

// CustomerResponse represents a customer.
type CustomerResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	BillingAddress string    `json:"billing_address"`
	VATNumber      string    `json:"vat_number"`
	SIRET          string    `json:"siret"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

// LineItemRequest is one document row. Decimals are accepted as JSON strings or numbers.
type LineItemRequest struct {
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPriceMinor int64           `json:"unit_price_minor"`
	VATRate        decimal.Decimal `json:"vat_rate"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
}

// DocumentRequest creates a quote or invoice. ValidUntil is the quote alias of DueDate.
type DocumentRequest struct {
	CustomerID *string               `json:"customer_id"`
	Status     domain.DocumentStatus `json:"status"`
	IssueDate  string                `json:"issue_date"`
	DueDate    string                `json:"due_date"`
	ValidUntil string                `json:"valid_until"`
	Currency   string                `json:"currency"`
	Notes      string                `json:"notes"`
	Items      []LineItemRequest     `json:"items"`
}

// DocumentStatusRequest payload.
type DocumentStatusRequest struct {
	Status domain.DocumentStatus `json:"status"`
}

// LineItemResponse is one document row with its computed amounts.
type LineItemResponse struct {
	ID             string          `json:"id"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPriceMinor int64           `json:"unit_price_minor"`
	VATRate        decimal.Decimal `json:"vat_rate"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
	Position       int             `json:"position"`
}

// TotalsResponse in minor units.
type TotalsResponse struct {
	SubtotalMinor int64 `json:"subtotal_minor"`
	TaxMinor      int64 `json:"tax_minor"`
	TotalMinor    int64 `json:"total_minor"`
}

// DocumentResponse represents a quote or invoice.
type DocumentResponse struct {
	ID         string                `json:"id"`
	Kind       domain.DocumentKind   `json:"kind"`
	Number     string                `json:"number"`
	CustomerID *string               `json:"customer_id"`
	Status     domain.DocumentStatus `json:"status"`
	IssueDate  string                `json:"issue_date"`
	DueDate    *string               `json:"due_date"`
	Currency   string                `json:"currency"`
	Notes      string                `json:"notes"`
	Items      []LineItemResponse    `json:"items"`
	Totals     TotalsResponse        `json:"totals"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// NumberResponse carries a reserved document number.
type NumberResponse struct {
	Number string `json:"number"`
}

func NewCustomerResponse(c domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		BillingAddress: c.BillingAddress,
		VATNumber:      c.VATNumber,
		SIRET:          c.SIRET,
		Active:         c.Active,
		CreatedAt:      c.CreatedAt,
	}
}

func (r CustomerRequest) Customer(id string) *domain.Customer {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return &domain.Customer{
		ID:             id,
		Name:           r.Name,
		Email:          r.Email,
		Phone:          r.Phone,
		BillingAddress: r.BillingAddress,
		VATNumber:      r.VATNumber,
		SIRET:          r.SIRET,
		Active:         active,
	}
}

func (r LineItemRequest) LineItem() domain.LineItem {
	return domain.LineItem{
		Description:    r.Description,
		Quantity:       r.Quantity,
		UnitPriceMinor: r.UnitPriceMinor,
		VATRate:        r.VATRate,
		DiscountPct:    r.DiscountPct,
	}
}

func NewDocumentResponse(d domain.Document) DocumentResponse {
	items := make([]LineItemResponse, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, LineItemResponse{
			ID:             it.ID,
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPriceMinor: it.UnitPriceMinor,
			VATRate:        it.VATRate,
			DiscountPct:    it.DiscountPct,
			Position:       it.Position,
		})
	}
	totals := billing.ComputeTotals(d.Items)
	resp := DocumentResponse{
		ID:         d.ID,
		Kind:       d.Kind,
		Number:     d.Number,
		CustomerID: d.CustomerID,
		Status:     d.Status,
		IssueDate:  d.IssueDate.Format(time.DateOnly),
		Currency:   d.Currency,
		Notes:      d.Notes,
		Items:      items,
		Totals:     TotalsResponse{SubtotalMinor: totals.SubtotalMinor, TaxMinor: totals.TaxMinor, TotalMinor: totals.TotalMinor},
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if d.DueDate != nil {
		due := d.DueDate.Format(time.DateOnly)
		resp.DueDate = &due
	}
	return resp
}
