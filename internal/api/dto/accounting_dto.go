package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/erp-desk/internal/accounting"
	"github.com/spec-kit/erp-desk/internal/domain"
)

// ThresholdsRequest replaces the caps of one year, in euros.
type ThresholdsRequest struct {
	MicroCapSales            int64 `json:"micro_cap_sales"`
	MicroCapServices         int64 `json:"micro_cap_services"`
	VATBaseSales             int64 `json:"vat_base_sales"`
	VATBaseSalesTolerance    int64 `json:"vat_base_sales_tolerance"`
	VATBaseServices          int64 `json:"vat_base_services"`
	VATBaseServicesTolerance int64 `json:"vat_base_services_tolerance"`
}

// ThresholdsResponse represents a year's caps.
type ThresholdsResponse struct {
	Year int `json:"year"`
	ThresholdsRequest
	UpdatedAt time.Time `json:"updated_at"`
}

// TurnoverRequest declares turnover for a period.
type TurnoverRequest struct {
	PeriodStart string          `json:"period_start"`
	PeriodEnd   string          `json:"period_end"`
	Amount      decimal.Decimal `json:"amount"`
	Source      string          `json:"source"`
}

// TurnoverResponse represents a declared turnover entry.
type TurnoverResponse struct {
	ID          string                `json:"id"`
	PeriodStart string                `json:"period_start"`
	PeriodEnd   string                `json:"period_end"`
	Amount      decimal.Decimal       `json:"amount"`
	Source      domain.TurnoverSource `json:"source"`
	CreatedAt   time.Time             `json:"created_at"`
}

// DashboardResponse is the threshold report.
type DashboardResponse struct {
	Year        int             `json:"year"`
	Today       string          `json:"today"`
	YTDTurnover decimal.Decimal `json:"ytd_turnover"`
	MicroCap    struct {
		Cap      int64   `json:"cap"`
		Progress float64 `json:"progress"`
		Exceeded bool    `json:"exceeded"`
	} `json:"micro_cap"`
	VAT struct {
		Base              int64                  `json:"base"`
		Tolerance         int64                  `json:"tolerance"`
		BaseProgress      float64                `json:"base_progress"`
		ToleranceProgress float64                `json:"tolerance_progress"`
		Status            accounting.VATPosition `json:"status"`
	} `json:"vat"`
	Period struct {
		Start         string          `json:"start"`
		End           string          `json:"end"`
		Revenue       decimal.Decimal `json:"revenue"`
		Contributions decimal.Decimal `json:"contributions"`
		RateLabel     string          `json:"rate_label"`
	} `json:"period"`
}

func NewThresholdsResponse(th domain.LegalThresholds) ThresholdsResponse {
	return ThresholdsResponse{
		Year: th.Year,
		ThresholdsRequest: ThresholdsRequest{
			MicroCapSales:            th.MicroCapSales,
			MicroCapServices:         th.MicroCapServices,
			VATBaseSales:             th.VATBaseSales,
			VATBaseSalesTolerance:    th.VATBaseSalesTolerance,
			VATBaseServices:          th.VATBaseServices,
			VATBaseServicesTolerance: th.VATBaseServicesTolerance,
		},
		UpdatedAt: th.UpdatedAt,
	}
}

func (r ThresholdsRequest) Thresholds(year int) *domain.LegalThresholds {
	return &domain.LegalThresholds{
		Year:                     year,
		MicroCapSales:            r.MicroCapSales,
		MicroCapServices:         r.MicroCapServices,
		VATBaseSales:             r.VATBaseSales,
		VATBaseSalesTolerance:    r.VATBaseSalesTolerance,
		VATBaseServices:          r.VATBaseServices,
		VATBaseServicesTolerance: r.VATBaseServicesTolerance,
	}
}

func NewTurnoverResponse(e domain.TurnoverEntry) TurnoverResponse {
	return TurnoverResponse{
		ID:          e.ID,
		PeriodStart: e.PeriodStart.Format(time.DateOnly),
		PeriodEnd:   e.PeriodEnd.Format(time.DateOnly),
		Amount:      e.Amount,
		Source:      e.Source,
		CreatedAt:   e.CreatedAt,
	}
}
