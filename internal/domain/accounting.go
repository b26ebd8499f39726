package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TurnoverSource tells where a turnover entry came from.
type TurnoverSource string

const (
	TurnoverManual  TurnoverSource = "MANUAL"
	TurnoverInvoice TurnoverSource = "INVOICE"
	TurnoverImport  TurnoverSource = "IMPORT"
)

func (s TurnoverSource) Valid() bool {
	switch s {
	case TurnoverManual, TurnoverInvoice, TurnoverImport:
		return true
	}
	return false
}

// ParseTurnoverSource validates a raw source, defaulting to MANUAL.
func ParseTurnoverSource(raw string) (TurnoverSource, error) {
	if raw == "" {
		return TurnoverManual, nil
	}
	s := TurnoverSource(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown turnover source %q", raw)
	}
	return s, nil
}

// TurnoverEntry is turnover declared for a period outside of invoices.
// Unique per (CompanyID, PeriodStart, PeriodEnd, Source).
type TurnoverEntry struct {
	ID          string
	CompanyID   string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Amount      decimal.Decimal
	Source      TurnoverSource
	CreatedAt   time.Time
}

// LegalThresholds holds the caps of one calendar year, in euros.
type LegalThresholds struct {
	Year                     int
	MicroCapSales            int64
	MicroCapServices         int64
	VATBaseSales             int64
	VATBaseSalesTolerance    int64
	VATBaseServices          int64
	VATBaseServicesTolerance int64
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// DefaultLegalThresholds returns the caps materialized for a year with no record.
func DefaultLegalThresholds(year int) LegalThresholds {
	return LegalThresholds{
		Year:                     year,
		MicroCapSales:            188700,
		MicroCapServices:         77700,
		VATBaseSales:             85000,
		VATBaseSalesTolerance:    93500,
		VATBaseServices:          37500,
		VATBaseServicesTolerance: 41250,
	}
}
