package domain

import (
	"fmt"
	"time"
)

// LegalStatus is the company's legal form.
type LegalStatus string

const (
	LegalStatusMicro  LegalStatus = "MICRO"
	LegalStatusEIReel LegalStatus = "EI_REEL"
	LegalStatusEURLIS LegalStatus = "EURL_IS"
	LegalStatusSASUIS LegalStatus = "SASU_IS"
)

// Valid reports whether s is a known legal status.
func (s LegalStatus) Valid() bool {
	switch s {
	case LegalStatusMicro, LegalStatusEIReel, LegalStatusEURLIS, LegalStatusSASUIS:
		return true
	}
	return false
}

// UrssafFrequency is how often contributions are declared.
type UrssafFrequency string

const (
	UrssafMonthly   UrssafFrequency = "MONTHLY"
	UrssafQuarterly UrssafFrequency = "QUARTERLY"
)

func (f UrssafFrequency) Valid() bool {
	switch f {
	case UrssafMonthly, UrssafQuarterly:
		return true
	}
	return false
}

// ActivityKind selects the URSSAF contribution rate and the applicable caps.
type ActivityKind string

const (
	ActivitySales        ActivityKind = "VENTES"
	ActivityServicesBIC  ActivityKind = "SERVICES_BIC"
	ActivityLiberalBNC   ActivityKind = "LIB_BNC"
	ActivityLiberalCIPAV ActivityKind = "LIB_CIPAV"
)

func (k ActivityKind) Valid() bool {
	switch k {
	case ActivitySales, ActivityServicesBIC, ActivityLiberalBNC, ActivityLiberalCIPAV:
		return true
	}
	return false
}

// IsSales reports whether goods-sale caps apply; every other kind uses the services caps.
func (k ActivityKind) IsSales() bool {
	return k == ActivitySales
}

// Company is the tenant. Every tenant-owned record carries its ID.
type Company struct {
	ID              string
	Name            string
	SIRET           string
	Email           string
	Phone           string
	Address         string
	Active          bool
	LegalStatus     LegalStatus
	UrssafFrequency UrssafFrequency
	ActivityKind    ActivityKind
	VATFranchise    bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ParseLegalStatus validates a raw legal status.
func ParseLegalStatus(raw string) (LegalStatus, error) {
	s := LegalStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown legal status %q", raw)
	}
	return s, nil
}

// ParseUrssafFrequency validates a raw declaration frequency.
func ParseUrssafFrequency(raw string) (UrssafFrequency, error) {
	f := UrssafFrequency(raw)
	if !f.Valid() {
		return "", fmt.Errorf("unknown urssaf frequency %q", raw)
	}
	return f, nil
}

// ParseActivityKind validates a raw activity kind.
func ParseActivityKind(raw string) (ActivityKind, error) {
	k := ActivityKind(raw)
	if !k.Valid() {
		return "", fmt.Errorf("unknown activity kind %q", raw)
	}
	return k, nil
}
