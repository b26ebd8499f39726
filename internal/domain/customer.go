package domain

import "time"

// Customer is a billing party of one company. It cannot be deleted while a
// quote or invoice references it.
type Customer struct {
	ID             string
	CompanyID      string
	Name           string
	Email          string
	Phone          string
	BillingAddress string
	VATNumber      string
	SIRET          string
	Active         bool
	CreatedAt      time.Time
}
