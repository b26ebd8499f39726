package dto

import (
	"time"

	"github.com/spec-kit/erp-desk/internal/domain"
)

// SignupRequest registers a user with their first company.
type SignupRequest struct {
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Company CompanyRequest `json:"company"`
}

// TokenRequest exchanges an email for a bearer token.
type TokenRequest struct {
	Email     string `json:"email"`
	CompanyID string `json:"company_id"`
}

// SessionResponse carries an issued token.
type SessionResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      UserResponse    `json:"user"`
	Company   CompanyResponse `json:"company"`
	Role      domain.Role     `json:"role"`
}

// CompanyRequest holds editable company fields.
type CompanyRequest struct {
	Name            *string                 `json:"name"`
	SIRET           *string                 `json:"siret"`
	Email           *string                 `json:"email"`
	Phone           *string                 `json:"phone"`
	Address         *string                 `json:"address"`
	Active          *bool                   `json:"active"`
	LegalStatus     *domain.LegalStatus     `json:"legal_status"`
	UrssafFrequency *domain.UrssafFrequency `json:"urssaf_frequency"`
	ActivityKind    *domain.ActivityKind    `json:"activity_kind"`
	VATFranchise    *bool                   `json:"vat_franchise"`
}

// CompanyResponse represents a company.
type CompanyResponse struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	SIRET           string                 `json:"siret"`
	Email           string                 `json:"email"`
	Phone           string                 `json:"phone"`
	Address         string                 `json:"address"`
	Active          bool                   `json:"active"`
	LegalStatus     domain.LegalStatus     `json:"legal_status"`
	UrssafFrequency domain.UrssafFrequency `json:"urssaf_frequency"`
	ActivityKind    domain.ActivityKind    `json:"activity_kind"`
	VATFranchise    bool                   `json:"vat_franchise"`
	CreatedAt       time.Time              `json:"created_at"`
}

// UserResponse represents a user.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AddMemberRequest grants a role to an existing user.
type AddMemberRequest struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// MemberResponse represents a membership.
type MemberResponse struct {
	User      UserResponse `json:"user"`
	Role      domain.Role  `json:"role"`
	CreatedAt time.Time    `json:"created_at"`
}

// SubscribeRequest selects a plan.
type SubscribeRequest struct {
	Plan string `json:"plan"`
}

// SubscriptionResponse describes the current plan.
type SubscriptionResponse struct {
	Plan        domain.Plan               `json:"plan"`
	Status      domain.SubscriptionStatus `json:"status,omitempty"`
	PeriodStart *time.Time                `json:"period_start,omitempty"`
	PeriodEnd   *time.Time                `json:"period_end,omitempty"`
	Features    map[string]bool           `json:"features"`
}

func NewCompanyResponse(c domain.Company) CompanyResponse {
	return CompanyResponse{
		ID:              c.ID,
		Name:            c.Name,
		SIRET:           c.SIRET,
		Email:           c.Email,
		Phone:           c.Phone,
		Address:         c.Address,
		Active:          c.Active,
		LegalStatus:     c.LegalStatus,
		UrssafFrequency: c.UrssafFrequency,
		ActivityKind:    c.ActivityKind,
		VATFranchise:    c.VATFranchise,
		CreatedAt:       c.CreatedAt,
	}
}

func NewUserResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func NewMemberResponse(m domain.Member) MemberResponse {
	return MemberResponse{User: NewUserResponse(m.User), Role: m.Role, CreatedAt: m.CreatedAt}
}
