package service

import (
	"context"
	"time"

	"github.com/spec-kit/erp-desk/internal/auth"
	"github.com/spec-kit/erp-desk/internal/domain"
)

// SignupInput creates a user together with their first company.
type SignupInput struct {
	Name    string
	Email   string
	Company CompanyInput
}

// Session is an issued bearer token.
type Session struct {
	User      *domain.User
	Company   *domain.Company
	Role      domain.Role
	Token     string
	ExpiresAt time.Time
}

// AuthService issues bearer tokens. Credential checks happen upstream of this
// service; it only binds a known user to one of their companies.
type AuthService struct {
	companies *CompanyService
	tokens    *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(companies *CompanyService, tokens *auth.TokenManager) *AuthService {
	return &AuthService{companies: companies, tokens: tokens}
}

// Signup registers the user, creates their company with them as ADMIN and
// returns a token pinned to it.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*Session, error) {
	user, err := s.companies.RegisterUser(ctx, input.Name, input.Email)
	if err != nil {
		return nil, err
	}
	company, membership, err := s.companies.CreateCompany(ctx, user.ID, input.Company)
	if err != nil {
		return nil, err
	}
	return s.session(user, membership, company)
}

// IssueToken returns a token for the user with email in companyID, or in
// their earliest company when companyID is empty.
func (s *AuthService) IssueToken(ctx context.Context, email, companyID string) (*Session, error) {
	user, err := s.companies.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	_, membership, company, err := s.companies.ResolvePrincipal(ctx, user.ID, companyID)
	if err != nil {
		return nil, err
	}
	return s.session(user, membership, company)
}

func (s *AuthService) session(user *domain.User, membership *domain.Membership, company *domain.Company) (*Session, error) {
	token, exp, err := s.tokens.GenerateToken(user.ID, company.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Company: company, Role: membership.Role, Token: token, ExpiresAt: exp}, nil
}
