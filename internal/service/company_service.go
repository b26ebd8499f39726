package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/repository"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

// CompanyService manages tenants, users and memberships.
type CompanyService struct {
	store  repository.Store
	logger *zap.Logger
}

// CompanyInput carries the editable company fields. Nil fields are left untouched on update.
type CompanyInput struct {
	Name            *string
	SIRET           *string
	Email           *string
	Phone           *string
	Address         *string
	Active          *bool
	LegalStatus     *domain.LegalStatus
	UrssafFrequency *domain.UrssafFrequency
	ActivityKind    *domain.ActivityKind
	VATFranchise    *bool
}

// NewCompanyService constructs the service.
func NewCompanyService(store repository.Store, logger *zap.Logger) *CompanyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyService{store: store, logger: logger}
}

// RegisterUser creates a user; the email is unique case-insensitively.
func (s *CompanyService) RegisterUser(ctx context.Context, name, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("a valid email is required", map[string]any{"field": "email"})
	}
	user := &domain.User{Name: strings.TrimSpace(name), Email: email}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, mapRepoError(err, "user", map[string]any{"email": email})
	}
	return user, nil
}

func (s *CompanyService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, "user", map[string]any{"user_id": userID})
	}
	return user, nil
}

func (s *CompanyService) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, mapRepoError(err, "user", map[string]any{"email": email})
	}
	return user, nil
}

// CreateCompany creates the company with ownerID as its first ADMIN.
func (s *CompanyService) CreateCompany(ctx context.Context, ownerID string, input CompanyInput) (*domain.Company, *domain.Membership, error) {
	company := &domain.Company{
		Active:          true,
		LegalStatus:     domain.LegalStatusMicro,
		UrssafFrequency: domain.UrssafQuarterly,
		ActivityKind:    domain.ActivityServicesBIC,
		VATFranchise:    true,
	}
	if err := applyCompanyInput(company, input); err != nil {
		return nil, nil, err
	}
	if company.Name == "" {
		return nil, nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}

	membership, err := s.store.Companies().CreateWithOwner(ctx, company, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return nil, nil, apperrors.NewNotFound("user", map[string]any{"user_id": ownerID})
		}
		return nil, nil, mapRepoError(err, "company", nil)
	}
	s.logger.Info("company created", zap.String("company_id", company.ID), zap.String("owner_id", ownerID))
	return company, membership, nil
}

func (s *CompanyService) GetCompany(ctx context.Context, companyID string) (*domain.Company, error) {
	company, err := s.store.Companies().GetByID(ctx, companyID)
	if err != nil {
		return nil, mapRepoError(err, "company", map[string]any{"company_id": companyID})
	}
	return company, nil
}

// UpdateCompany applies the non-nil fields of input.
func (s *CompanyService) UpdateCompany(ctx context.Context, companyID string, input CompanyInput) (*domain.Company, error) {
	company, err := s.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := applyCompanyInput(company, input); err != nil {
		return nil, err
	}
	if company.Name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if err := s.store.Companies().Update(ctx, company); err != nil {
		return nil, mapRepoError(err, "company", map[string]any{"company_id": companyID})
	}
	return company, nil
}

// AddMember grants role to the user with email, creating or updating the membership.
func (s *CompanyService) AddMember(ctx context.Context, companyID, email string, role domain.Role) (*domain.Member, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}
	user, err := s.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	membership := &domain.Membership{UserID: user.ID, CompanyID: companyID, Role: role}
	if err := s.store.Tenant(companyID).Memberships().Upsert(ctx, membership); err != nil {
		return nil, mapRepoError(err, "company", map[string]any{"company_id": companyID})
	}
	return &domain.Member{Membership: *membership, User: *user}, nil
}

func (s *CompanyService) ListMembers(ctx context.Context, companyID string) ([]domain.Member, error) {
	members, err := s.store.Tenant(companyID).Memberships().ListMembers(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return members, nil
}

// ResolveMembership returns the user's membership in preferredCompany, or
// the earliest membership when preferredCompany is empty.
func (s *CompanyService) ResolveMembership(ctx context.Context, userID, preferredCompany string) (*domain.Membership, error) {
	if preferredCompany != "" {
		membership, err := s.store.Tenant(preferredCompany).Memberships().Get(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewForbidden("not a member of this company")
			}
			return nil, apperrors.MapError(err)
		}
		return membership, nil
	}
	memberships, err := s.store.Companies().MembershipsForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(memberships) == 0 {
		return nil, apperrors.NewForbidden("user has no company")
	}
	return &memberships[0], nil
}

// ResolvePrincipal loads the caller's user, membership and company.
func (s *CompanyService) ResolvePrincipal(ctx context.Context, userID, preferredCompany string) (*domain.User, *domain.Membership, *domain.Company, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return nil, nil, nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, nil, nil, err
	}
	membership, err := s.ResolveMembership(ctx, userID, preferredCompany)
	if err != nil {
		return nil, nil, nil, err
	}
	company, err := s.GetCompany(ctx, membership.CompanyID)
	if err != nil {
		return nil, nil, nil, err
	}
	return user, membership, company, nil
}

func applyCompanyInput(company *domain.Company, input CompanyInput) error {
	if input.LegalStatus != nil && !input.LegalStatus.Valid() {
		return apperrors.NewValidationError("invalid legal status", map[string]any{"legal_status": *input.LegalStatus})
	}
	if input.UrssafFrequency != nil && !input.UrssafFrequency.Valid() {
		return apperrors.NewValidationError("invalid urssaf frequency", map[string]any{"urssaf_frequency": *input.UrssafFrequency})
	}
	if input.ActivityKind != nil && !input.ActivityKind.Valid() {
		return apperrors.NewValidationError("invalid activity kind", map[string]any{"activity_kind": *input.ActivityKind})
	}
	if input.SIRET != nil {
		siret := strings.ReplaceAll(strings.TrimSpace(*input.SIRET), " ", "")
		if siret != "" && !isDigits(siret, 14) {
			return apperrors.NewValidationError("siret must have 14 digits", map[string]any{"field": "siret"})
		}
		company.SIRET = siret
	}

	setString(&company.Name, input.Name)
	setString(&company.Email, input.Email)
	setString(&company.Phone, input.Phone)
	setString(&company.Address, input.Address)
	if input.Active != nil {
		company.Active = *input.Active
	}
	if input.LegalStatus != nil {
		company.LegalStatus = *input.LegalStatus
	}
	if input.UrssafFrequency != nil {
		company.UrssafFrequency = *input.UrssafFrequency
	}
	if input.ActivityKind != nil {
		company.ActivityKind = *input.ActivityKind
	}
	if input.VATFranchise != nil {
		company.VATFranchise = *input.VATFranchise
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
