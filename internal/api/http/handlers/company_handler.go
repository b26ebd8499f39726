package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/erp-desk/internal/api/dto"
	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/features"
	"github.com/spec-kit/erp-desk/internal/service"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

// CompanyHandler serves sign-up, token, company, member and subscription endpoints.
type CompanyHandler struct {
	auth      *service.AuthService
	companies *service.CompanyService
	features  *service.FeatureService
}

// NewCompanyHandler constructs handler.
func NewCompanyHandler(authService *service.AuthService, companies *service.CompanyService, featureService *service.FeatureService) *CompanyHandler {
	return &CompanyHandler{auth: authService, companies: companies, features: featureService}
}

// Signup POST /auth/signup.
func (h *CompanyHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	session, err := h.auth.Signup(c.UserContext(), service.SignupInput{
		Name:    req.Name,
		Email:   req.Email,
		Company: companyInput(req.Company),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sessionResponse(session)})
}

// Token POST /auth/token.
func (h *CompanyHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	session, err := h.auth.IssueToken(c.UserContext(), req.Email, req.CompanyID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// GetCompany GET /company.
func (h *CompanyHandler) GetCompany(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	company, err := h.companies.GetCompany(c.UserContext(), p.CompanyID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCompanyResponse(*company)})
}

// UpdateCompany PATCH /company.
func (h *CompanyHandler) UpdateCompany(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CompanyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	company, err := h.companies.UpdateCompany(c.UserContext(), p.CompanyID(), companyInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCompanyResponse(*company)})
}

// ListMembers GET /company/members.
func (h *CompanyHandler) ListMembers(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	members, err := h.companies.ListMembers(c.UserContext(), p.CompanyID())
	if err != nil {
		return err
	}
	resp := make([]dto.MemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, dto.NewMemberResponse(m))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// AddMember POST /company/members.
func (h *CompanyHandler) AddMember(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.AddMemberRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	member, err := h.companies.AddMember(c.UserContext(), p.CompanyID(), req.Email, req.Role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewMemberResponse(*member)})
}

// GetSubscription GET /company/subscription.
func (h *CompanyHandler) GetSubscription(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	plan, sub, err := h.features.CurrentPlan(c.UserContext(), p.CompanyID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": subscriptionResponse(plan, sub)})
}

// Subscribe POST /company/subscription.
func (h *CompanyHandler) Subscribe(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.SubscribeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	plan, err := domain.ParsePlan(req.Plan)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "plan"})
	}
	sub, err := h.features.Subscribe(c.UserContext(), p.CompanyID(), plan)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": subscriptionResponse(sub.Plan, sub)})
}

func companyInput(req dto.CompanyRequest) service.CompanyInput {
	return service.CompanyInput{
		Name:            req.Name,
		SIRET:           req.SIRET,
		Email:           req.Email,
		Phone:           req.Phone,
		Address:         req.Address,
		Active:          req.Active,
		LegalStatus:     req.LegalStatus,
		UrssafFrequency: req.UrssafFrequency,
		ActivityKind:    req.ActivityKind,
		VATFranchise:    req.VATFranchise,
	}
}

func sessionResponse(s *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		User:      dto.NewUserResponse(*s.User),
		Company:   dto.NewCompanyResponse(*s.Company),
		Role:      s.Role,
	}
}

func subscriptionResponse(plan domain.Plan, sub *domain.Subscription) dto.SubscriptionResponse {
	resp := dto.SubscriptionResponse{Plan: plan, Features: make(map[string]bool, len(features.All))}
	for _, f := range features.All {
		resp.Features[string(f)] = false
	}
	for _, f := range features.For(plan) {
		resp.Features[string(f)] = true
	}
	if sub != nil {
		resp.Status = sub.Status
		resp.PeriodStart = &sub.PeriodStart
		resp.PeriodEnd = sub.PeriodEnd
	}
	return resp
}
