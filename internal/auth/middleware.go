package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/erp-desk/internal/domain"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"
	// CompanyHeader selects a tenant for users with several memberships.
	CompanyHeader = "X-Company-ID"
)

// Principal represents the authenticated caller inside one company.
type Principal struct {
	User       *domain.User
	Membership *domain.Membership
	Company    *domain.Company
}

// CompanyID returns the tenant every request of the principal is scoped to.
func (p *Principal) CompanyID() string {
	return p.Company.ID
}

// UserID returns the caller's user id.
func (p *Principal) UserID() string {
	return p.User.ID
}

// HasRole reports whether the caller holds one of roles.
func (p *Principal) HasRole(roles ...domain.Role) bool {
	for _, role := range roles {
		if p.Membership.Role == role {
			return true
		}
	}
	return false
}

// PrincipalResolver loads the caller's user, membership and company.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID, preferredCompany string) (*domain.User, *domain.Membership, *domain.Company, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	resolver PrincipalResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, resolver PrincipalResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, resolver: resolver}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	companyID := claims.CompanyID
	if header := strings.TrimSpace(c.Get(CompanyHeader)); header != "" {
		companyID = header
	}

	user, membership, company, err := m.resolver.ResolvePrincipal(c.UserContext(), claims.UserID, companyID)
	if err != nil {
		return err
	}
	if !company.Active {
		return apperrors.NewForbidden("company is inactive")
	}

	c.Locals(principalKey, &Principal{User: user, Membership: membership, Company: company})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// WithPrincipal stores p on the request; used by tests and internal callers.
func WithPrincipal(c *fiber.Ctx, p *Principal) {
	c.Locals(principalKey, p)
}
