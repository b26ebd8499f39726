package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/features"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

// FeatureChecker denies access to features outside the company's plan.
type FeatureChecker interface {
	Require(ctx context.Context, companyID string, feature features.Feature) error
}

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowed) > 0 && !principal.HasRole(allowed...) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireFeature rejects the request with FEATURE_DISABLED when the
// company's plan does not include feature.
func RequireFeature(checker FeatureChecker, feature features.Feature) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := checker.Require(c.UserContext(), principal.CompanyID(), feature); err != nil {
			return err
		}
		return c.Next()
	}
}
