package service

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/features"
	"github.com/spec-kit/erp-desk/internal/repository"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

// FeatureService resolves a company's plan and gates features on it.
type FeatureService struct {
	store repository.Store
	now   func() time.Time
}

// NewFeatureService constructs the service.
func NewFeatureService(store repository.Store, clock func() time.Time) *FeatureService {
	if clock == nil {
		clock = time.Now
	}
	return &FeatureService{store: store, now: clock}
}

// CurrentPlan returns the plan of the most recent subscription, BASIC when none exists.
func (s *FeatureService) CurrentPlan(ctx context.Context, companyID string) (domain.Plan, *domain.Subscription, error) {
	latest, err := s.store.Tenant(companyID).Subscriptions().Latest(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return features.DefaultPlan, nil, nil
		}
		return "", nil, apperrors.MapError(err)
	}
	return features.PlanOf(latest), latest, nil
}

func (s *FeatureService) IsEnabled(ctx context.Context, companyID string, feature features.Feature) (bool, error) {
	plan, _, err := s.CurrentPlan(ctx, companyID)
	if err != nil {
		return false, err
	}
	return features.Enabled(plan, feature), nil
}

// Require returns a FEATURE_DISABLED error when feature is off for the company.
func (s *FeatureService) Require(ctx context.Context, companyID string, feature features.Feature) error {
	plan, _, err := s.CurrentPlan(ctx, companyID)
	if err != nil {
		return err
	}
	if err := features.Authorize(plan, feature); err != nil {
		return apperrors.NewFeatureDisabled(string(feature))
	}
	return nil
}

// Subscribe records plan as the company's new authoritative subscription.
func (s *FeatureService) Subscribe(ctx context.Context, companyID string, plan domain.Plan) (*domain.Subscription, error) {
	if !plan.Valid() {
		return nil, apperrors.NewValidationError("invalid plan", map[string]any{"plan": plan})
	}
	sub := &domain.Subscription{
		Plan:        plan,
		Status:      domain.SubscriptionActive,
		PeriodStart: s.now(),
	}
	if err := s.store.Tenant(companyID).Subscriptions().Create(ctx, sub); err != nil {
		return nil, mapRepoError(err, "company", map[string]any{"company_id": companyID})
	}
	return sub, nil
}

func (s *FeatureService) Subscriptions(ctx context.Context, companyID string) ([]domain.Subscription, error) {
	subs, err := s.store.Tenant(companyID).Subscriptions().List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return subs, nil
}
