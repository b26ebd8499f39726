// Package features maps subscription plans to the capabilities they unlock.
// A disabled feature must be treated as an authorization denial by callers.
package features

import (
	"errors"

	"github.com/spec-kit/erp-desk/internal/domain"
)

// Feature is a gated capability key.
type Feature string

const (
	Tickets  Feature = "tickets"
	Quotes   Feature = "quotes"
	Invoices Feature = "invoices"
)

// ErrDisabled is returned by Authorize when the plan does not include the feature.
var ErrDisabled = errors.New("feature disabled for plan")

var table = map[domain.Plan]map[Feature]bool{
	domain.PlanBasic:      {Tickets: true, Quotes: true, Invoices: false},
	domain.PlanPro:        {Tickets: true, Quotes: true, Invoices: true},
	domain.PlanEnterprise: {Tickets: true, Quotes: true, Invoices: true},
}

// DefaultPlan applies to companies that never subscribed.
const DefaultPlan = domain.PlanBasic

// Enabled looks up feature for plan. Unknown plans and features are disabled.
func Enabled(plan domain.Plan, feature Feature) bool {
	return table[plan][feature]
}

// PlanOf returns the plan of the authoritative subscription, or DefaultPlan when there is none.
func PlanOf(latest *domain.Subscription) domain.Plan {
	if latest == nil {
		return DefaultPlan
	}
	return latest.Plan
}

// Authorize returns ErrDisabled when feature is off for plan.
func Authorize(plan domain.Plan, feature Feature) error {
	if !Enabled(plan, feature) {
		return ErrDisabled
	}
	return nil
}

// All lists every gated feature.
var All = []Feature{Tickets, Quotes, Invoices}

// For lists the enabled features of plan.
func For(plan domain.Plan) []Feature {
	out := make([]Feature, 0, len(All))
	for _, f := range All {
		if Enabled(plan, f) {
			out = append(out, f)
		}
	}
	return out
}
