package domain

import (
	"fmt"
	"strings"
	"time"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanBasic      Plan = "BASIC"
	PlanPro        Plan = "PRO"
	PlanEnterprise Plan = "ENTERPRISE"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanBasic, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// ParsePlan validates a raw plan.
func ParsePlan(raw string) (Plan, error) {
	p := Plan(strings.ToUpper(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown plan %q", raw)
	}
	return p, nil
}

// SubscriptionStatus is the billing state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionPastDue   SubscriptionStatus = "PAST_DUE"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionCancelled, SubscriptionPastDue:
		return true
	}
	return false
}

// Subscription records a plan choice. The most recently created one is authoritative.
type Subscription struct {
	ID          string
	CompanyID   string
	Plan        Plan
	Status      SubscriptionStatus
	PeriodStart time.Time
	PeriodEnd   *time.Time
	CreatedAt   time.Time
}
