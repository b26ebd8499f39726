package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/notify"
	"github.com/spec-kit/erp-desk/internal/observability"
	"github.com/spec-kit/erp-desk/internal/repository/memory"
)

var fixedNow = time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recordingNotifier) Notify(_ context.Context, msg notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingNotifier) messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.msgs...)
}

type fixture struct {
	store     *memory.Store
	notifier  *recordingNotifier
	metrics   *observability.Metrics
	companies *CompanyService
	tickets   *TicketService
	billing   *BillingService
	account   *AccountingService
	features  *FeatureService
	owner     *domain.User
	company   *domain.Company
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	clock := func() time.Time { return fixedNow }
	store := memory.New(memory.WithClock(clock))
	notifier := &recordingNotifier{}
	metrics := observability.NewMetrics()

	companies := NewCompanyService(store, nil)
	notifications := NewNotificationService(store, notifier, nil, metrics)
	assignment := NewAssignmentService(AssignmentDependencies{Store: store, Notifications: notifications, Clock: clock})

	f := &fixture{
		store:     store,
		notifier:  notifier,
		metrics:   metrics,
		companies: companies,
		tickets: NewTicketService(TicketDependencies{
			Store:         store,
			Assignment:    assignment,
			Notifications: notifications,
			Metrics:       metrics,
			Clock:         clock,
		}),
		billing:  NewBillingService(BillingDependencies{Store: store, Metrics: metrics, Clock: clock}),
		account:  NewAccountingService(AccountingDependencies{Store: store, Clock: clock}),
		features: NewFeatureService(store, clock),
	}

	owner, err := companies.RegisterUser(ctx, "Olivia Owner", "owner@example.com")
	if err != nil {
		t.Fatalf("register owner: %v", err)
	}
	name := "Acme"
	company, _, err := companies.CreateCompany(ctx, owner.ID, CompanyInput{Name: &name})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	f.owner = owner
	f.company = company
	return f
}

// member registers a user and gives them role in the fixture company.
func (f *fixture) member(t *testing.T, name, email string, role domain.Role) *domain.User {
	t.Helper()
	ctx := context.Background()
	user, err := f.companies.RegisterUser(ctx, name, email)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	if _, err := f.companies.AddMember(ctx, f.company.ID, email, role); err != nil {
		t.Fatalf("add member %s: %v", email, err)
	}
	return user
}

// otherCompany creates a second tenant in the same store, owned by the fixture owner.
func (f *fixture) otherCompany(t *testing.T) *domain.Company {
	t.Helper()
	name := "Globex"
	company, _, err := f.companies.CreateCompany(context.Background(), f.owner.ID, CompanyInput{Name: &name})
	if err != nil {
		t.Fatalf("create second company: %v", err)
	}
	return company
}

func ptr[T any](v T) *T { return &v }
