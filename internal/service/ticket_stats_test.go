package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/observability"
	"github.com/spec-kit/erp-desk/internal/repository"
	"github.com/spec-kit/erp-desk/internal/repository/memory"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

func TestTicketStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 10; i++ {
		ticket, err := f.tickets.Create(ctx, f.company.ID, f.owner.ID, TicketCreateInput{Title: "ticket"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, ticket.ID)
	}
	if _, err := f.tickets.ChangeStatus(ctx, f.company.ID, f.owner.ID, ids[0], domain.TicketStatusResolved); err != nil {
		t.Fatalf("status: %v", err)
	}
	if _, err := f.tickets.ChangeStatus(ctx, f.company.ID, f.owner.ID, ids[1], domain.TicketStatusResolved); err != nil {
		t.Fatalf("status: %v", err)
	}
	f.otherCompanyTicket(t)

	stats, err := f.tickets.Stats(ctx, f.company.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 10 {
		t.Fatalf("total = %d, want 10", stats.Total)
	}
	if stats.ByStatus[domain.TicketStatusOpen] != 8 || stats.ByStatus[domain.TicketStatusResolved] != 2 {
		t.Fatalf("by status = %v", stats.ByStatus)
	}
	if len(stats.Recent) != recentTicketCount {
		t.Fatalf("got %d recent tickets, want %d", len(stats.Recent), recentTicketCount)
	}
	if stats.Recent[0].ID != ids[9] || stats.Recent[recentTicketCount-1].ID != ids[2] {
		t.Fatalf("recent not newest first: %s .. %s", stats.Recent[0].ID, stats.Recent[recentTicketCount-1].ID)
	}
}

// otherCompanyTicket opens a ticket in a second tenant of the fixture store.
func (f *fixture) otherCompanyTicket(t *testing.T) {
	t.Helper()
	other := f.otherCompany(t)
	if _, err := f.tickets.Create(context.Background(), other.ID, f.owner.ID, TicketCreateInput{Title: "elsewhere"}); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestListFiltersByCreationDay(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := memory.New(memory.WithClock(clock))
	companies := NewCompanyService(store, nil)
	tickets := NewTicketService(TicketDependencies{Store: store, Clock: clock})

	owner, err := companies.RegisterUser(ctx, "Olivia Owner", "owner@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	name := "Acme"
	company, _, err := companies.CreateCompany(ctx, owner.ID, CompanyInput{Name: &name})
	if err != nil {
		t.Fatalf("company: %v", err)
	}

	created := map[string]string{}
	for _, at := range []time.Time{
		time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, time.May, 2, 23, 59, 0, 0, time.UTC),
		time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.May, 4, 12, 0, 0, 0, time.UTC),
	} {
		now = at
		ticket, err := tickets.Create(ctx, company.ID, owner.ID, TicketCreateInput{Title: at.Format(time.RFC3339)})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		created[ticket.ID] = ticket.Title
	}

	day := func(d int) *time.Time { return ptr(time.Date(2024, time.May, d, 0, 0, 0, 0, time.UTC)) }
	tests := []struct {
		name string
		from *time.Time
		to   *time.Time
		want int
	}{
		{name: "no bounds", want: 4},
		{name: "from only", from: day(3), want: 2},
		{name: "to only", to: day(2), want: 2},
		{name: "both inclusive", from: day(2), to: day(3), want: 2},
		{name: "single day", from: day(4), to: day(4), want: 1},
		{name: "empty range", from: day(5), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tickets.List(ctx, company.ID, TicketListFilter{CreatedFrom: tt.from, CreatedTo: tt.to})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("got %d tickets, want %d", len(got), tt.want)
			}
			for _, ticket := range got {
				if _, ok := created[ticket.ID]; !ok {
					t.Fatalf("unexpected ticket %s", ticket.ID)
				}
			}
		})
	}

	_, err = tickets.List(ctx, company.ID, TicketListFilter{CreatedFrom: day(3), CreatedTo: day(2)})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// faultyStore fails chosen tenant repositories of an otherwise working store.
type faultyStore struct {
	repository.Store
	failEvents  bool
	failMembers bool
}

func (s faultyStore) Tenant(companyID string) repository.Tenant {
	return faultyTenant{Tenant: s.Store.Tenant(companyID), store: s}
}

type faultyTenant struct {
	repository.Tenant
	store faultyStore
}

var errUnavailable = errors.New("backend unavailable")

func (t faultyTenant) TicketEvents() repository.TicketEventRepository {
	if t.store.failEvents {
		return failingEvents{t.Tenant.TicketEvents()}
	}
	return t.Tenant.TicketEvents()
}

func (t faultyTenant) Memberships() repository.MembershipRepository {
	if t.store.failMembers {
		return failingMembers{t.Tenant.Memberships()}
	}
	return t.Tenant.Memberships()
}

type failingEvents struct {
	repository.TicketEventRepository
}

func (failingEvents) Append(context.Context, *domain.TicketEvent) error { return errUnavailable }

type failingMembers struct {
	repository.MembershipRepository
}

func (failingMembers) ListMembers(context.Context) ([]domain.Member, error) {
	return nil, errUnavailable
}

func TestCreateSurvivesSideEffectFailures(t *testing.T) {
	tests := []struct {
		name        string
		store       func(repository.Store) faultyStore
		sideEffects []string
	}{
		{
			name:        "event log down",
			store:       func(s repository.Store) faultyStore { return faultyStore{Store: s, failEvents: true} },
			sideEffects: []string{"ticket_event"},
		},
		{
			name:        "member lookup down",
			store:       func(s repository.Store) faultyStore { return faultyStore{Store: s, failMembers: true} },
			sideEffects: []string{"auto_assign", "notification"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			store := tt.store(f.store)
			metrics := observability.NewMetrics()
			clock := func() time.Time { return fixedNow }
			notifications := NewNotificationService(store, f.notifier, nil, metrics)
			tickets := NewTicketService(TicketDependencies{
				Store:         store,
				Assignment:    NewAssignmentService(AssignmentDependencies{Store: store, Notifications: notifications, Clock: clock}),
				Notifications: notifications,
				Metrics:       metrics,
				Clock:         clock,
			})

			ticket, err := tickets.Create(ctx, f.company.ID, f.owner.ID, TicketCreateInput{Title: "Printer down"})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if ticket == nil || ticket.ID == "" {
				t.Fatalf("expected the created ticket, got %+v", ticket)
			}
			if _, err := f.tickets.Get(ctx, f.company.ID, ticket.ID); err != nil {
				t.Fatalf("ticket was not kept: %v", err)
			}
			for _, name := range tt.sideEffects {
				if got := metrics.SideEffectFailures(name); got != 1 {
					t.Fatalf("%s failures = %d, want 1", name, got)
				}
			}
		})
	}
}
