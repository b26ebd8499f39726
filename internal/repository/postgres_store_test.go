package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/persistence"
)

// openTestStore connects to TEST_DATABASE_URL and applies the migrations.
// Tests are skipped when the variable is unset.
func openTestStore(t *testing.T) (Store, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewPostgresStore(pool), pool
}

func seedTenant(t *testing.T, store Store) (Tenant, domain.User) {
	t.Helper()
	ctx := context.Background()
	owner := domain.User{Name: "owner", Email: uuid.NewString() + "@example.com"}
	if err := store.Users().Create(ctx, &owner); err != nil {
		t.Fatalf("create user: %v", err)
	}
	company := domain.Company{
		Name:            "test " + owner.Email,
		Active:          true,
		LegalStatus:     domain.LegalStatusMicro,
		UrssafFrequency: domain.UrssafQuarterly,
		ActivityKind:    domain.ActivityServicesBIC,
	}
	if _, err := store.Companies().CreateWithOwner(ctx, &company, owner.ID); err != nil {
		t.Fatalf("create company: %v", err)
	}
	return store.Tenant(company.ID), owner
}

func TestPostgresAllocateNumberConcurrent(t *testing.T) {
	store, _ := openTestStore(t)
	tenant, _ := seedTenant(t, store)
	ctx := context.Background()

	const n = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := tenant.Documents().AllocateNumber(ctx, domain.DocumentInvoice, 2025)
			if err != nil {
				t.Errorf("allocate: %v", err)
				return
			}
			mu.Lock()
			seen[number] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(seen) != n || !seen["FAC-2025-0001"] || !seen["FAC-2025-0020"] {
		t.Fatalf("allocated %d distinct numbers: %v", len(seen), seen)
	}
}

func TestPostgresReorderMismatchWritesNothing(t *testing.T) {
	store, _ := openTestStore(t)
	tenant, owner := seedTenant(t, store)
	other, _ := seedTenant(t, store)
	ctx := context.Background()

	mine := domain.Ticket{Title: "a", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityLow, CreatedBy: &owner.ID}
	foreign := domain.Ticket{Title: "b", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityLow}
	if err := tenant.Tickets().Create(ctx, &mine); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := other.Tickets().Create(ctx, &foreign); err != nil {
		t.Fatalf("create foreign: %v", err)
	}

	err := tenant.Tickets().Reorder(ctx, domain.TicketStatusOpen, []string{foreign.ID, mine.ID})
	if !errors.Is(err, ErrColumnMismatch) {
		t.Fatalf("Reorder with foreign id = %v", err)
	}
	got, err := tenant.Tickets().Get(ctx, mine.ID)
	if err != nil || got.Order != 1 {
		t.Fatalf("ticket after failed reorder = %+v, %v", got, err)
	}
	if _, err := other.Tickets().Get(ctx, mine.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant Get = %v", err)
	}
}

func TestPostgresThresholdsGetOrCreateTwice(t *testing.T) {
	store, pool := openTestStore(t)
	ctx := context.Background()
	year := 3000 + int(time.Now().UnixNano()%1000)
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM legal_thresholds WHERE year=$1`, year) })

	_, created, err := store.Thresholds().GetOrCreate(ctx, domain.DefaultLegalThresholds(year))
	if err != nil || !created {
		t.Fatalf("first = %v created=%v", err, created)
	}
	th, created, err := store.Thresholds().GetOrCreate(ctx, domain.DefaultLegalThresholds(year))
	if err != nil || created || th.MicroCapSales != 188700 {
		t.Fatalf("second = %+v, created=%v, %v", th, created, err)
	}
}

func TestPostgresTicketCountsAndCreatedWindow(t *testing.T) {
	store, _ := openTestStore(t)
	tenant, _ := seedTenant(t, store)
	ctx := context.Background()

	for _, status := range []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusOpen, domain.TicketStatusClosed} {
		ticket := domain.Ticket{Title: "t", Status: status, Priority: domain.TicketPriorityLow}
		if err := tenant.Tickets().Create(ctx, &ticket); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	counts, err := tenant.Tickets().CountByStatus(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[domain.TicketStatusOpen] != 2 || counts[domain.TicketStatusClosed] != 1 {
		t.Fatalf("counts = %v", counts)
	}

	now := time.Now()
	hour := now.Add(-time.Hour)
	later := now.Add(time.Hour)
	got, err := tenant.Tickets().List(ctx, TicketFilter{CreatedFrom: &hour, CreatedBefore: &later, Limit: 10})
	if err != nil || len(got) != 3 {
		t.Fatalf("window list = %d tickets, %v", len(got), err)
	}
	got, err = tenant.Tickets().List(ctx, TicketFilter{CreatedBefore: &hour, Limit: 10})
	if err != nil || len(got) != 0 {
		t.Fatalf("before window = %d tickets, %v", len(got), err)
	}
}
