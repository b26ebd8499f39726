// Package memory is a process-local implementation of repository.Store used
// when no database is configured and by tests. A single mutex serializes all
// access, which gives the same atomicity the Postgres store gets from
// transactions and row locks.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/repository"
)

type membershipRecord struct {
	domain.Membership
	seq int64
}

type ticketRecord struct {
	domain.Ticket
	seq int64
}

type eventRecord struct {
	domain.TicketEvent
	seq int64
}

type sequenceKey struct {
	companyID string
	kind      domain.DocumentKind
	year      int
}

// Store keeps every table in maps guarded by mu.
type Store struct {
	mu  sync.Mutex
	seq int64
	now func() time.Time

	companies     map[string]domain.Company
	users         map[string]domain.User
	memberships   []*membershipRecord
	thresholds    map[int]domain.LegalThresholds
	tickets       map[string]*ticketRecord
	events        []*eventRecord
	comments      []domain.TicketComment
	attachments   []domain.TicketAttachment
	customers     map[string]domain.Customer
	documents     map[string]*documentRecord
	sequences     map[sequenceKey]int
	turnover      []domain.TurnoverEntry
	subscriptions []*subscriptionRecord
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		now:        time.Now,
		companies:  make(map[string]domain.Company),
		users:      make(map[string]domain.User),
		thresholds: make(map[int]domain.LegalThresholds),
		tickets:    make(map[string]*ticketRecord),
		customers:  make(map[string]domain.Customer),
		documents:  make(map[string]*documentRecord),
		sequences:  make(map[sequenceKey]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Companies() repository.CompanyRepository { return companies{s} }

func (s *Store) Users() repository.UserRepository { return users{s} }

func (s *Store) Thresholds() repository.ThresholdRepository { return thresholds{s} }

func (s *Store) Tenant(companyID string) repository.Tenant {
	return tenant{store: s, companyID: companyID}
}

// next must be called with mu held.
func (s *Store) next() (string, int64, time.Time) {
	s.seq++
	return uuid.NewString(), s.seq, s.now().UTC()
}

type tenant struct {
	store     *Store
	companyID string
}

func (t tenant) CompanyID() string { return t.companyID }

func (t tenant) Memberships() repository.MembershipRepository { return memberships(t) }

func (t tenant) Tickets() repository.TicketRepository { return tickets(t) }

func (t tenant) TicketEvents() repository.TicketEventRepository { return ticketEvents(t) }

func (t tenant) TicketActivity() repository.TicketActivityRepository { return ticketActivity(t) }

func (t tenant) Customers() repository.CustomerRepository { return customers(t) }

func (t tenant) Documents() repository.DocumentRepository { return documents(t) }

func (t tenant) Turnover() repository.TurnoverRepository { return turnover(t) }

func (t tenant) Subscriptions() repository.SubscriptionRepository { return subscriptions(t) }

type companies struct{ s *Store }

func (r companies) CreateWithOwner(_ context.Context, company *domain.Company, ownerID string) (*domain.Membership, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[ownerID]; !ok {
		return nil, repository.ErrReferenced
	}
	id, _, now := s.next()
	company.ID = id
	company.CreatedAt = now
	company.UpdatedAt = now
	s.companies[id] = *company

	mid, seq, _ := s.next()
	rec := &membershipRecord{
		Membership: domain.Membership{ID: mid, UserID: ownerID, CompanyID: id, Role: domain.RoleAdmin, CreatedAt: now},
		seq:        seq,
	}
	s.memberships = append(s.memberships, rec)
	m := rec.Membership
	return &m, nil
}

func (r companies) GetByID(_ context.Context, id string) (*domain.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.companies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r companies) Update(_ context.Context, company *domain.Company) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.companies[company.ID]
	if !ok {
		return repository.ErrNotFound
	}
	company.CreatedAt = existing.CreatedAt
	company.UpdatedAt = s.now().UTC()
	s.companies[company.ID] = *company
	return nil
}

func (r companies) MembershipsForUser(_ context.Context, userID string) ([]domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Membership
	for _, rec := range r.s.memberships {
		if rec.UserID == userID {
			result = append(result, rec.Membership)
		}
	}
	return result, nil
}

type users struct{ s *Store }

func (r users) Create(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	id, _, now := s.next()
	user.ID = id
	user.CreatedAt = now
	s.users[id] = *user
	return nil
}

func (r users) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type thresholds struct{ s *Store }

func (r thresholds) GetOrCreate(_ context.Context, defaults domain.LegalThresholds) (*domain.LegalThresholds, bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if th, ok := s.thresholds[defaults.Year]; ok {
		return &th, false, nil
	}
	now := s.now().UTC()
	defaults.CreatedAt = now
	defaults.UpdatedAt = now
	s.thresholds[defaults.Year] = defaults
	return &defaults, true, nil
}

func (r thresholds) Upsert(_ context.Context, th *domain.LegalThresholds) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	th.CreatedAt = now
	if existing, ok := s.thresholds[th.Year]; ok {
		th.CreatedAt = existing.CreatedAt
	}
	th.UpdatedAt = now
	s.thresholds[th.Year] = *th
	return nil
}

type memberships tenant

func (r memberships) Upsert(_ context.Context, m *domain.Membership) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[r.companyID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.users[m.UserID]; !ok {
		return repository.ErrNotFound
	}
	m.CompanyID = r.companyID
	for _, rec := range s.memberships {
		if rec.UserID == m.UserID && rec.CompanyID == r.companyID {
			rec.Role = m.Role
			m.ID = rec.ID
			m.CreatedAt = rec.CreatedAt
			return nil
		}
	}
	id, seq, now := s.next()
	m.ID = id
	m.CreatedAt = now
	s.memberships = append(s.memberships, &membershipRecord{Membership: *m, seq: seq})
	return nil
}

func (r memberships) Get(_ context.Context, userID string) (*domain.Membership, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.memberships {
		if rec.UserID == userID && rec.CompanyID == r.companyID {
			m := rec.Membership
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ListMembers keeps insertion order, which is creation order.
func (r memberships) ListMembers(_ context.Context) ([]domain.Member, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]*membershipRecord, 0)
	for _, rec := range s.memberships {
		if rec.CompanyID == r.companyID {
			records = append(records, rec)
		}
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].seq < records[j].seq })

	result := make([]domain.Member, 0, len(records))
	for _, rec := range records {
		result = append(result, domain.Member{Membership: rec.Membership, User: s.users[rec.UserID]})
	}
	return result, nil
}
