package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/erp-desk/internal/domain"
)

var (
	// ErrNotFound covers both missing rows and rows owned by another company.
	ErrNotFound = errors.New("not found")
	// ErrColumnMismatch rejects a reorder whose ids are not exactly tickets of the column.
	ErrColumnMismatch = errors.New("ticket ids do not match column")
	// ErrReferenced rejects deleting a row other rows still point to.
	ErrReferenced = errors.New("still referenced")
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate")
	// ErrSerialization reports a lost serialization race; the operation may be retried.
	ErrSerialization = errors.New("serialization failure")
)

// Store is the entry point to persistence. Company-owned data is only
// reachable through Tenant, which binds every query to one company.
type Store interface {
	Companies() CompanyRepository
	Users() UserRepository
	Thresholds() ThresholdRepository
	Tenant(companyID string) Tenant
}

// Tenant exposes the repositories of a single company.
type Tenant interface {
	CompanyID() string
	Memberships() MembershipRepository
	Tickets() TicketRepository
	TicketEvents() TicketEventRepository
	TicketActivity() TicketActivityRepository
	Customers() CustomerRepository
	Documents() DocumentRepository
	Turnover() TurnoverRepository
	Subscriptions() SubscriptionRepository
}

// CompanyRepository manages tenants themselves.
type CompanyRepository interface {
	// CreateWithOwner inserts company and an ADMIN membership for ownerID atomically.
	CreateWithOwner(ctx context.Context, company *domain.Company, ownerID string) (*domain.Membership, error)
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	Update(ctx context.Context, company *domain.Company) error
	// MembershipsForUser lists the user's memberships, oldest first.
	MembershipsForUser(ctx context.Context, userID string) ([]domain.Membership, error)
}

// UserRepository manages users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ThresholdRepository stores one LegalThresholds row per year.
type ThresholdRepository interface {
	// GetOrCreate returns the row for defaults.Year, inserting defaults when absent.
	// Concurrent callers observe a single row.
	GetOrCreate(ctx context.Context, defaults domain.LegalThresholds) (*domain.LegalThresholds, bool, error)
	Upsert(ctx context.Context, thresholds *domain.LegalThresholds) error
}

// MembershipRepository manages the members of the bound company.
type MembershipRepository interface {
	// Upsert creates the membership or updates the role of an existing one.
	Upsert(ctx context.Context, membership *domain.Membership) error
	Get(ctx context.Context, userID string) (*domain.Membership, error)
	// ListMembers returns members ordered by membership creation.
	ListMembers(ctx context.Context) ([]domain.Member, error)
}

// TicketFilter narrows ticket listings.
type TicketFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	AssignedTo *string
	SearchTerm *string
	// CreatedFrom is inclusive, CreatedBefore exclusive.
	CreatedFrom   *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// TicketMutation receives the current ticket, read under a row lock, and
// returns the ticket to persist with the events describing the change. When it
// returns no events nothing is written.
type TicketMutation func(current domain.Ticket) (domain.Ticket, []domain.TicketEvent, error)

// TicketRepository manages the tickets of the bound company.
type TicketRepository interface {
	// Create inserts ticket. A zero Order is replaced by the column maximum + 1.
	Create(ctx context.Context, ticket *domain.Ticket) error
	Get(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// Column lists one status column ordered by Order, newest first on ties.
	Column(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context) (map[domain.TicketStatus]int, error)
	// Mutate applies fn and persists its result and events in one transaction.
	// A ticket whose status changes is moved to the tail of its new column.
	Mutate(ctx context.Context, id string, fn TicketMutation) (*domain.Ticket, []domain.TicketEvent, error)
	// Reorder sets Order 0..n-1 following ids. It fails with ErrColumnMismatch,
	// writing nothing, unless ids are distinct tickets of the status column.
	Reorder(ctx context.Context, status domain.TicketStatus, ids []string) error
}

// TicketEventRepository is the append-only audit log.
type TicketEventRepository interface {
	Append(ctx context.Context, event *domain.TicketEvent) error
	// List returns the events of a ticket, newest first.
	List(ctx context.Context, ticketID string) ([]domain.TicketEvent, error)
}

// TicketActivityRepository stores comments and attachments.
type TicketActivityRepository interface {
	AddComment(ctx context.Context, comment *domain.TicketComment) error
	Comments(ctx context.Context, ticketID string) ([]domain.TicketComment, error)
	AddAttachment(ctx context.Context, attachment *domain.TicketAttachment) error
	Attachments(ctx context.Context, ticketID string) ([]domain.TicketAttachment, error)
}

// CustomerRepository manages billing parties.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Get(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context, limit, offset int) ([]domain.Customer, error)
	Update(ctx context.Context, customer *domain.Customer) error
	// Delete fails with ErrReferenced while a document uses the customer.
	Delete(ctx context.Context, id string) error
}

// DocumentFilter narrows document listings. Dates are inclusive.
type DocumentFilter struct {
	Kind       domain.DocumentKind
	Statuses   []domain.DocumentStatus
	IssuedFrom *time.Time
	IssuedTo   *time.Time
	Limit      int
	Offset     int
}

// DocumentRepository manages quotes and invoices.
type DocumentRepository interface {
	// AllocateNumber reserves the next number of (kind, year). Allocation is
	// serialized per (company, kind, year) and a number is never handed out twice.
	AllocateNumber(ctx context.Context, kind domain.DocumentKind, year int) (string, error)
	// Create inserts the document with its items. An empty Number is
	// allocated in the same transaction from the issue date's year.
	Create(ctx context.Context, doc *domain.Document) error
	Get(ctx context.Context, kind domain.DocumentKind, id string) (*domain.Document, error)
	// List returns matching documents with their items, newest issue date first.
	List(ctx context.Context, filter DocumentFilter) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, kind domain.DocumentKind, id string, status domain.DocumentStatus) (*domain.Document, error)
}

// TurnoverRepository stores declared turnover.
type TurnoverRepository interface {
	// Upsert inserts the entry or replaces the amount of the entry with the same period and source.
	Upsert(ctx context.Context, entry *domain.TurnoverEntry) error
	List(ctx context.Context, from, to time.Time) ([]domain.TurnoverEntry, error)
	Delete(ctx context.Context, id string) error
	// SumWithin totals entries whose whole period lies within [from, to].
	SumWithin(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

// SubscriptionRepository stores plan history.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	// Latest returns the most recently created subscription or ErrNotFound.
	Latest(ctx context.Context) (*domain.Subscription, error)
	List(ctx context.Context) ([]domain.Subscription, error)
}
