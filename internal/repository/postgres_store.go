package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds a Store over a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Companies() CompanyRepository {
	return &companyRepository{pool: s.pool}
}

func (s *postgresStore) Users() UserRepository {
	return &userRepository{pool: s.pool}
}

func (s *postgresStore) Thresholds() ThresholdRepository {
	return &thresholdRepository{pool: s.pool}
}

func (s *postgresStore) Tenant(companyID string) Tenant {
	return &postgresTenant{pool: s.pool, companyID: companyID}
}

type postgresTenant struct {
	pool      *pgxpool.Pool
	companyID string
}

func (t *postgresTenant) CompanyID() string { return t.companyID }

func (t *postgresTenant) Memberships() MembershipRepository {
	return &membershipRepository{pool: t.pool, companyID: t.companyID}
}

func (t *postgresTenant) Tickets() TicketRepository {
	return &ticketRepository{pool: t.pool, companyID: t.companyID}
}

func (t *postgresTenant) TicketEvents() TicketEventRepository {
	return &ticketEventRepository{pool: t.pool, companyID: t.companyID}
}

func (t *postgresTenant) TicketActivity() TicketActivityRepository {
	return &ticketActivityRepository{pool: t.pool, companyID: t.companyID}
}

func (t *postgresTenant) Customers() CustomerRepository {
	return &customerRepository{pool: t.pool, companyID: t.companyID}
}

func (t *postgresTenant) Documents() DocumentRepository {
	return &documentRepository{pool: t.pool, companyID: t.companyID}
}

func (t *postgresTenant) Turnover() TurnoverRepository {
	return &turnoverRepository{pool: t.pool, companyID: t.companyID}
}

func (t *postgresTenant) Subscriptions() SubscriptionRepository {
	return &subscriptionRepository{pool: t.pool, companyID: t.companyID}
}

// withTx runs fn in a transaction, committing when it returns nil.
func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// mapError translates driver errors into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", ErrReferenced, pgErr.ConstraintName)
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %s", ErrSerialization, pgErr.Message)
		}
	}
	return err
}

// validID filters out ids that cannot be UUIDs, which therefore match no row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// lockColumn serializes writers of one kanban column until the transaction ends.
func lockColumn(ctx context.Context, tx pgx.Tx, companyID, status string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`, companyID, "tickets:"+status)
	return err
}
