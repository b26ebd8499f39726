package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/erp-desk/internal/domain"
)

type subscriptionRepository struct {
	pool      *pgxpool.Pool
	companyID string
}

const subscriptionColumns = `id, company_id, plan, status, period_start, period_end, created_at`

func (r *subscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	if !validID(r.companyID) {
		return ErrNotFound
	}
	const query = `
        INSERT INTO subscriptions (company_id, plan, status, period_start, period_end)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	sub.CompanyID = r.companyID
	return mapError(r.pool.QueryRow(ctx, query,
		r.companyID,
		sub.Plan,
		sub.Status,
		sub.PeriodStart,
		sub.PeriodEnd,
	).Scan(&sub.ID, &sub.CreatedAt))
}

func (r *subscriptionRepository) Latest(ctx context.Context) (*domain.Subscription, error) {
	if !validID(r.companyID) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE company_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1`
	sub, err := scanSubscription(r.pool.QueryRow(ctx, query, r.companyID))
	if err != nil {
		return nil, mapError(err)
	}
	return sub, nil
}

func (r *subscriptionRepository) List(ctx context.Context) ([]domain.Subscription, error) {
	if !validID(r.companyID) {
		return nil, nil
	}
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE company_id=$1 ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, r.companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sub)
	}
	return result, rows.Err()
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	if err := row.Scan(&s.ID, &s.CompanyID, &s.Plan, &s.Status, &s.PeriodStart, &s.PeriodEnd, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
