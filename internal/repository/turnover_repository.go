package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/erp-desk/internal/domain"
)

type turnoverRepository struct {
	pool      *pgxpool.Pool
	companyID string
}

func (r *turnoverRepository) Upsert(ctx context.Context, entry *domain.TurnoverEntry) error {
	if !validID(r.companyID) {
		return ErrNotFound
	}
	const query = `
        INSERT INTO turnover_entries (company_id, period_start, period_end, amount, source)
        VALUES ($1, $2, $3, $4::text::numeric, $5)
        ON CONFLICT (company_id, period_start, period_end, source)
        DO UPDATE SET amount = EXCLUDED.amount
        RETURNING id, created_at`
	entry.CompanyID = r.companyID
	return mapError(r.pool.QueryRow(ctx, query,
		r.companyID,
		entry.PeriodStart,
		entry.PeriodEnd,
		entry.Amount.StringFixed(2),
		entry.Source,
	).Scan(&entry.ID, &entry.CreatedAt))
}

func (r *turnoverRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) || !validID(r.companyID) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM turnover_entries WHERE company_id=$1 AND id=$2`, r.companyID, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *turnoverRepository) List(ctx context.Context, from, to time.Time) ([]domain.TurnoverEntry, error) {
	if !validID(r.companyID) {
		return nil, nil
	}
	const query = `
        SELECT id, company_id, period_start, period_end, amount::text, source, created_at
        FROM turnover_entries
        WHERE company_id=$1 AND period_start >= $2 AND period_end <= $3
        ORDER BY period_start ASC, source ASC`
	rows, err := r.pool.Query(ctx, query, r.companyID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TurnoverEntry
	for rows.Next() {
		entry, err := scanTurnoverEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, rows.Err()
}

func (r *turnoverRepository) SumWithin(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	if !validID(r.companyID) {
		return decimal.Zero, nil
	}
	const query = `
        SELECT COALESCE(SUM(amount), 0)::text
        FROM turnover_entries
        WHERE company_id=$1 AND period_start >= $2 AND period_end <= $3`
	var raw string
	if err := r.pool.QueryRow(ctx, query, r.companyID, from, to).Scan(&raw); err != nil {
		return decimal.Zero, mapError(err)
	}
	sum, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("turnover sum: %w", err)
	}
	return sum, nil
}

func scanTurnoverEntry(row pgx.Row) (*domain.TurnoverEntry, error) {
	var (
		e      domain.TurnoverEntry
		amount string
	)
	if err := row.Scan(&e.ID, &e.CompanyID, &e.PeriodStart, &e.PeriodEnd, &amount, &e.Source, &e.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("turnover entry %s amount: %w", e.ID, err)
	}
	e.Amount = parsed
	return &e, nil
}
