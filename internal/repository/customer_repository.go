package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/erp-desk/internal/domain"
)

type customerRepository struct {
	pool      *pgxpool.Pool
	companyID string
}

const customerColumns = `id, company_id, name, email, phone, billing_address, vat_number, siret, active, created_at`

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	if !validID(r.companyID) {
		return ErrNotFound
	}
	const query = `
        INSERT INTO customers (company_id, name, email, phone, billing_address, vat_number, siret, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	c.CompanyID = r.companyID
	return mapError(r.pool.QueryRow(ctx, query,
		r.companyID,
		c.Name,
		c.Email,
		c.Phone,
		c.BillingAddress,
		c.VATNumber,
		c.SIRET,
		c.Active,
	).Scan(&c.ID, &c.CreatedAt))
}

func (r *customerRepository) Get(ctx context.Context, id string) (*domain.Customer, error) {
	if !validID(id) || !validID(r.companyID) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE company_id=$1 AND id=$2`
	var c domain.Customer
	if err := r.pool.QueryRow(ctx, query, r.companyID, id).Scan(
		&c.ID,
		&c.CompanyID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.BillingAddress,
		&c.VATNumber,
		&c.SIRET,
		&c.Active,
		&c.CreatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *customerRepository) List(ctx context.Context, limit, offset int) ([]domain.Customer, error) {
	if !validID(r.companyID) {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE company_id=$1 ORDER BY name ASC, id ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, r.companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(
			&c.ID,
			&c.CompanyID,
			&c.Name,
			&c.Email,
			&c.Phone,
			&c.BillingAddress,
			&c.VATNumber,
			&c.SIRET,
			&c.Active,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *customerRepository) Update(ctx context.Context, c *domain.Customer) error {
	if !validID(c.ID) || !validID(r.companyID) {
		return ErrNotFound
	}
	const query = `
        UPDATE customers SET name=$1, email=$2, phone=$3, billing_address=$4, vat_number=$5, siret=$6, active=$7
        WHERE company_id=$8 AND id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		c.Name,
		c.Email,
		c.Phone,
		c.BillingAddress,
		c.VATNumber,
		c.SIRET,
		c.Active,
		r.companyID,
		c.ID,
	)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete relies on the RESTRICT foreign key from documents.
func (r *customerRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) || !validID(r.companyID) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE company_id=$1 AND id=$2`, r.companyID, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
