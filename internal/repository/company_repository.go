package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/erp-desk/internal/domain"
)

type companyRepository struct {
	pool *pgxpool.Pool
}

const companyColumns = `id, name, siret, email, phone, address, active, legal_status, urssaf_frequency,
               activity_kind, vat_franchise, created_at, updated_at`

func (r *companyRepository) CreateWithOwner(ctx context.Context, company *domain.Company, ownerID string) (*domain.Membership, error) {
	if !validID(ownerID) {
		return nil, ErrNotFound
	}
	membership := &domain.Membership{UserID: ownerID, Role: domain.RoleAdmin}
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		const insertCompany = `
        INSERT INTO companies (name, siret, email, phone, address, active, legal_status, urssaf_frequency, activity_kind, vat_franchise)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, insertCompany,
			company.Name,
			company.SIRET,
			company.Email,
			company.Phone,
			company.Address,
			company.Active,
			company.LegalStatus,
			company.UrssafFrequency,
			company.ActivityKind,
			company.VATFranchise,
		).Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt); err != nil {
			return mapError(err)
		}

		membership.CompanyID = company.ID
		const insertMembership = `
        INSERT INTO memberships (user_id, company_id, role) VALUES ($1,$2,$3)
        RETURNING id, created_at`
		if err := tx.QueryRow(ctx, insertMembership, ownerID, company.ID, membership.Role).
			Scan(&membership.ID, &membership.CreatedAt); err != nil {
			return mapError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id=$1`
	var c domain.Company
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.SIRET,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.Active,
		&c.LegalStatus,
		&c.UrssafFrequency,
		&c.ActivityKind,
		&c.VATFranchise,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *companyRepository) Update(ctx context.Context, company *domain.Company) error {
	if !validID(company.ID) {
		return ErrNotFound
	}
	const query = `
        UPDATE companies SET name=$1, siret=$2, email=$3, phone=$4, address=$5, active=$6, legal_status=$7,
            urssaf_frequency=$8, activity_kind=$9, vat_franchise=$10, updated_at=clock_timestamp()
        WHERE id=$11
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		company.Name,
		company.SIRET,
		company.Email,
		company.Phone,
		company.Address,
		company.Active,
		company.LegalStatus,
		company.UrssafFrequency,
		company.ActivityKind,
		company.VATFranchise,
		company.ID,
	).Scan(&company.UpdatedAt)
	return mapError(err)
}

func (r *companyRepository) MembershipsForUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	if !validID(userID) {
		return nil, nil
	}
	const query = `
        SELECT id, user_id, company_id, role, created_at
        FROM memberships WHERE user_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.CompanyID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
