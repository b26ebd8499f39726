package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/erp-desk/internal/domain"
)

type membershipRepository struct {
	pool      *pgxpool.Pool
	companyID string
}

func (r *membershipRepository) Upsert(ctx context.Context, m *domain.Membership) error {
	if !validID(m.UserID) || !validID(r.companyID) {
		return ErrNotFound
	}
	const query = `
        INSERT INTO memberships (user_id, company_id, role) VALUES ($1,$2,$3)
        ON CONFLICT (user_id, company_id) DO UPDATE SET role=EXCLUDED.role
        RETURNING id, created_at`
	m.CompanyID = r.companyID
	return mapError(r.pool.QueryRow(ctx, query, m.UserID, r.companyID, m.Role).Scan(&m.ID, &m.CreatedAt))
}

func (r *membershipRepository) Get(ctx context.Context, userID string) (*domain.Membership, error) {
	if !validID(userID) || !validID(r.companyID) {
		return nil, ErrNotFound
	}
	const query = `
        SELECT id, user_id, company_id, role, created_at
        FROM memberships WHERE company_id=$1 AND user_id=$2`
	var m domain.Membership
	if err := r.pool.QueryRow(ctx, query, r.companyID, userID).
		Scan(&m.ID, &m.UserID, &m.CompanyID, &m.Role, &m.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &m, nil
}

func (r *membershipRepository) ListMembers(ctx context.Context) ([]domain.Member, error) {
	if !validID(r.companyID) {
		return nil, nil
	}
	const query = `
        SELECT m.id, m.user_id, m.company_id, m.role, m.created_at, u.id, u.name, u.email, u.created_at
        FROM memberships m JOIN users u ON u.id = m.user_id
        WHERE m.company_id=$1
        ORDER BY m.created_at ASC, m.id ASC`
	rows, err := r.pool.Query(ctx, query, r.companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(
			&m.ID,
			&m.UserID,
			&m.CompanyID,
			&m.Role,
			&m.CreatedAt,
			&m.User.ID,
			&m.User.Name,
			&m.User.Email,
			&m.User.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
