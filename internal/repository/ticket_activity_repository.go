package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/erp-desk/internal/domain"
)

type ticketActivityRepository struct {
	pool      *pgxpool.Pool
	companyID string
}

func (r *ticketActivityRepository) AddComment(ctx context.Context, c *domain.TicketComment) error {
	if !validID(c.TicketID) || !validID(r.companyID) {
		return ErrNotFound
	}
	const query = `
        INSERT INTO ticket_comments (ticket_id, author_id, message)
        SELECT $1::uuid, $2::uuid, $3::text
        WHERE EXISTS (SELECT 1 FROM tickets WHERE id=$1::uuid AND company_id=$4)
        RETURNING id, created_at`
	return mapError(r.pool.QueryRow(ctx, query, c.TicketID, c.AuthorID, c.Message, r.companyID).
		Scan(&c.ID, &c.CreatedAt))
}

func (r *ticketActivityRepository) Comments(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	if !validID(ticketID) || !validID(r.companyID) {
		return nil, ErrNotFound
	}
	const query = `
        SELECT c.id, c.ticket_id, c.author_id, c.message, c.created_at
        FROM ticket_comments c JOIN tickets t ON t.id = c.ticket_id
        WHERE c.ticket_id=$1 AND t.company_id=$2
        ORDER BY c.created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID, r.companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketComment
	for rows.Next() {
		var c domain.TicketComment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.AuthorID, &c.Message, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *ticketActivityRepository) AddAttachment(ctx context.Context, a *domain.TicketAttachment) error {
	if !validID(a.TicketID) || !validID(r.companyID) {
		return ErrNotFound
	}
	const query = `
        INSERT INTO ticket_attachments (ticket_id, uploaded_by, file_ref)
        SELECT $1::uuid, $2::uuid, $3::text
        WHERE EXISTS (SELECT 1 FROM tickets WHERE id=$1::uuid AND company_id=$4)
        RETURNING id, created_at`
	return mapError(r.pool.QueryRow(ctx, query, a.TicketID, a.UploadedBy, a.FileRef, r.companyID).
		Scan(&a.ID, &a.CreatedAt))
}

func (r *ticketActivityRepository) Attachments(ctx context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	if !validID(ticketID) || !validID(r.companyID) {
		return nil, ErrNotFound
	}
	const query = `
        SELECT a.id, a.ticket_id, a.uploaded_by, a.file_ref, a.created_at
        FROM ticket_attachments a JOIN tickets t ON t.id = a.ticket_id
        WHERE a.ticket_id=$1 AND t.company_id=$2
        ORDER BY a.created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID, r.companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketAttachment
	for rows.Next() {
		var a domain.TicketAttachment
		if err := rows.Scan(&a.ID, &a.TicketID, &a.UploadedBy, &a.FileRef, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
