package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/erp-desk/internal/domain"
)

type ticketEventRepository struct {
	pool      *pgxpool.Pool
	companyID string
}

// Append inserts the event only when its ticket belongs to the bound company.
func (r *ticketEventRepository) Append(ctx context.Context, event *domain.TicketEvent) error {
	if !validID(event.TicketID) || !validID(r.companyID) {
		return ErrNotFound
	}
	const query = `
        INSERT INTO ticket_events (ticket_id, type, message, actor_id)
        SELECT $1::uuid, $2::text, $3::text, $4::uuid
        WHERE EXISTS (SELECT 1 FROM tickets WHERE id=$1::uuid AND company_id=$5)
        RETURNING id, created_at`
	return mapError(r.pool.QueryRow(ctx, query,
		event.TicketID,
		event.Type,
		event.Message,
		event.ActorID,
		r.companyID,
	).Scan(&event.ID, &event.CreatedAt))
}

func (r *ticketEventRepository) List(ctx context.Context, ticketID string) ([]domain.TicketEvent, error) {
	if !validID(ticketID) || !validID(r.companyID) {
		return nil, ErrNotFound
	}
	const query = `
        SELECT e.id, e.ticket_id, e.type, e.message, e.actor_id, e.created_at
        FROM ticket_events e JOIN tickets t ON t.id = e.ticket_id
        WHERE e.ticket_id=$1 AND t.company_id=$2
        ORDER BY e.created_at DESC, e.id DESC`
	rows, err := r.pool.Query(ctx, query, ticketID, r.companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketEvent
	for rows.Next() {
		var e domain.TicketEvent
		if err := rows.Scan(&e.ID, &e.TicketID, &e.Type, &e.Message, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// insertEvent is used inside transactions that already hold the ticket row.
func insertEvent(ctx context.Context, q querier, event *domain.TicketEvent) error {
	const query = `
        INSERT INTO ticket_events (ticket_id, type, message, actor_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return mapError(q.QueryRow(ctx, query,
		event.TicketID,
		event.Type,
		event.Message,
		event.ActorID,
	).Scan(&event.ID, &event.CreatedAt))
}
