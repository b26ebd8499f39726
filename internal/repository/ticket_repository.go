package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/erp-desk/internal/domain"
)

type ticketRepository struct {
	pool      *pgxpool.Pool
	companyID string
}

const ticketColumns = `id, company_id, title, description, status, priority, created_by, assigned_to,
               position, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if !validID(r.companyID) {
		return ErrNotFound
	}
	ticket.CompanyID = r.companyID
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockColumn(ctx, tx, r.companyID, string(ticket.Status)); err != nil {
			return mapError(err)
		}
		if ticket.Order == 0 {
			next, err := nextPosition(ctx, tx, r.companyID, ticket.Status)
			if err != nil {
				return err
			}
			ticket.Order = next
		}

		const query = `
        INSERT INTO tickets (company_id, title, description, status, priority, created_by, assigned_to, position)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
		return mapError(tx.QueryRow(ctx, query,
			r.companyID,
			ticket.Title,
			ticket.Description,
			ticket.Status,
			ticket.Priority,
			ticket.CreatedBy,
			ticket.AssignedTo,
			ticket.Order,
		).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt))
	})
}

func (r *ticketRepository) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	if !validID(id) || !validID(r.companyID) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE company_id=$1 AND id=$2`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, r.companyID, id))
	if err != nil {
		return nil, mapError(err)
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	if !validID(r.companyID) {
		return nil, nil
	}
	args := []any{r.companyID}
	clauses := []string{"company_id=$1"}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.AssignedTo != nil {
		if !validID(*filter.AssignedTo) {
			return nil, nil
		}
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", len(args), len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedBefore != nil {
		args = append(args, *filter.CreatedBefore)
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return r.query(ctx, query, args...)
}

func (r *ticketRepository) Column(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	if !validID(r.companyID) {
		return nil, nil
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE company_id=$1 AND status=$2
        ORDER BY position ASC, created_at DESC`
	return r.query(ctx, query, r.companyID, status)
}

func (r *ticketRepository) CountByStatus(ctx context.Context) (map[domain.TicketStatus]int, error) {
	counts := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	for _, s := range domain.TicketStatuses {
		counts[s] = 0
	}
	if !validID(r.companyID) {
		return counts, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM tickets WHERE company_id=$1 GROUP BY status`, r.companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status domain.TicketStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *ticketRepository) Mutate(ctx context.Context, id string, fn TicketMutation) (*domain.Ticket, []domain.TicketEvent, error) {
	if !validID(id) || !validID(r.companyID) {
		return nil, nil, ErrNotFound
	}

	var (
		result  *domain.Ticket
		written []domain.TicketEvent
	)
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `SELECT ` + ticketColumns + ` FROM tickets WHERE company_id=$1 AND id=$2 FOR UPDATE`
		current, err := scanTicket(tx.QueryRow(ctx, query, r.companyID, id))
		if err != nil {
			return mapError(err)
		}

		next, events, err := fn(*current)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			result = current
			return nil
		}

		if next.Status != current.Status {
			if err := lockColumn(ctx, tx, r.companyID, string(next.Status)); err != nil {
				return mapError(err)
			}
			position, err := nextPosition(ctx, tx, r.companyID, next.Status)
			if err != nil {
				return err
			}
			next.Order = position
		}

		const update = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4, assigned_to=$5, position=$6,
            updated_at=clock_timestamp()
        WHERE company_id=$7 AND id=$8
        RETURNING updated_at`
		if err := tx.QueryRow(ctx, update,
			next.Title,
			next.Description,
			next.Status,
			next.Priority,
			next.AssignedTo,
			next.Order,
			r.companyID,
			id,
		).Scan(&next.UpdatedAt); err != nil {
			return mapError(err)
		}

		for i := range events {
			events[i].TicketID = id
			if err := insertEvent(ctx, tx, &events[i]); err != nil {
				return err
			}
		}
		result = &next
		written = events
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, written, nil
}

func (r *ticketRepository) Reorder(ctx context.Context, status domain.TicketStatus, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if !validID(id) {
			return ErrColumnMismatch
		}
		seen[id] = struct{}{}
	}
	if len(seen) != len(ids) {
		return ErrColumnMismatch
	}
	if len(ids) == 0 {
		return nil
	}
	if !validID(r.companyID) {
		return ErrColumnMismatch
	}

	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockColumn(ctx, tx, r.companyID, string(status)); err != nil {
			return mapError(err)
		}

		const check = `
        SELECT id FROM tickets
        WHERE company_id=$1 AND status=$2 AND id = ANY(CAST($3::text[] AS uuid[]))
        FOR UPDATE`
		rows, err := tx.Query(ctx, check, r.companyID, status, ids)
		if err != nil {
			return mapError(err)
		}
		matched := 0
		for rows.Next() {
			matched++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return mapError(err)
		}
		if matched != len(ids) {
			return ErrColumnMismatch
		}

		const update = `
        UPDATE tickets AS t SET position = v.ord - 1
        FROM unnest(CAST($3::text[] AS uuid[])) WITH ORDINALITY AS v(id, ord)
        WHERE t.id = v.id AND t.company_id=$1 AND t.status=$2`
		tag, err := tx.Exec(ctx, update, r.companyID, status, ids)
		if err != nil {
			return mapError(err)
		}
		if int(tag.RowsAffected()) != len(ids) {
			return ErrColumnMismatch
		}
		return nil
	})
}

func (r *ticketRepository) query(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

func nextPosition(ctx context.Context, q querier, companyID string, status domain.TicketStatus) (int, error) {
	var next int
	err := q.QueryRow(ctx,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM tickets WHERE company_id=$1 AND status=$2`,
		companyID, status,
	).Scan(&next)
	return next, mapError(err)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := row.Scan(
		&t.ID,
		&t.CompanyID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.CreatedBy,
		&t.AssignedTo,
		&t.Order,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
