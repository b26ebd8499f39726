package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/erp-desk/internal/billing"
	"github.com/spec-kit/erp-desk/internal/domain"
)

type documentRepository struct {
	pool      *pgxpool.Pool
	companyID string
}

const documentColumns = `id, company_id, kind, customer_id, number, status, issue_date, due_date, currency, notes,
               created_by, created_at, updated_at`

func (r *documentRepository) AllocateNumber(ctx context.Context, kind domain.DocumentKind, year int) (string, error) {
	if !validID(r.companyID) {
		return "", ErrNotFound
	}
	var number string
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		number, err = allocateNumber(ctx, tx, r.companyID, kind, year)
		return err
	})
	return number, err
}

// allocateNumber locks the (company, kind, year) sequence row for the rest of
// the transaction and bumps it past both its stored value and the highest
// number already present in documents.
func allocateNumber(ctx context.Context, tx pgx.Tx, companyID string, kind domain.DocumentKind, year int) (string, error) {
	const ensure = `
        INSERT INTO document_sequences (company_id, kind, year, last_value) VALUES ($1,$2,$3,0)
        ON CONFLICT (company_id, kind, year) DO NOTHING`
	if _, err := tx.Exec(ctx, ensure, companyID, kind, year); err != nil {
		return "", mapError(err)
	}

	var last int
	const lock = `
        SELECT last_value FROM document_sequences
        WHERE company_id=$1 AND kind=$2 AND year=$3
        FOR UPDATE`
	if err := tx.QueryRow(ctx, lock, companyID, kind, year).Scan(&last); err != nil {
		return "", mapError(err)
	}

	pattern := "^" + regexp.QuoteMeta(billing.NumberPrefix(kind, year)) + "([0-9]+)$"
	var highest int
	const existing = `
        SELECT COALESCE(MAX(CAST(substring(number FROM $3) AS INTEGER)), 0)
        FROM documents WHERE company_id=$1 AND kind=$2 AND number ~ $3`
	if err := tx.QueryRow(ctx, existing, companyID, kind, pattern).Scan(&highest); err != nil {
		return "", mapError(err)
	}

	next := max(last, highest) + 1
	const bump = `UPDATE document_sequences SET last_value=$4 WHERE company_id=$1 AND kind=$2 AND year=$3`
	if _, err := tx.Exec(ctx, bump, companyID, kind, year, next); err != nil {
		return "", mapError(err)
	}
	return billing.FormatNumber(kind, year, next), nil
}

func (r *documentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if !validID(r.companyID) {
		return ErrNotFound
	}
	doc.CompanyID = r.companyID
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if doc.CustomerID != nil {
			if !validID(*doc.CustomerID) {
				return ErrNotFound
			}
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM customers WHERE company_id=$1 AND id=$2)`,
				r.companyID, *doc.CustomerID,
			).Scan(&exists); err != nil {
				return mapError(err)
			}
			if !exists {
				return ErrNotFound
			}
		}

		if doc.Number == "" {
			number, err := allocateNumber(ctx, tx, r.companyID, doc.Kind, doc.IssueDate.Year())
			if err != nil {
				return err
			}
			doc.Number = number
		}

		const insert = `
        INSERT INTO documents (company_id, kind, customer_id, number, status, issue_date, due_date, currency, notes, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, insert,
			r.companyID,
			doc.Kind,
			doc.CustomerID,
			doc.Number,
			doc.Status,
			doc.IssueDate,
			doc.DueDate,
			doc.Currency,
			doc.Notes,
			doc.CreatedBy,
		).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return mapError(err)
		}

		const insertItem = `
        INSERT INTO document_items (document_id, description, quantity, unit_price_minor, vat_rate, discount_pct, position)
        VALUES ($1, $2, $3::text::numeric, $4, $5::text::numeric, $6::text::numeric, $7)
        RETURNING id`
		for i := range doc.Items {
			item := &doc.Items[i]
			item.Position = i
			if err := tx.QueryRow(ctx, insertItem,
				doc.ID,
				item.Description,
				item.Quantity.String(),
				item.UnitPriceMinor,
				item.VATRate.String(),
				item.DiscountPct.String(),
				item.Position,
			).Scan(&item.ID); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

func (r *documentRepository) Get(ctx context.Context, kind domain.DocumentKind, id string) (*domain.Document, error) {
	if !validID(id) || !validID(r.companyID) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE company_id=$1 AND kind=$2 AND id=$3`
	doc, err := scanDocument(r.pool.QueryRow(ctx, query, r.companyID, kind, id))
	if err != nil {
		return nil, mapError(err)
	}
	docs := []domain.Document{*doc}
	if err := r.loadItems(ctx, docs); err != nil {
		return nil, err
	}
	return &docs[0], nil
}

func (r *documentRepository) List(ctx context.Context, filter DocumentFilter) ([]domain.Document, error) {
	if !validID(r.companyID) {
		return nil, nil
	}
	args := []any{r.companyID, filter.Kind}
	clauses := []string{"company_id=$1", "kind=$2"}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.IssuedFrom != nil {
		args = append(args, *filter.IssuedFrom)
		clauses = append(clauses, fmt.Sprintf("issue_date >= $%d", len(args)))
	}
	if filter.IssuedTo != nil {
		args = append(args, *filter.IssuedTo)
		clauses = append(clauses, fmt.Sprintf("issue_date <= $%d", len(args)))
	}

	query := `SELECT ` + documentColumns + ` FROM documents WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY issue_date DESC, number DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		docs = append(docs, *doc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepository) UpdateStatus(ctx context.Context, kind domain.DocumentKind, id string, status domain.DocumentStatus) (*domain.Document, error) {
	if !validID(id) || !validID(r.companyID) {
		return nil, ErrNotFound
	}
	const query = `
        UPDATE documents SET status=$1, updated_at=clock_timestamp()
        WHERE company_id=$2 AND kind=$3 AND id=$4`
	cmd, err := r.pool.Exec(ctx, query, status, r.companyID, kind, id)
	if err != nil {
		return nil, mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, kind, id)
}

// loadItems fills the Items of docs with one query.
func (r *documentRepository) loadItems(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	ids := make([]string, len(docs))
	index := make(map[string]int, len(docs))
	for i := range docs {
		ids[i] = docs[i].ID
		index[docs[i].ID] = i
	}

	const query = `
        SELECT id, document_id, description, quantity::text, unit_price_minor, vat_rate::text, discount_pct::text, position
        FROM document_items
        WHERE document_id = ANY(CAST($1::text[] AS uuid[]))
        ORDER BY document_id, position ASC`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item                    domain.LineItem
			documentID              string
			quantity, vat, discount string
		)
		if err := rows.Scan(&item.ID, &documentID, &item.Description, &quantity, &item.UnitPriceMinor, &vat, &discount, &item.Position); err != nil {
			return err
		}
		if item.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return fmt.Errorf("document item %s quantity: %w", item.ID, err)
		}
		if item.VATRate, err = decimal.NewFromString(vat); err != nil {
			return fmt.Errorf("document item %s vat_rate: %w", item.ID, err)
		}
		if item.DiscountPct, err = decimal.NewFromString(discount); err != nil {
			return fmt.Errorf("document item %s discount_pct: %w", item.ID, err)
		}
		if i, ok := index[documentID]; ok {
			docs[i].Items = append(docs[i].Items, item)
		}
	}
	return rows.Err()
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	if err := row.Scan(
		&d.ID,
		&d.CompanyID,
		&d.Kind,
		&d.CustomerID,
		&d.Number,
		&d.Status,
		&d.IssueDate,
		&d.DueDate,
		&d.Currency,
		&d.Notes,
		&d.CreatedBy,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}
