package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/erp-desk/internal/domain"
)

type thresholdRepository struct {
	pool *pgxpool.Pool
}

const thresholdColumns = `year, micro_cap_sales, micro_cap_services, vat_base_sales, vat_base_sales_tolerance,
               vat_base_services, vat_base_services_tolerance, created_at, updated_at`

// GetOrCreate relies on the year primary key: concurrent inserts collapse
// into one row and every caller reads that row back.
func (r *thresholdRepository) GetOrCreate(ctx context.Context, defaults domain.LegalThresholds) (*domain.LegalThresholds, bool, error) {
	const insert = `
        INSERT INTO legal_thresholds (year, micro_cap_sales, micro_cap_services, vat_base_sales,
            vat_base_sales_tolerance, vat_base_services, vat_base_services_tolerance)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (year) DO NOTHING`
	tag, err := r.pool.Exec(ctx, insert,
		defaults.Year,
		defaults.MicroCapSales,
		defaults.MicroCapServices,
		defaults.VATBaseSales,
		defaults.VATBaseSalesTolerance,
		defaults.VATBaseServices,
		defaults.VATBaseServicesTolerance,
	)
	if err != nil {
		return nil, false, mapError(err)
	}

	var th domain.LegalThresholds
	query := `SELECT ` + thresholdColumns + ` FROM legal_thresholds WHERE year=$1`
	if err := r.pool.QueryRow(ctx, query, defaults.Year).Scan(
		&th.Year,
		&th.MicroCapSales,
		&th.MicroCapServices,
		&th.VATBaseSales,
		&th.VATBaseSalesTolerance,
		&th.VATBaseServices,
		&th.VATBaseServicesTolerance,
		&th.CreatedAt,
		&th.UpdatedAt,
	); err != nil {
		return nil, false, mapError(err)
	}
	return &th, tag.RowsAffected() == 1, nil
}

func (r *thresholdRepository) Upsert(ctx context.Context, th *domain.LegalThresholds) error {
	const query = `
        INSERT INTO legal_thresholds (year, micro_cap_sales, micro_cap_services, vat_base_sales,
            vat_base_sales_tolerance, vat_base_services, vat_base_services_tolerance)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (year) DO UPDATE SET
            micro_cap_sales=EXCLUDED.micro_cap_sales,
            micro_cap_services=EXCLUDED.micro_cap_services,
            vat_base_sales=EXCLUDED.vat_base_sales,
            vat_base_sales_tolerance=EXCLUDED.vat_base_sales_tolerance,
            vat_base_services=EXCLUDED.vat_base_services,
            vat_base_services_tolerance=EXCLUDED.vat_base_services_tolerance,
            updated_at=clock_timestamp()
        RETURNING created_at, updated_at`
	return mapError(r.pool.QueryRow(ctx, query,
		th.Year,
		th.MicroCapSales,
		th.MicroCapServices,
		th.VATBaseSales,
		th.VATBaseSalesTolerance,
		th.VATBaseServices,
		th.VATBaseServicesTolerance,
	).Scan(&th.CreatedAt, &th.UpdatedAt))
}
