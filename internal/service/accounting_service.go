package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/erp-desk/internal/accounting"
	"github.com/spec-kit/erp-desk/internal/billing"
	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/render"
	"github.com/spec-kit/erp-desk/internal/repository"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

// AccountingService reports turnover against the URSSAF and VAT thresholds.
type AccountingService struct {
	store    repository.Store
	renderer render.Renderer
	logger   *zap.Logger
	now      func() time.Time
}

// AccountingDependencies bundles collaborators.
type AccountingDependencies struct {
	Store    repository.Store
	Renderer render.Renderer
	Logger   *zap.Logger
	Clock    func() time.Time
}

// Dashboard summarizes a company's standing on a given day.
type Dashboard struct {
	Year          int
	Today         time.Time
	YTDTurnover   decimal.Decimal
	MicroCap      accounting.MicroCapStatus
	VAT           accounting.VATFranchise
	PeriodStart   time.Time
	PeriodEnd     time.Time
	PeriodRevenue decimal.Decimal
	Contributions decimal.Decimal
	RateLabel     string
}

// NewAccountingService constructs the service.
func NewAccountingService(deps AccountingDependencies) *AccountingService {
	s := &AccountingService{
		store:    deps.Store,
		renderer: deps.Renderer,
		logger:   deps.Logger,
		now:      deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.renderer == nil {
		s.renderer = render.NewPDFRenderer()
	}
	return s
}

// GetThresholds returns the caps of year, materializing the defaults when
// the year has no record yet.
func (s *AccountingService) GetThresholds(ctx context.Context, year int) (*domain.LegalThresholds, error) {
	if year < 1000 || year > 9999 {
		return nil, apperrors.NewValidationError("year must have four digits", map[string]any{"year": year})
	}
	th, created, err := s.store.Thresholds().GetOrCreate(ctx, domain.DefaultLegalThresholds(year))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if created {
		s.logger.Info("legal thresholds materialized with defaults", zap.Int("year", year))
	}
	return th, nil
}

// UpdateThresholds replaces the caps of th.Year.
func (s *AccountingService) UpdateThresholds(ctx context.Context, th *domain.LegalThresholds) error {
	if th.Year < 1000 || th.Year > 9999 {
		return apperrors.NewValidationError("year must have four digits", map[string]any{"year": th.Year})
	}
	for name, v := range map[string]int64{
		"micro_cap_sales":             th.MicroCapSales,
		"micro_cap_services":          th.MicroCapServices,
		"vat_base_sales":              th.VATBaseSales,
		"vat_base_sales_tolerance":    th.VATBaseSalesTolerance,
		"vat_base_services":           th.VATBaseServices,
		"vat_base_services_tolerance": th.VATBaseServicesTolerance,
	} {
		if v < 0 {
			return apperrors.NewValidationError(name+" must not be negative", map[string]any{"field": name})
		}
	}
	if th.VATBaseSalesTolerance < th.VATBaseSales || th.VATBaseServicesTolerance < th.VATBaseServices {
		return apperrors.NewValidationError("tolerance must not be below the base", nil)
	}
	if err := s.store.Thresholds().Upsert(ctx, th); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ComputeContributions estimates contributions owed on revenue.
func (s *AccountingService) ComputeContributions(kind domain.ActivityKind, revenue decimal.Decimal) decimal.Decimal {
	return accounting.ComputeContributions(kind, revenue)
}

// CurrentPeriodBounds returns the open declaration period of the company.
func (s *AccountingService) CurrentPeriodBounds(company domain.Company, today time.Time) (time.Time, time.Time) {
	return accounting.CurrentPeriodBounds(company.UrssafFrequency, today)
}

// YearToDateTurnover sums invoice totals issued from January 1st through
// today and the turnover entries lying wholly within that range.
func (s *AccountingService) YearToDateTurnover(ctx context.Context, companyID string, today time.Time) (decimal.Decimal, error) {
	from, to := accounting.YearToDateBounds(today)
	invoices, err := s.invoiceTurnover(ctx, companyID, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	declared, err := s.store.Tenant(companyID).Turnover().SumWithin(ctx, from, to)
	if err != nil {
		return decimal.Zero, apperrors.MapError(err)
	}
	return invoices.Add(declared), nil
}

// Dashboard computes the threshold report of the company for today.
func (s *AccountingService) Dashboard(ctx context.Context, companyID string, today time.Time) (*Dashboard, error) {
	if today.IsZero() {
		today = s.now()
	}
	today = accounting.Date(today)
	company, err := s.store.Companies().GetByID(ctx, companyID)
	if err != nil {
		return nil, mapRepoError(err, "company", map[string]any{"company_id": companyID})
	}
	th, err := s.GetThresholds(ctx, today.Year())
	if err != nil {
		return nil, err
	}

	periodStart, periodEnd := s.CurrentPeriodBounds(*company, today)
	var ytd, period decimal.Decimal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ytd, err = s.YearToDateTurnover(gctx, companyID, today)
		return err
	})
	g.Go(func() error {
		var err error
		period, err = s.invoiceTurnover(gctx, companyID, periodStart, periodEnd)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Dashboard{
		Year:          today.Year(),
		Today:         today,
		YTDTurnover:   ytd,
		MicroCap:      accounting.MicroCapProgress(*th, company.ActivityKind, ytd),
		VAT:           accounting.VatFranchiseStatus(*th, company.ActivityKind, ytd),
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		PeriodRevenue: period,
		Contributions: accounting.ComputeContributions(company.ActivityKind, period),
		RateLabel:     accounting.RateLabel(company.ActivityKind),
	}, nil
}

// AddTurnover records declared turnover, replacing the amount of an entry
// with the same period and source.
func (s *AccountingService) AddTurnover(ctx context.Context, companyID string, entry *domain.TurnoverEntry) error {
	if entry.Source == "" {
		entry.Source = domain.TurnoverManual
	}
	if !entry.Source.Valid() {
		return apperrors.NewValidationError("invalid source", map[string]any{"source": entry.Source})
	}
	if entry.PeriodStart.IsZero() || entry.PeriodEnd.IsZero() || entry.PeriodEnd.Before(entry.PeriodStart) {
		return apperrors.NewValidationError("period_end must not precede period_start", nil)
	}
	if entry.Amount.IsNegative() {
		return apperrors.NewValidationError("amount must not be negative", map[string]any{"field": "amount"})
	}
	entry.PeriodStart = accounting.Date(entry.PeriodStart)
	entry.PeriodEnd = accounting.Date(entry.PeriodEnd)
	entry.Amount = entry.Amount.Round(2)
	if err := s.store.Tenant(companyID).Turnover().Upsert(ctx, entry); err != nil {
		return mapRepoError(err, "turnover entry", nil)
	}
	return nil
}

func (s *AccountingService) ListTurnover(ctx context.Context, companyID string, from, to time.Time) ([]domain.TurnoverEntry, error) {
	entries, err := s.store.Tenant(companyID).Turnover().List(ctx, accounting.Date(from), accounting.Date(to))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *AccountingService) DeleteTurnover(ctx context.Context, companyID, id string) error {
	if err := s.store.Tenant(companyID).Turnover().Delete(ctx, id); err != nil {
		return mapRepoError(err, "turnover entry", map[string]any{"turnover_id": id})
	}
	return nil
}

// UrssafSummary renders the contribution summary of the current period.
func (s *AccountingService) UrssafSummary(ctx context.Context, companyID string, today time.Time) (*RenderedFile, error) {
	if today.IsZero() {
		today = s.now()
	}
	company, err := s.store.Companies().GetByID(ctx, companyID)
	if err != nil {
		return nil, mapRepoError(err, "company", map[string]any{"company_id": companyID})
	}
	start, end := s.CurrentPeriodBounds(*company, today)
	invoices, err := s.turnoverInvoices(ctx, companyID, start, end)
	if err != nil {
		return nil, err
	}

	turnover := decimal.Zero
	lines := make([]render.InvoiceLine, 0, len(invoices))
	for _, inv := range invoices {
		totals := billing.ComputeTotals(inv.Items)
		turnover = turnover.Add(totals.Total())
		lines = append(lines, render.InvoiceLine{Number: inv.Number, IssueDate: inv.IssueDate, TotalMinor: totals.TotalMinor})
	}

	content, err := s.renderer.Render(ctx, render.TemplateUrssafSummary, render.UrssafContext{
		Company:       *company,
		PeriodStart:   start,
		PeriodEnd:     end,
		Turnover:      turnover,
		Contributions: accounting.ComputeContributions(company.ActivityKind, turnover),
		RateLabel:     accounting.RateLabel(company.ActivityKind),
		Invoices:      lines,
	})
	if err != nil {
		return nil, apperrors.NewRenderFailed(err)
	}
	return &RenderedFile{Name: render.UrssafFilename(start, end), ContentType: "application/pdf", Content: content}, nil
}

func (s *AccountingService) invoiceTurnover(ctx context.Context, companyID string, from, to time.Time) (decimal.Decimal, error) {
	invoices, err := s.turnoverInvoices(ctx, companyID, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, inv := range invoices {
		total = total.Add(billing.ComputeTotals(inv.Items).Total())
	}
	return total, nil
}

// turnoverInvoices pages through the invoices issued in [from, to] that count as turnover.
func (s *AccountingService) turnoverInvoices(ctx context.Context, companyID string, from, to time.Time) ([]domain.Document, error) {
	const page = 500
	repo := s.store.Tenant(companyID).Documents()
	var out []domain.Document
	for offset := 0; ; offset += page {
		docs, err := repo.List(ctx, repository.DocumentFilter{
			Kind:       domain.DocumentInvoice,
			IssuedFrom: &from,
			IssuedTo:   &to,
			Limit:      page,
			Offset:     offset,
		})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		for _, doc := range docs {
			if doc.CountsAsTurnover() {
				out = append(out, doc)
			}
		}
		if len(docs) < page {
			return out, nil
		}
	}
}
