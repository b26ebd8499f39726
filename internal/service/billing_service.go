package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/erp-desk/internal/accounting"
	"github.com/spec-kit/erp-desk/internal/billing"
	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/observability"
	"github.com/spec-kit/erp-desk/internal/render"
	"github.com/spec-kit/erp-desk/internal/repository"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

// numberingAttempts bounds retries of a numbering transaction that lost a serialization race.
const numberingAttempts = 3

// DocumentArchive keeps a copy of rendered documents.
type DocumentArchive interface {
	Put(ctx context.Context, companyID, filename, contentType string, body []byte) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
}

// BillingService manages customers, quotes and invoices.
type BillingService struct {
	store    repository.Store
	renderer render.Renderer
	archive  DocumentArchive
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// BillingDependencies bundles collaborators. Archive may be nil.
type BillingDependencies struct {
	Store    repository.Store
	Renderer render.Renderer
	Archive  DocumentArchive
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Clock    func() time.Time
}

// DocumentInput describes a new quote or invoice.
type DocumentInput struct {
	CustomerID *string
	Status     domain.DocumentStatus
	IssueDate  time.Time
	DueDate    *time.Time
	Currency   string
	Notes      string
	Items      []domain.LineItem
}

// DocumentListFilter narrows listings.
type DocumentListFilter struct {
	Statuses   []domain.DocumentStatus
	IssuedFrom *time.Time
	IssuedTo   *time.Time
	Limit      int
	Offset     int
}

// RenderedFile is a downloadable rendering. ArchiveKey and ArchiveURL are
// set only when the copy was archived.
type RenderedFile struct {
	Name        string
	ContentType string
	Content     []byte
	ArchiveKey  string
	ArchiveURL  string
}

// NewBillingService constructs the service.
func NewBillingService(deps BillingDependencies) *BillingService {
	s := &BillingService{
		store:    deps.Store,
		renderer: deps.Renderer,
		archive:  deps.Archive,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
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

// NextNumber reserves the next number of kind for year, the current year when zero.
func (s *BillingService) NextNumber(ctx context.Context, companyID string, kind domain.DocumentKind, year int) (string, error) {
	if !kind.Valid() {
		return "", apperrors.NewValidationError("invalid document kind", map[string]any{"kind": kind})
	}
	if year == 0 {
		year = s.now().Year()
	}
	if year < 1000 || year > 9999 {
		return "", apperrors.NewValidationError("year must have four digits", map[string]any{"year": year})
	}
	var number string
	err := retrySerialization(ctx, func() error {
		var err error
		number, err = s.store.Tenant(companyID).Documents().AllocateNumber(ctx, kind, year)
		return err
	})
	if err != nil {
		return "", mapRepoError(err, "company", map[string]any{"company_id": companyID})
	}
	return number, nil
}

// Customers

func (s *BillingService) CreateCustomer(ctx context.Context, companyID string, customer *domain.Customer) error {
	if err := validateCustomer(customer); err != nil {
		return err
	}
	customer.Active = true
	if err := s.store.Tenant(companyID).Customers().Create(ctx, customer); err != nil {
		return mapRepoError(err, "customer", nil)
	}
	return nil
}

func (s *BillingService) GetCustomer(ctx context.Context, companyID, customerID string) (*domain.Customer, error) {
	customer, err := s.store.Tenant(companyID).Customers().Get(ctx, customerID)
	if err != nil {
		return nil, mapRepoError(err, "customer", map[string]any{"customer_id": customerID})
	}
	return customer, nil
}

func (s *BillingService) ListCustomers(ctx context.Context, companyID string, limit, offset int) ([]domain.Customer, error) {
	customers, err := s.store.Tenant(companyID).Customers().List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return customers, nil
}

func (s *BillingService) UpdateCustomer(ctx context.Context, companyID string, customer *domain.Customer) error {
	if err := validateCustomer(customer); err != nil {
		return err
	}
	if err := s.store.Tenant(companyID).Customers().Update(ctx, customer); err != nil {
		return mapRepoError(err, "customer", map[string]any{"customer_id": customer.ID})
	}
	return nil
}

// DeleteCustomer fails with CONFLICT while a quote or invoice references the customer.
func (s *BillingService) DeleteCustomer(ctx context.Context, companyID, customerID string) error {
	if err := s.store.Tenant(companyID).Customers().Delete(ctx, customerID); err != nil {
		return mapRepoError(err, "customer", map[string]any{"customer_id": customerID})
	}
	return nil
}

func validateCustomer(customer *domain.Customer) error {
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Email = strings.TrimSpace(customer.Email)
	if customer.Name == "" {
		return apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	return nil
}

// Documents

// CreateDocument inserts a quote or invoice; its number is allocated from the
// issue date's year in the same transaction.
func (s *BillingService) CreateDocument(ctx context.Context, companyID, actorID string, kind domain.DocumentKind, input DocumentInput) (*domain.Document, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidationError("invalid document kind", map[string]any{"kind": kind})
	}
	status := input.Status
	if status == "" {
		status = domain.DocumentStatusDraft
	}
	if !kind.AllowsStatus(status) {
		return nil, apperrors.NewValidationError("invalid status for "+strings.ToLower(string(kind)), map[string]any{"status": status})
	}
	if err := billing.ValidateItems(input.Items); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	issueDate := input.IssueDate
	if issueDate.IsZero() {
		issueDate = s.now()
	}
	if input.DueDate != nil && input.DueDate.Before(accounting.Date(issueDate)) {
		return nil, apperrors.NewValidationError("due date precedes issue date", map[string]any{"field": "due_date"})
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "EUR"
	}
	if len(currency) != 3 {
		return nil, apperrors.NewValidationError("currency must be an ISO 4217 code", map[string]any{"currency": input.Currency})
	}

	var doc *domain.Document
	err := retrySerialization(ctx, func() error {
		doc = &domain.Document{
			Kind:       kind,
			CustomerID: input.CustomerID,
			Status:     status,
			IssueDate:  issueDate,
			DueDate:    input.DueDate,
			Currency:   currency,
			Notes:      strings.TrimSpace(input.Notes),
			CreatedBy:  optional(actorID),
			Items:      append([]domain.LineItem(nil), input.Items...),
		}
		return s.store.Tenant(companyID).Documents().Create(ctx, doc)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": input.CustomerID})
		}
		return nil, mapRepoError(err, strings.ToLower(string(kind)), nil)
	}
	s.logger.Info("document created",
		zap.String("company_id", companyID),
		zap.String("kind", string(kind)),
		zap.String("number", doc.Number))
	return doc, nil
}

func (s *BillingService) GetDocument(ctx context.Context, companyID string, kind domain.DocumentKind, id string) (*domain.Document, error) {
	doc, err := s.store.Tenant(companyID).Documents().Get(ctx, kind, id)
	if err != nil {
		return nil, mapRepoError(err, strings.ToLower(string(kind)), map[string]any{"id": id})
	}
	return doc, nil
}

func (s *BillingService) ListDocuments(ctx context.Context, companyID string, kind domain.DocumentKind, filter DocumentListFilter) ([]domain.Document, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	docs, err := s.store.Tenant(companyID).Documents().List(ctx, repository.DocumentFilter{
		Kind:       kind,
		Statuses:   filter.Statuses,
		IssuedFrom: filter.IssuedFrom,
		IssuedTo:   filter.IssuedTo,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return docs, nil
}

// UpdateDocumentStatus moves a document to a status of its kind's lifecycle.
func (s *BillingService) UpdateDocumentStatus(ctx context.Context, companyID string, kind domain.DocumentKind, id string, status domain.DocumentStatus) (*domain.Document, error) {
	if !kind.AllowsStatus(status) {
		return nil, apperrors.NewValidationError("invalid status for "+strings.ToLower(string(kind)), map[string]any{"status": status})
	}
	doc, err := s.store.Tenant(companyID).Documents().UpdateStatus(ctx, kind, id, status)
	if err != nil {
		return nil, mapRepoError(err, strings.ToLower(string(kind)), map[string]any{"id": id})
	}
	return doc, nil
}

// Totals computes the document totals from its items.
func (s *BillingService) Totals(doc domain.Document) billing.Totals {
	return billing.ComputeTotals(doc.Items)
}

// RenderDocument renders the PDF of a quote or invoice. A rendering failure
// fails the request; an archive failure is only logged.
func (s *BillingService) RenderDocument(ctx context.Context, companyID string, kind domain.DocumentKind, id string) (*RenderedFile, error) {
	doc, err := s.GetDocument(ctx, companyID, kind, id)
	if err != nil {
		return nil, err
	}
	company, err := s.store.Companies().GetByID(ctx, companyID)
	if err != nil {
		return nil, mapRepoError(err, "company", map[string]any{"company_id": companyID})
	}
	var customer *domain.Customer
	if doc.CustomerID != nil {
		customer, err = s.store.Tenant(companyID).Customers().Get(ctx, *doc.CustomerID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.MapError(err)
		}
	}

	content, err := s.renderer.Render(ctx, render.TemplateFor(kind), render.DocumentContext{
		Company:  *company,
		Customer: customer,
		Document: *doc,
		Totals:   billing.ComputeTotals(doc.Items),
	})
	if err != nil {
		return nil, apperrors.NewRenderFailed(err)
	}

	file := &RenderedFile{Name: render.DocumentFilename(*doc), ContentType: "application/pdf", Content: content}
	s.archiveFile(ctx, companyID, file)
	return file, nil
}

func (s *BillingService) archiveFile(ctx context.Context, companyID string, file *RenderedFile) {
	if s.archive == nil {
		return
	}
	key, err := s.archive.Put(ctx, companyID, file.Name, file.ContentType, file.Content)
	if err != nil {
		s.metrics.RecordSideEffectFailure("archive")
		s.logger.Warn("archive rendered document failed",
			zap.String("company_id", companyID),
			zap.String("file", file.Name),
			zap.Error(err))
		return
	}
	file.ArchiveKey = key
	if url, err := s.archive.PresignGet(ctx, key); err == nil {
		file.ArchiveURL = url
	} else {
		s.logger.Warn("presign archived document failed", zap.String("key", key), zap.Error(err))
	}
}

// retrySerialization reruns fn while it loses serialization races.
func retrySerialization(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < numberingAttempts; attempt++ {
		if err = fn(); !errors.Is(err, repository.ErrSerialization) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}
