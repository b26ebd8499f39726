package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/erp-desk/internal/billing"
	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/repository"
)

type documentRecord struct {
	domain.Document
	seq int64
}

type subscriptionRecord struct {
	domain.Subscription
	seq int64
}

type customers tenant

func (r customers) Create(_ context.Context, c *domain.Customer) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[r.companyID]; !ok {
		return repository.ErrNotFound
	}
	id, _, now := s.next()
	c.ID = id
	c.CompanyID = r.companyID
	c.CreatedAt = now
	s.customers[id] = *c
	return nil
}

func (r customers) Get(_ context.Context, id string) (*domain.Customer, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok || c.CompanyID != r.companyID {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r customers) List(_ context.Context, limit, offset int) ([]domain.Customer, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Customer
	for _, c := range s.customers {
		if c.CompanyID == r.companyID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	if limit <= 0 {
		limit = 100
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r customers) Update(_ context.Context, c *domain.Customer) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.customers[c.ID]
	if !ok || existing.CompanyID != r.companyID {
		return repository.ErrNotFound
	}
	c.CompanyID = existing.CompanyID
	c.CreatedAt = existing.CreatedAt
	s.customers[c.ID] = *c
	return nil
}

func (r customers) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.customers[id]
	if !ok || existing.CompanyID != r.companyID {
		return repository.ErrNotFound
	}
	for _, doc := range s.documents {
		if doc.CustomerID != nil && *doc.CustomerID == id {
			return repository.ErrReferenced
		}
	}
	delete(s.customers, id)
	return nil
}

type documents tenant

func (r documents) AllocateNumber(_ context.Context, kind domain.DocumentKind, year int) (string, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[r.companyID]; !ok {
		return "", repository.ErrNotFound
	}
	return s.allocate(r.companyID, kind, year), nil
}

// allocate must be called with mu held.
func (s *Store) allocate(companyID string, kind domain.DocumentKind, year int) string {
	key := sequenceKey{companyID: companyID, kind: kind, year: year}
	var numbers []string
	for _, doc := range s.documents {
		if doc.CompanyID == companyID && doc.Kind == kind {
			numbers = append(numbers, doc.Number)
		}
	}
	next := billing.NextSequence(numbers, kind, year, s.sequences[key])
	s.sequences[key] = next
	return billing.FormatNumber(kind, year, next)
}

func (r documents) Create(_ context.Context, doc *domain.Document) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[r.companyID]; !ok {
		return repository.ErrNotFound
	}
	if doc.CustomerID != nil {
		c, ok := s.customers[*doc.CustomerID]
		if !ok || c.CompanyID != r.companyID {
			return repository.ErrNotFound
		}
	}
	doc.IssueDate = dateOf(doc.IssueDate)
	if doc.Number == "" {
		doc.Number = s.allocate(r.companyID, doc.Kind, doc.IssueDate.Year())
	}
	for _, existing := range s.documents {
		if existing.CompanyID == r.companyID && existing.Number == doc.Number {
			return repository.ErrDuplicate
		}
	}

	id, seq, now := s.next()
	doc.ID = id
	doc.CompanyID = r.companyID
	doc.CreatedAt = now
	doc.UpdatedAt = now
	items := make([]domain.LineItem, len(doc.Items))
	for i, item := range doc.Items {
		itemID, _, _ := s.next()
		item.ID = itemID
		item.Position = i
		items[i] = item
	}
	doc.Items = items
	s.documents[id] = &documentRecord{Document: copyDocument(*doc), seq: seq}
	return nil
}

func (r documents) Get(_ context.Context, kind domain.DocumentKind, id string) (*domain.Document, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.documents[id]
	if !ok || rec.CompanyID != r.companyID || rec.Kind != kind {
		return nil, repository.ErrNotFound
	}
	doc := copyDocument(rec.Document)
	return &doc, nil
}

func (r documents) List(_ context.Context, filter repository.DocumentFilter) ([]domain.Document, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*documentRecord
	for _, rec := range s.documents {
		if rec.CompanyID != r.companyID || rec.Kind != filter.Kind {
			continue
		}
		if len(filter.Statuses) > 0 && !containsDocumentStatus(filter.Statuses, rec.Status) {
			continue
		}
		if filter.IssuedFrom != nil && rec.IssueDate.Before(dateOf(*filter.IssuedFrom)) {
			continue
		}
		if filter.IssuedTo != nil && rec.IssueDate.After(dateOf(*filter.IssuedTo)) {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].IssueDate.Equal(records[j].IssueDate) {
			return records[i].IssueDate.After(records[j].IssueDate)
		}
		return records[i].Number > records[j].Number
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(records) {
			return nil, nil
		}
		records = records[filter.Offset:]
	}
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}

	result := make([]domain.Document, 0, len(records))
	for _, rec := range records {
		result = append(result, copyDocument(rec.Document))
	}
	return result, nil
}

func (r documents) UpdateStatus(_ context.Context, kind domain.DocumentKind, id string, status domain.DocumentStatus) (*domain.Document, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.documents[id]
	if !ok || rec.CompanyID != r.companyID || rec.Kind != kind {
		return nil, repository.ErrNotFound
	}
	rec.Status = status
	rec.UpdatedAt = s.now().UTC()
	doc := copyDocument(rec.Document)
	return &doc, nil
}

func copyDocument(doc domain.Document) domain.Document {
	doc.Items = append([]domain.LineItem(nil), doc.Items...)
	return doc
}

func containsDocumentStatus(statuses []domain.DocumentStatus, s domain.DocumentStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// dateOf truncates to the calendar day, matching DATE column semantics.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type turnover tenant

func (r turnover) Upsert(_ context.Context, entry *domain.TurnoverEntry) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[r.companyID]; !ok {
		return repository.ErrNotFound
	}
	entry.CompanyID = r.companyID
	entry.PeriodStart = dateOf(entry.PeriodStart)
	entry.PeriodEnd = dateOf(entry.PeriodEnd)
	entry.Amount = entry.Amount.Round(2)
	for i := range s.turnover {
		existing := &s.turnover[i]
		if existing.CompanyID == r.companyID &&
			existing.PeriodStart.Equal(entry.PeriodStart) &&
			existing.PeriodEnd.Equal(entry.PeriodEnd) &&
			existing.Source == entry.Source {
			existing.Amount = entry.Amount
			entry.ID = existing.ID
			entry.CreatedAt = existing.CreatedAt
			return nil
		}
	}
	id, _, now := s.next()
	entry.ID = id
	entry.CreatedAt = now
	s.turnover = append(s.turnover, *entry)
	return nil
}

func (r turnover) List(_ context.Context, from, to time.Time) ([]domain.TurnoverEntry, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	result := r.within(from, to)
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].PeriodStart.Equal(result[j].PeriodStart) {
			return result[i].PeriodStart.Before(result[j].PeriodStart)
		}
		return result[i].Source < result[j].Source
	})
	return result, nil
}

func (r turnover) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, entry := range s.turnover {
		if entry.ID == id && entry.CompanyID == r.companyID {
			s.turnover = append(s.turnover[:i], s.turnover[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r turnover) SumWithin(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, entry := range r.within(from, to) {
		sum = sum.Add(entry.Amount)
	}
	return sum, nil
}

func (r turnover) within(from, to time.Time) []domain.TurnoverEntry {
	from, to = dateOf(from), dateOf(to)
	var result []domain.TurnoverEntry
	for _, entry := range r.store.turnover {
		if entry.CompanyID != r.companyID {
			continue
		}
		if entry.PeriodStart.Before(from) || entry.PeriodEnd.After(to) {
			continue
		}
		result = append(result, entry)
	}
	return result
}

type subscriptions tenant

func (r subscriptions) Create(_ context.Context, sub *domain.Subscription) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[r.companyID]; !ok {
		return repository.ErrNotFound
	}
	id, seq, now := s.next()
	sub.ID = id
	sub.CompanyID = r.companyID
	sub.CreatedAt = now
	s.subscriptions = append(s.subscriptions, &subscriptionRecord{Subscription: *sub, seq: seq})
	return nil
}

func (r subscriptions) Latest(_ context.Context) (*domain.Subscription, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *subscriptionRecord
	for _, rec := range s.subscriptions {
		if rec.CompanyID == r.companyID && (latest == nil || rec.seq > latest.seq) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	sub := latest.Subscription
	return &sub, nil
}

func (r subscriptions) List(_ context.Context) ([]domain.Subscription, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Subscription
	for i := len(s.subscriptions) - 1; i >= 0; i-- {
		if s.subscriptions[i].CompanyID == r.companyID {
			result = append(result, s.subscriptions[i].Subscription)
		}
	}
	return result, nil
}
