package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/repository"
)

type tickets tenant

func (r tickets) Create(_ context.Context, ticket *domain.Ticket) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[r.companyID]; !ok {
		return repository.ErrNotFound
	}
	ticket.CompanyID = r.companyID
	if ticket.Order == 0 {
		ticket.Order = s.nextPosition(r.companyID, ticket.Status)
	}
	id, seq, now := s.next()
	ticket.ID = id
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	s.tickets[id] = &ticketRecord{Ticket: *ticket, seq: seq}
	return nil
}

func (r tickets) Get(_ context.Context, id string) (*domain.Ticket, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.ticket(r.companyID, id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	t := rec.Ticket
	return &t, nil
}

func (r tickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var search string
	if filter.SearchTerm != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
	}
	var records []*ticketRecord
	for _, rec := range s.tickets {
		if rec.CompanyID != r.companyID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, rec.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, rec.Priority) {
			continue
		}
		if filter.AssignedTo != nil && !rec.IsAssignedTo(*filter.AssignedTo) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(rec.Title), search) &&
			!strings.Contains(strings.ToLower(rec.Description), search) {
			continue
		}
		if filter.CreatedFrom != nil && rec.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedBefore != nil && !rec.CreatedAt.Before(*filter.CreatedBefore) {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].seq > records[j].seq })

	if filter.Offset > 0 {
		if filter.Offset >= len(records) {
			return nil, nil
		}
		records = records[filter.Offset:]
	}
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return copyTickets(records), nil
}

func (r tickets) Column(_ context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTickets(s.column(r.companyID, status)), nil
}

func (r tickets) CountByStatus(_ context.Context) (map[domain.TicketStatus]int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	for _, status := range domain.TicketStatuses {
		counts[status] = 0
	}
	for _, rec := range s.tickets {
		if rec.CompanyID == r.companyID {
			counts[rec.Status]++
		}
	}
	return counts, nil
}

func (r tickets) Mutate(_ context.Context, id string, fn repository.TicketMutation) (*domain.Ticket, []domain.TicketEvent, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.ticket(r.companyID, id)
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	current := rec.Ticket
	next, events, err := fn(current)
	if err != nil {
		return nil, nil, err
	}
	if len(events) == 0 {
		return &current, nil, nil
	}

	if next.Status != current.Status {
		next.Order = s.nextPosition(r.companyID, next.Status)
	}
	next.ID = current.ID
	next.CompanyID = current.CompanyID
	next.CreatedBy = current.CreatedBy
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now().UTC()
	rec.Ticket = next

	for i := range events {
		events[i].TicketID = id
		s.appendEvent(&events[i])
	}
	return &next, events, nil
}

func (r tickets) Reorder(_ context.Context, status domain.TicketStatus, ids []string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		rec, ok := s.ticket(r.companyID, id)
		if !ok || rec.Status != status {
			return repository.ErrColumnMismatch
		}
		if _, dup := seen[id]; dup {
			return repository.ErrColumnMismatch
		}
		seen[id] = struct{}{}
	}
	for i, id := range ids {
		s.tickets[id].Order = i
	}
	return nil
}

func (s *Store) ticket(companyID, id string) (*ticketRecord, bool) {
	rec, ok := s.tickets[id]
	if !ok || rec.CompanyID != companyID {
		return nil, false
	}
	return rec, true
}

func (s *Store) column(companyID string, status domain.TicketStatus) []*ticketRecord {
	var records []*ticketRecord
	for _, rec := range s.tickets {
		if rec.CompanyID == companyID && rec.Status == status {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Order != records[j].Order {
			return records[i].Order < records[j].Order
		}
		return records[i].seq > records[j].seq
	})
	return records
}

func (s *Store) nextPosition(companyID string, status domain.TicketStatus) int {
	highest := 0
	for _, rec := range s.tickets {
		if rec.CompanyID == companyID && rec.Status == status && rec.Order > highest {
			highest = rec.Order
		}
	}
	return highest + 1
}

func (s *Store) appendEvent(event *domain.TicketEvent) {
	id, seq, now := s.next()
	event.ID = id
	event.CreatedAt = now
	s.events = append(s.events, &eventRecord{TicketEvent: *event, seq: seq})
}

func copyTickets(records []*ticketRecord) []domain.Ticket {
	result := make([]domain.Ticket, 0, len(records))
	for _, rec := range records {
		result = append(result, rec.Ticket)
	}
	return result
}

func containsStatus(statuses []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func containsPriority(priorities []domain.TicketPriority, p domain.TicketPriority) bool {
	for _, candidate := range priorities {
		if candidate == p {
			return true
		}
	}
	return false
}

type ticketEvents tenant

func (r ticketEvents) Append(_ context.Context, event *domain.TicketEvent) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ticket(r.companyID, event.TicketID); !ok {
		return repository.ErrNotFound
	}
	s.appendEvent(event)
	return nil
}

func (r ticketEvents) List(_ context.Context, ticketID string) ([]domain.TicketEvent, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ticket(r.companyID, ticketID); !ok {
		return nil, nil
	}
	var result []domain.TicketEvent
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].TicketID == ticketID {
			result = append(result, s.events[i].TicketEvent)
		}
	}
	return result, nil
}

type ticketActivity tenant

func (r ticketActivity) AddComment(_ context.Context, c *domain.TicketComment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ticket(r.companyID, c.TicketID); !ok {
		return repository.ErrNotFound
	}
	id, _, now := s.next()
	c.ID = id
	c.CreatedAt = now
	s.comments = append(s.comments, *c)
	return nil
}

func (r ticketActivity) Comments(_ context.Context, ticketID string) ([]domain.TicketComment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ticket(r.companyID, ticketID); !ok {
		return nil, nil
	}
	var result []domain.TicketComment
	for _, c := range s.comments {
		if c.TicketID == ticketID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (r ticketActivity) AddAttachment(_ context.Context, a *domain.TicketAttachment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ticket(r.companyID, a.TicketID); !ok {
		return repository.ErrNotFound
	}
	id, _, now := s.next()
	a.ID = id
	a.CreatedAt = now
	s.attachments = append(s.attachments, *a)
	return nil
}

func (r ticketActivity) Attachments(_ context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ticket(r.companyID, ticketID); !ok {
		return nil, nil
	}
	var result []domain.TicketAttachment
	for _, a := range s.attachments {
		if a.TicketID == ticketID {
			result = append(result, a)
		}
	}
	return result, nil
}
