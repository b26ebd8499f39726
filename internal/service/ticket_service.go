package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/erp-desk/internal/accounting"
	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/observability"
	"github.com/spec-kit/erp-desk/internal/repository"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows. Every side effect of an
// operation is performed here, explicitly and once.
type TicketService struct {
	store         repository.Store
	assignment    *AssignmentService
	notifications *NotificationService
	logger        *zap.Logger
	metrics       *observability.Metrics
	now           func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store         repository.Store
	Assignment    *AssignmentService
	Notifications *NotificationService
	Logger        *zap.Logger
	Metrics       *observability.Metrics
	Clock         func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	AssignedTo *string
	SearchTerm *string
	// CreatedFrom and CreatedTo are calendar days, both inclusive.
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// recentTicketCount is how many tickets Stats returns.
const recentTicketCount = 8

// TicketStats summarises the tickets of a company.
type TicketStats struct {
	Total    int
	ByStatus map[domain.TicketStatus]int
	Recent   []domain.Ticket
}

// BoardColumn is one kanban column.
type BoardColumn struct {
	Status  domain.TicketStatus
	Count   int
	Tickets []domain.Ticket
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		store:         deps.Store,
		assignment:    deps.Assignment,
		notifications: deps.Notifications,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
		now:           deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create opens a ticket at the tail of the OPEN column, then records the
// CREATED event, runs auto-assignment and requests the creation notice.
// Failures of those three steps are logged and do not undo the ticket.
func (s *TicketService) Create(ctx context.Context, companyID, actorID string, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		CreatedBy:   optional(actorID),
	}
	tenant := s.store.Tenant(companyID)
	if err := tenant.Tickets().Create(ctx, ticket); err != nil {
		return nil, mapRepoError(err, "company", map[string]any{"company_id": companyID})
	}

	created := domain.CreatedEvent(*ticket, s.now())
	if err := tenant.TicketEvents().Append(ctx, &created); err != nil {
		s.sideEffectFailed("ticket_event", ticket.ID, err)
	}

	if s.assignment != nil {
		assigned, err := s.assignment.AutoAssign(ctx, companyID, ticket.ID)
		if err != nil {
			s.sideEffectFailed("auto_assign", ticket.ID, err)
		} else {
			ticket = assigned
		}
	}

	if s.notifications != nil {
		s.notifications.TicketCreated(ctx, *ticket)
	}
	return ticket, nil
}

func (s *TicketService) Get(ctx context.Context, companyID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.store.Tenant(companyID).Tickets().Get(ctx, ticketID)
	if err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

func (s *TicketService) List(ctx context.Context, companyID string, filter TicketListFilter) ([]domain.Ticket, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	repoFilter := repository.TicketFilter{
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		AssignedTo: filter.AssignedTo,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if filter.CreatedFrom != nil && filter.CreatedTo != nil && filter.CreatedTo.Before(*filter.CreatedFrom) {
		return nil, apperrors.NewValidationError("to must not precede from", map[string]any{"field": "to"})
	}
	if filter.CreatedFrom != nil {
		from := accounting.Date(*filter.CreatedFrom)
		repoFilter.CreatedFrom = &from
	}
	if filter.CreatedTo != nil {
		before := accounting.Date(*filter.CreatedTo).AddDate(0, 0, 1)
		repoFilter.CreatedBefore = &before
	}
	tickets, err := s.store.Tenant(companyID).Tickets().List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Stats counts tickets per status and returns the most recently created ones.
func (s *TicketService) Stats(ctx context.Context, companyID string) (*TicketStats, error) {
	repo := s.store.Tenant(companyID).Tickets()
	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	recent, err := repo.List(ctx, repository.TicketFilter{Limit: recentTicketCount})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	stats := &TicketStats{ByStatus: counts, Recent: recent}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

// Board returns the five columns in display order.
func (s *TicketService) Board(ctx context.Context, companyID string) ([]BoardColumn, error) {
	repo := s.store.Tenant(companyID).Tickets()
	columns := make([]BoardColumn, 0, len(domain.TicketStatuses))
	for _, status := range domain.TicketStatuses {
		tickets, err := repo.Column(ctx, status)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		columns = append(columns, BoardColumn{Status: status, Count: len(tickets), Tickets: tickets})
	}
	return columns, nil
}

func (s *TicketService) ChangeStatus(ctx context.Context, companyID, actorID, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	return s.Update(ctx, companyID, actorID, ticketID, domain.TicketUpdate{Status: &status})
}

func (s *TicketService) ChangePriority(ctx context.Context, companyID, actorID, ticketID string, priority domain.TicketPriority) (*domain.Ticket, error) {
	return s.Update(ctx, companyID, actorID, ticketID, domain.TicketUpdate{Priority: &priority})
}

// Update applies a status and/or priority change. The prior state is read
// under the row lock, so events describe the transition actually written.
// An update that changes nothing emits no event and no notification.
func (s *TicketService) Update(ctx context.Context, companyID, actorID, ticketID string, update domain.TicketUpdate) (*domain.Ticket, error) {
	if err := update.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"ticket_id": ticketID})
	}
	at := s.now()
	ticket, events, err := s.store.Tenant(companyID).Tickets().Mutate(ctx, ticketID, func(cur domain.Ticket) (domain.Ticket, []domain.TicketEvent, error) {
		next, events := domain.Transition(cur, update, optional(actorID), at)
		return next, events, nil
	})
	if err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if len(events) > 0 && s.notifications != nil {
		s.notifications.TicketUpdated(ctx, *ticket, events)
	}
	return ticket, nil
}

// MoveToColumn moves a ticket to the tail of the status column.
func (s *TicketService) MoveToColumn(ctx context.Context, companyID, actorID, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}
	return s.Update(ctx, companyID, actorID, ticketID, domain.TicketUpdate{Status: &status})
}

// ReorderColumn sets order 0..n-1 following ids, all or nothing.
func (s *TicketService) ReorderColumn(ctx context.Context, companyID string, status domain.TicketStatus, ids []string) error {
	if !status.Valid() {
		return apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}
	if err := s.store.Tenant(companyID).Tickets().Reorder(ctx, status, ids); err != nil {
		return mapRepoError(err, "ticket", map[string]any{"status": status})
	}
	return nil
}

// AddComment stores a comment, records COMMENT_ADDED and notifies.
func (s *TicketService) AddComment(ctx context.Context, companyID, authorID, ticketID, message string) (*domain.TicketComment, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required", map[string]any{"field": "message"})
	}
	tenant := s.store.Tenant(companyID)
	ticket, err := s.Get(ctx, companyID, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &domain.TicketComment{TicketID: ticket.ID, AuthorID: optional(authorID), Message: message}
	if err := tenant.TicketActivity().AddComment(ctx, comment); err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}

	author := s.displayName(ctx, authorID)
	event := domain.CommentEvent(*comment, author)
	if err := tenant.TicketEvents().Append(ctx, &event); err != nil {
		s.sideEffectFailed("ticket_event", ticket.ID, err)
	}
	if s.notifications != nil {
		s.notifications.CommentAdded(ctx, *ticket, author, *comment)
	}
	return comment, nil
}

// AddAttachment stores a file reference, records ATTACHMENT_ADDED and notifies.
func (s *TicketService) AddAttachment(ctx context.Context, companyID, uploaderID, ticketID, fileRef string) (*domain.TicketAttachment, error) {
	fileRef = strings.TrimSpace(fileRef)
	if fileRef == "" {
		return nil, apperrors.NewValidationError("file_ref is required", map[string]any{"field": "file_ref"})
	}
	tenant := s.store.Tenant(companyID)
	ticket, err := s.Get(ctx, companyID, ticketID)
	if err != nil {
		return nil, err
	}

	attachment := &domain.TicketAttachment{TicketID: ticket.ID, UploadedBy: optional(uploaderID), FileRef: fileRef}
	if err := tenant.TicketActivity().AddAttachment(ctx, attachment); err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}

	event := domain.AttachmentEvent(*attachment)
	if err := tenant.TicketEvents().Append(ctx, &event); err != nil {
		s.sideEffectFailed("ticket_event", ticket.ID, err)
	}
	if s.notifications != nil {
		s.notifications.AttachmentAdded(ctx, *ticket, s.displayName(ctx, uploaderID), *attachment)
	}
	return attachment, nil
}

// Events returns the audit trail, newest first.
func (s *TicketService) Events(ctx context.Context, companyID, ticketID string) ([]domain.TicketEvent, error) {
	if _, err := s.Get(ctx, companyID, ticketID); err != nil {
		return nil, err
	}
	events, err := s.store.Tenant(companyID).TicketEvents().List(ctx, ticketID)
	if err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return events, nil
}

func (s *TicketService) Comments(ctx context.Context, companyID, ticketID string) ([]domain.TicketComment, error) {
	if _, err := s.Get(ctx, companyID, ticketID); err != nil {
		return nil, err
	}
	comments, err := s.store.Tenant(companyID).TicketActivity().Comments(ctx, ticketID)
	if err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return comments, nil
}

func (s *TicketService) Attachments(ctx context.Context, companyID, ticketID string) ([]domain.TicketAttachment, error) {
	if _, err := s.Get(ctx, companyID, ticketID); err != nil {
		return nil, err
	}
	attachments, err := s.store.Tenant(companyID).TicketActivity().Attachments(ctx, ticketID)
	if err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return attachments, nil
}

func (s *TicketService) displayName(ctx context.Context, userID string) string {
	if userID == "" {
		return "system"
	}
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return userID
	}
	return user.DisplayName()
}

func (s *TicketService) sideEffectFailed(name, ticketID string, err error) {
	s.metrics.RecordSideEffectFailure(name)
	s.logger.Warn("ticket side effect failed",
		zap.String("side_effect", name),
		zap.String("ticket_id", ticketID),
		zap.Error(err))
}
