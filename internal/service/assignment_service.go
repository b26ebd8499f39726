package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/repository"
)

// AssignmentService applies the auto-assignment policy.
type AssignmentService struct {
	store         repository.Store
	notifications *NotificationService
	logger        *zap.Logger
	now           func() time.Time
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	Store         repository.Store
	Notifications *NotificationService
	Logger        *zap.Logger
	Clock         func() time.Time
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	s := &AssignmentService{
		store:         deps.Store,
		notifications: deps.Notifications,
		logger:        deps.Logger,
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

// PickAssignee returns the first MANAGER, else the first ADMIN, in membership
// creation order. It returns nil when the company has neither.
func PickAssignee(members []domain.Member) *domain.Member {
	for _, role := range []domain.Role{domain.RoleManager, domain.RoleAdmin} {
		for i := range members {
			if members[i].Role == role {
				return &members[i]
			}
		}
	}
	return nil
}

// AutoAssign assigns ticketID following PickAssignee. The ticket is returned
// unchanged when there is no candidate or the candidate already holds it.
func (s *AssignmentService) AutoAssign(ctx context.Context, companyID, ticketID string) (*domain.Ticket, error) {
	tenant := s.store.Tenant(companyID)
	members, err := tenant.Memberships().ListMembers(ctx)
	if err != nil {
		return nil, mapRepoError(err, "company", map[string]any{"company_id": companyID})
	}
	target := PickAssignee(members)
	if target == nil {
		ticket, err := tenant.Tickets().Get(ctx, ticketID)
		if err != nil {
			return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
		}
		s.logger.Debug("no assignee candidate", zap.String("ticket_id", ticketID))
		return ticket, nil
	}

	ticket, events, err := tenant.Tickets().Mutate(ctx, ticketID, func(cur domain.Ticket) (domain.Ticket, []domain.TicketEvent, error) {
		next, events := domain.Assign(cur, target.User, nil, s.now())
		return next, events, nil
	})
	if err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if len(events) > 0 {
		s.logger.Info("ticket auto-assigned", zap.String("ticket_id", ticketID), zap.String("assignee_id", target.UserID))
		if s.notifications != nil {
			s.notifications.TicketAssigned(ctx, *ticket, events[0])
		}
	}
	return ticket, nil
}
