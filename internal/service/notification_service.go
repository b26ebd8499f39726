package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/notify"
	"github.com/spec-kit/erp-desk/internal/observability"
	"github.com/spec-kit/erp-desk/internal/repository"
)

// NotificationService turns ticket lifecycle changes into notification requests.
// Nothing here ever fails the caller.
type NotificationService struct {
	store    repository.Store
	notifier notify.Notifier
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(store repository.Store, notifier notify.Notifier, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{store: store, notifier: notifier, logger: logger, metrics: metrics}
}

func (n *NotificationService) TicketCreated(ctx context.Context, t domain.Ticket) {
	n.send(ctx, t,
		fmt.Sprintf("[%s] Created - %s", t.Reference(), t.Title),
		fmt.Sprintf("A new ticket was created.\n\nStatus: %s\nPriority: %s\nDescription:\n%s", t.Status, t.Priority, t.Description))
}

// TicketUpdated sends one message for all events of a transition.
func (n *NotificationService) TicketUpdated(ctx context.Context, t domain.Ticket, events []domain.TicketEvent) {
	if len(events) == 0 {
		return
	}
	msgs := make([]string, 0, len(events))
	for _, e := range events {
		msgs = append(msgs, e.Message)
	}
	n.send(ctx, t, fmt.Sprintf("[%s] Updated", t.Reference()), strings.Join(msgs, " / "))
}

func (n *NotificationService) TicketAssigned(ctx context.Context, t domain.Ticket, event domain.TicketEvent) {
	n.send(ctx, t, fmt.Sprintf("[%s] Assigned", t.Reference()), event.Message)
}

func (n *NotificationService) CommentAdded(ctx context.Context, t domain.Ticket, author string, c domain.TicketComment) {
	n.send(ctx, t, fmt.Sprintf("[%s] New comment", t.Reference()), fmt.Sprintf("%s commented:\n\n%s", author, c.Message))
}

func (n *NotificationService) AttachmentAdded(ctx context.Context, t domain.Ticket, uploader string, a domain.TicketAttachment) {
	n.send(ctx, t, fmt.Sprintf("[%s] Attachment", t.Reference()), fmt.Sprintf("%s added a file: %s", uploader, a.FileRef))
}

// Recipients returns the emails of the company admins, the creator and the
// assignee, deduplicated in that order.
func (n *NotificationService) Recipients(ctx context.Context, t domain.Ticket) ([]string, error) {
	members, err := n.store.Tenant(t.CompanyID).Memberships().ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	emails := make(map[string]string, len(members))
	var out []string
	seen := make(map[string]bool)
	add := func(email string) {
		email = strings.TrimSpace(email)
		if email == "" || seen[email] {
			return
		}
		seen[email] = true
		out = append(out, email)
	}
	for _, m := range members {
		emails[m.UserID] = m.User.Email
		if m.Role == domain.RoleAdmin {
			add(m.User.Email)
		}
	}
	for _, id := range []*string{t.CreatedBy, t.AssignedTo} {
		if id == nil {
			continue
		}
		if email, ok := emails[*id]; ok {
			add(email)
			continue
		}
		if u, err := n.store.Users().GetByID(ctx, *id); err == nil {
			add(u.Email)
		}
	}
	return out, nil
}

func (n *NotificationService) send(ctx context.Context, t domain.Ticket, subject, body string) {
	recipients, err := n.Recipients(ctx, t)
	if err != nil {
		n.metrics.RecordSideEffectFailure("notification")
		n.logger.Warn("resolve notification recipients", zap.String("ticket_id", t.ID), zap.Error(err))
		return
	}
	if len(recipients) == 0 {
		return
	}
	n.notifier.Notify(ctx, notify.Message{
		CompanyID:  t.CompanyID,
		TicketID:   t.ID,
		Subject:    subject,
		Body:       body,
		Recipients: recipients,
	})
}
