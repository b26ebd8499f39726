package domain

import (
	"errors"
	"fmt"
	"time"
)

// TicketUpdate holds requested changes; nil fields are left untouched.
type TicketUpdate struct {
	Status   *TicketStatus
	Priority *TicketPriority
}

// Validate rejects unknown enum values.
func (u TicketUpdate) Validate() error {
	var errs []error
	if u.Status != nil && !u.Status.Valid() {
		errs = append(errs, fmt.Errorf("unknown ticket status %q", *u.Status))
	}
	if u.Priority != nil && !u.Priority.Valid() {
		errs = append(errs, fmt.Errorf("unknown ticket priority %q", *u.Priority))
	}
	return errors.Join(errs...)
}

// Transition computes the ticket that results from applying update to old,
// together with the audit events describing the change. Fields whose new value
// equals the old one produce no event, so an update that changes nothing
// returns old as-is and a nil slice.
func Transition(old Ticket, update TicketUpdate, actorID *string, at time.Time) (Ticket, []TicketEvent) {
	next := old
	var events []TicketEvent

	if update.Status != nil && *update.Status != old.Status {
		next.Status = *update.Status
		events = append(events, TicketEvent{
			TicketID:  old.ID,
			Type:      TicketEventStatusChanged,
			Message:   fmt.Sprintf("Status: %s → %s", old.Status, next.Status),
			ActorID:   actorID,
			CreatedAt: at,
		})
	}
	if update.Priority != nil && *update.Priority != old.Priority {
		next.Priority = *update.Priority
		events = append(events, TicketEvent{
			TicketID:  old.ID,
			Type:      TicketEventPriorityChanged,
			Message:   fmt.Sprintf("Priority: %s → %s", old.Priority, next.Priority),
			ActorID:   actorID,
			CreatedAt: at,
		})
	}

	if len(events) > 0 {
		next.UpdatedAt = at
	}
	return next, events
}

// Assign sets the assignee. It is a no-op when assignee already holds the ticket.
func Assign(old Ticket, assignee User, actorID *string, at time.Time) (Ticket, []TicketEvent) {
	if old.IsAssignedTo(assignee.ID) {
		return old, nil
	}
	next := old
	id := assignee.ID
	next.AssignedTo = &id
	next.UpdatedAt = at
	return next, []TicketEvent{{
		TicketID:  old.ID,
		Type:      TicketEventAssigned,
		Message:   fmt.Sprintf("Auto-assigned to %s", assignee.DisplayName()),
		ActorID:   actorID,
		CreatedAt: at,
	}}
}

// CreatedEvent is the first entry of every ticket's audit trail.
func CreatedEvent(t Ticket, at time.Time) TicketEvent {
	return TicketEvent{
		TicketID:  t.ID,
		Type:      TicketEventCreated,
		Message:   fmt.Sprintf("Ticket created: %s", t.Title),
		ActorID:   t.CreatedBy,
		CreatedAt: at,
	}
}

// CommentEvent records a new comment, quoting at most 120 characters.
func CommentEvent(c TicketComment, author string) TicketEvent {
	return TicketEvent{
		TicketID:  c.TicketID,
		Type:      TicketEventCommentAdded,
		Message:   fmt.Sprintf("Comment by %s: %s", author, Preview(c.Message, 120)),
		ActorID:   c.AuthorID,
		CreatedAt: c.CreatedAt,
	}
}

// AttachmentEvent records a new attachment.
func AttachmentEvent(a TicketAttachment) TicketEvent {
	return TicketEvent{
		TicketID:  a.TicketID,
		Type:      TicketEventAttachmentAdded,
		Message:   fmt.Sprintf("Attachment added: %s", a.FileRef),
		ActorID:   a.UploadedBy,
		CreatedAt: a.CreatedAt,
	}
}

// Preview truncates s to at most n runes.
func Preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
