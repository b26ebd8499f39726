package domain

import "time"

// TicketEventType captures what happened in an audit entry.
type TicketEventType string

const (
	TicketEventCreated         TicketEventType = "CREATED"
	TicketEventStatusChanged   TicketEventType = "STATUS_CHANGED"
	TicketEventPriorityChanged TicketEventType = "PRIORITY_CHANGED"
	TicketEventAssigned        TicketEventType = "ASSIGNED"
	TicketEventCommentAdded    TicketEventType = "COMMENT_ADDED"
	TicketEventAttachmentAdded TicketEventType = "ATTACHMENT_ADDED"
)

func (t TicketEventType) Valid() bool {
	switch t {
	case TicketEventCreated, TicketEventStatusChanged, TicketEventPriorityChanged,
		TicketEventAssigned, TicketEventCommentAdded, TicketEventAttachmentAdded:
		return true
	}
	return false
}

// TicketEvent is an immutable, append-only audit entry.
type TicketEvent struct {
	ID        string
	TicketID  string
	Type      TicketEventType
	Message   string
	ActorID   *string
	CreatedAt time.Time
}

// TicketComment is a message posted on a ticket.
type TicketComment struct {
	ID        string
	TicketID  string
	AuthorID  *string
	Message   string
	CreatedAt time.Time
}

// TicketAttachment references a file stored outside this service.
type TicketAttachment struct {
	ID         string
	TicketID   string
	UploadedBy *string
	FileRef    string
	CreatedAt  time.Time
}
