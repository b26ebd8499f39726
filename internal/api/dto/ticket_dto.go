package dto

import (
	"time"

	"github.com/spec-kit/erp-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketRequest payload; omitted fields are left untouched.
type UpdateTicketRequest struct {
	Status   *domain.TicketStatus   `json:"status,omitempty"`
	Priority *domain.TicketPriority `json:"priority,omitempty"`
}

// StatusRequest payload.
type StatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// PriorityRequest payload.
type PriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// CommentRequest payload.
type CommentRequest struct {
	Message string `json:"message"`
}

// AttachmentRequest references a file stored elsewhere.
type AttachmentRequest struct {
	FileRef string `json:"file_ref"`
}

// MoveRequest moves a ticket to another kanban column.
type MoveRequest struct {
	TicketID string              `json:"ticket_id"`
	Status   domain.TicketStatus `json:"status"`
}

// ReorderRequest sets the order of a column.
type ReorderRequest struct {
	Status domain.TicketStatus `json:"status"`
	IDs    []string            `json:"ids"`
}

// TicketResponse represents a ticket.
type TicketResponse struct {
	ID          string                `json:"id"`
	Reference   string                `json:"reference"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	Order       int                   `json:"order"`
	CreatedBy   *string               `json:"created_by"`
	AssignedTo  *string               `json:"assigned_to"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TicketEventResponse is one audit entry.
type TicketEventResponse struct {
	ID        string                 `json:"id"`
	Type      domain.TicketEventType `json:"type"`
	Message   string                 `json:"message"`
	ActorID   *string                `json:"actor_id"`
	CreatedAt time.Time              `json:"created_at"`
}

// CommentResponse is a ticket comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	AuthorID  *string   `json:"author_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentResponse is a ticket attachment.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	UploadedBy *string   `json:"uploaded_by"`
	FileRef    string    `json:"file_ref"`
	CreatedAt  time.Time `json:"created_at"`
}

// TicketDetailResponse bundles a ticket with its activity.
type TicketDetailResponse struct {
	TicketResponse
	Events      []TicketEventResponse `json:"events"`
	Comments    []CommentResponse     `json:"comments"`
	Attachments []AttachmentResponse  `json:"attachments"`
}

// ColumnResponse is one kanban column.
type ColumnResponse struct {
	Status  domain.TicketStatus `json:"status"`
	Count   int                 `json:"count"`
	Tickets []TicketResponse    `json:"tickets"`
}

// TicketStatsResponse summarises a company's tickets.
type TicketStatsResponse struct {
	Total    int                         `json:"total"`
	ByStatus map[domain.TicketStatus]int `json:"by_status"`
	Recent   []TicketResponse            `json:"recent"`
}

func NewTicketResponse(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		Reference:   t.Reference(),
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		Order:       t.Order,
		CreatedBy:   t.CreatedBy,
		AssignedTo:  t.AssignedTo,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, NewTicketResponse(t))
	}
	return out
}

func NewEventResponses(events []domain.TicketEvent) []TicketEventResponse {
	out := make([]TicketEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, TicketEventResponse{ID: e.ID, Type: e.Type, Message: e.Message, ActorID: e.ActorID, CreatedAt: e.CreatedAt})
	}
	return out
}

func NewCommentResponse(c domain.TicketComment) CommentResponse {
	return CommentResponse{ID: c.ID, AuthorID: c.AuthorID, Message: c.Message, CreatedAt: c.CreatedAt}
}

func NewAttachmentResponse(a domain.TicketAttachment) AttachmentResponse {
	return AttachmentResponse{ID: a.ID, UploadedBy: a.UploadedBy, FileRef: a.FileRef, CreatedAt: a.CreatedAt}
}
