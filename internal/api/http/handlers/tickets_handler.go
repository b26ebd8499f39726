package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/erp-desk/internal/api/dto"
	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/service"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

// TicketsHandler serves ticket and kanban endpoints.
type TicketsHandler struct {
	service    *service.TicketService
	assignment *service.AssignmentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, assignment *service.AssignmentService) *TicketsHandler {
	return &TicketsHandler{service: ticketService, assignment: assignment}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Create(c.UserContext(), p.CompanyID(), p.UserID(), service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	filter := service.TicketListFilter{}
	for _, s := range splitList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.ToUpper(s)))
	}
	for _, s := range splitList(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.ToUpper(s)))
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		if assignee == "me" {
			assignee = p.UserID()
		}
		filter.AssignedTo = &assignee
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filter.SearchTerm = &q
	}
	if filter.CreatedFrom, err = parseDate(c.Query("from"), "from"); err != nil {
		return err
	}
	if filter.CreatedTo, err = parseDate(c.Query("to"), "to"); err != nil {
		return err
	}
	filter.Limit, filter.Offset = pagination(c)

	tickets, err := h.service.List(c.UserContext(), p.CompanyID(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets)})
}

// Stats GET /tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.UserContext(), p.CompanyID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketStatsResponse{
		Total:    stats.Total,
		ByStatus: stats.ByStatus,
		Recent:   dto.NewTicketResponses(stats.Recent),
	}})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	id := c.Params("id")
	ticket, err := h.service.Get(ctx, p.CompanyID(), id)
	if err != nil {
		return err
	}
	events, err := h.service.Events(ctx, p.CompanyID(), id)
	if err != nil {
		return err
	}
	comments, err := h.service.Comments(ctx, p.CompanyID(), id)
	if err != nil {
		return err
	}
	attachments, err := h.service.Attachments(ctx, p.CompanyID(), id)
	if err != nil {
		return err
	}

	detail := dto.TicketDetailResponse{
		TicketResponse: dto.NewTicketResponse(*ticket),
		Events:         dto.NewEventResponses(events),
		Comments:       make([]dto.CommentResponse, 0, len(comments)),
		Attachments:    make([]dto.AttachmentResponse, 0, len(attachments)),
	}
	for _, cm := range comments {
		detail.Comments = append(detail.Comments, dto.NewCommentResponse(cm))
	}
	for _, a := range attachments {
		detail.Attachments = append(detail.Attachments, dto.NewAttachmentResponse(a))
	}
	return c.JSON(fiber.Map{"data": detail})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Status == nil && req.Priority == nil {
		return apperrors.NewValidationError("status or priority required", nil)
	}
	ticket, err := h.service.Update(c.UserContext(), p.CompanyID(), p.UserID(), c.Params("id"), domain.TicketUpdate{
		Status:   req.Status,
		Priority: req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// ChangeStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.ChangeStatus(c.UserContext(), p.CompanyID(), p.UserID(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// ChangePriority PATCH /tickets/:id/priority.
func (h *TicketsHandler) ChangePriority(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.PriorityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.ChangePriority(c.UserContext(), p.CompanyID(), p.UserID(), c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	comment, err := h.service.AddComment(c.UserContext(), p.CompanyID(), p.UserID(), c.Params("id"), req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(*comment)})
}

// AddAttachment POST /tickets/:id/attachments.
func (h *TicketsHandler) AddAttachment(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.AttachmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	attachment, err := h.service.AddAttachment(c.UserContext(), p.CompanyID(), p.UserID(), c.Params("id"), req.FileRef)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAttachmentResponse(*attachment)})
}

// ListEvents GET /tickets/:id/events.
func (h *TicketsHandler) ListEvents(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	events, err := h.service.Events(c.UserContext(), p.CompanyID(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEventResponses(events)})
}

// AutoAssign POST /tickets/:id/assign re-runs the assignment policy.
func (h *TicketsHandler) AutoAssign(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ticket, err := h.assignment.AutoAssign(c.UserContext(), p.CompanyID(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// Board GET /kanban.
func (h *TicketsHandler) Board(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	columns, err := h.service.Board(c.UserContext(), p.CompanyID())
	if err != nil {
		return err
	}
	resp := make([]dto.ColumnResponse, 0, len(columns))
	for _, col := range columns {
		resp = append(resp, dto.ColumnResponse{Status: col.Status, Count: col.Count, Tickets: dto.NewTicketResponses(col.Tickets)})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Move POST /kanban/move.
func (h *TicketsHandler) Move(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.MoveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.TicketID == "" {
		return apperrors.NewValidationError("ticket_id required", map[string]any{"field": "ticket_id"})
	}
	ticket, err := h.service.MoveToColumn(c.UserContext(), p.CompanyID(), p.UserID(), req.TicketID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// Reorder POST /kanban/reorder.
func (h *TicketsHandler) Reorder(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ReorderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.service.ReorderColumn(c.UserContext(), p.CompanyID(), req.Status, req.IDs); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": req.Status, "ids": req.IDs}})
}
