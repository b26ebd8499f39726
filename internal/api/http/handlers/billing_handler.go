package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/erp-desk/internal/api/dto"
	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/service"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

// BillingHandler serves customers, quotes and invoices. One instance is
// bound to each document kind.
type BillingHandler struct {
	service *service.BillingService
	kind    domain.DocumentKind
}

// NewBillingHandler constructs handler for kind; kind is empty for customer routes.
func NewBillingHandler(billingService *service.BillingService, kind domain.DocumentKind) *BillingHandler {
	return &BillingHandler{service: billingService, kind: kind}
}

// CreateCustomer POST /customers.
func (h *BillingHandler) CreateCustomer(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CustomerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	customer := req.Customer("")
	if err := h.service.CreateCustomer(c.UserContext(), p.CompanyID(), customer); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCustomerResponse(*customer)})
}

// ListCustomers GET /customers.
func (h *BillingHandler) ListCustomers(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	customers, err := h.service.ListCustomers(c.UserContext(), p.CompanyID(), limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.CustomerResponse, 0, len(customers))
	for _, cu := range customers {
		resp = append(resp, dto.NewCustomerResponse(cu))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetCustomer GET /customers/:id.
func (h *BillingHandler) GetCustomer(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	customer, err := h.service.GetCustomer(c.UserContext(), p.CompanyID(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCustomerResponse(*customer)})
}

// UpdateCustomer PUT /customers/:id.
func (h *BillingHandler) UpdateCustomer(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CustomerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	customer := req.Customer(c.Params("id"))
	if err := h.service.UpdateCustomer(c.UserContext(), p.CompanyID(), customer); err != nil {
		return err
	}
	updated, err := h.service.GetCustomer(c.UserContext(), p.CompanyID(), customer.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCustomerResponse(*updated)})
}

// DeleteCustomer DELETE /customers/:id.
func (h *BillingHandler) DeleteCustomer(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteCustomer(c.UserContext(), p.CompanyID(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateDocument POST /quotes, POST /invoices.
func (h *BillingHandler) CreateDocument(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.DocumentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	input := service.DocumentInput{
		CustomerID: req.CustomerID,
		Status:     domain.DocumentStatus(strings.ToUpper(string(req.Status))),
		Currency:   req.Currency,
		Notes:      req.Notes,
	}
	issue, err := parseDate(req.IssueDate, "issue_date")
	if err != nil {
		return err
	}
	if issue != nil {
		input.IssueDate = *issue
	}
	due := req.DueDate
	if due == "" && h.kind == domain.DocumentQuote {
		due = req.ValidUntil
	}
	if input.DueDate, err = parseDate(due, "due_date"); err != nil {
		return err
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, it.LineItem())
	}

	doc, err := h.service.CreateDocument(c.UserContext(), p.CompanyID(), p.UserID(), h.kind, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewDocumentResponse(*doc)})
}

// ListDocuments GET /quotes, GET /invoices.
func (h *BillingHandler) ListDocuments(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	filter := service.DocumentListFilter{}
	for _, s := range splitList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.DocumentStatus(strings.ToUpper(s)))
	}
	if filter.IssuedFrom, err = parseDate(c.Query("from"), "from"); err != nil {
		return err
	}
	if filter.IssuedTo, err = parseDate(c.Query("to"), "to"); err != nil {
		return err
	}
	filter.Limit, filter.Offset = pagination(c)

	docs, err := h.service.ListDocuments(c.UserContext(), p.CompanyID(), h.kind, filter)
	if err != nil {
		return err
	}
	resp := make([]dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		resp = append(resp, dto.NewDocumentResponse(d))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetDocument GET /quotes/:id, GET /invoices/:id.
func (h *BillingHandler) GetDocument(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	doc, err := h.service.GetDocument(c.UserContext(), p.CompanyID(), h.kind, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDocumentResponse(*doc)})
}

// UpdateStatus PATCH /quotes/:id/status, PATCH /invoices/:id/status.
func (h *BillingHandler) UpdateStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.DocumentStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	status := domain.DocumentStatus(strings.ToUpper(string(req.Status)))
	doc, err := h.service.UpdateDocumentStatus(c.UserContext(), p.CompanyID(), h.kind, c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDocumentResponse(*doc)})
}

// PDF GET /quotes/:id/pdf, GET /invoices/:id/pdf.
func (h *BillingHandler) PDF(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	file, err := h.service.RenderDocument(c.UserContext(), p.CompanyID(), h.kind, c.Params("id"))
	if err != nil {
		return err
	}
	if file.ArchiveURL != "" {
		c.Set("X-Archive-URL", file.ArchiveURL)
	}
	return attachment(c, file.Name, file.ContentType, file.Content)
}

// NextNumber POST /numbers/:kind?year=YYYY.
func (h *BillingHandler) NextNumber(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	kind, err := domain.ParseDocumentKind(c.Params("kind"))
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "kind"})
	}
	year := 0
	if raw := c.Query("year"); raw != "" {
		if year, err = strconv.Atoi(raw); err != nil {
			return apperrors.NewValidationError("year must be a number", map[string]any{"field": "year"})
		}
	}
	number, err := h.service.NextNumber(c.UserContext(), p.CompanyID(), kind, year)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NumberResponse{Number: number}})
}
