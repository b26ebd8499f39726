package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/erp-desk/internal/api/dto"
	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/service"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

// AccountingHandler serves the threshold dashboard, turnover and URSSAF summaries.
type AccountingHandler struct {
	service *service.AccountingService
}

// NewAccountingHandler constructs handler.
func NewAccountingHandler(accountingService *service.AccountingService) *AccountingHandler {
	return &AccountingHandler{service: accountingService}
}

// Dashboard GET /accounting/dashboard?date=YYYY-MM-DD.
func (h *AccountingHandler) Dashboard(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	today, err := todayParam(c)
	if err != nil {
		return err
	}
	d, err := h.service.Dashboard(c.UserContext(), p.CompanyID(), today)
	if err != nil {
		return err
	}

	var resp dto.DashboardResponse
	resp.Year = d.Year
	resp.Today = d.Today.Format(time.DateOnly)
	resp.YTDTurnover = d.YTDTurnover
	resp.MicroCap.Cap = d.MicroCap.Cap
	resp.MicroCap.Progress = d.MicroCap.Progress
	resp.MicroCap.Exceeded = d.MicroCap.Exceeded
	resp.VAT.Base = d.VAT.Base
	resp.VAT.Tolerance = d.VAT.Tolerance
	resp.VAT.BaseProgress = d.VAT.BaseProgress
	resp.VAT.ToleranceProgress = d.VAT.ToleranceProgress
	resp.VAT.Status = d.VAT.Position
	resp.Period.Start = d.PeriodStart.Format(time.DateOnly)
	resp.Period.End = d.PeriodEnd.Format(time.DateOnly)
	resp.Period.Revenue = d.PeriodRevenue
	resp.Period.Contributions = d.Contributions
	resp.Period.RateLabel = d.RateLabel
	return c.JSON(fiber.Map{"data": resp})
}

// GetThresholds GET /accounting/thresholds/:year.
func (h *AccountingHandler) GetThresholds(c *fiber.Ctx) error {
	year, err := yearParam(c)
	if err != nil {
		return err
	}
	th, err := h.service.GetThresholds(c.UserContext(), year)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewThresholdsResponse(*th)})
}

// UpdateThresholds PUT /accounting/thresholds/:year.
func (h *AccountingHandler) UpdateThresholds(c *fiber.Ctx) error {
	year, err := yearParam(c)
	if err != nil {
		return err
	}
	var req dto.ThresholdsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	th := req.Thresholds(year)
	if err := h.service.UpdateThresholds(c.UserContext(), th); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewThresholdsResponse(*th)})
}

// ListTurnover GET /accounting/turnover?from=&to=, the current year by default.
func (h *AccountingHandler) ListTurnover(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	now := time.Now()
	from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	if v, err := parseDate(c.Query("from"), "from"); err != nil {
		return err
	} else if v != nil {
		from = *v
	}
	if v, err := parseDate(c.Query("to"), "to"); err != nil {
		return err
	} else if v != nil {
		to = *v
	}
	entries, err := h.service.ListTurnover(c.UserContext(), p.CompanyID(), from, to)
	if err != nil {
		return err
	}
	resp := make([]dto.TurnoverResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, dto.NewTurnoverResponse(e))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// AddTurnover POST /accounting/turnover.
func (h *AccountingHandler) AddTurnover(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.TurnoverRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	start, err := parseDate(req.PeriodStart, "period_start")
	if err != nil {
		return err
	}
	end, err := parseDate(req.PeriodEnd, "period_end")
	if err != nil {
		return err
	}
	if start == nil || end == nil {
		return apperrors.NewValidationError("period_start and period_end required", nil)
	}
	source, err := domain.ParseTurnoverSource(req.Source)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "source"})
	}
	entry := &domain.TurnoverEntry{PeriodStart: *start, PeriodEnd: *end, Amount: req.Amount, Source: source}
	if err := h.service.AddTurnover(c.UserContext(), p.CompanyID(), entry); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTurnoverResponse(*entry)})
}

// DeleteTurnover DELETE /accounting/turnover/:id.
func (h *AccountingHandler) DeleteTurnover(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTurnover(c.UserContext(), p.CompanyID(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UrssafSummary GET /accounting/urssaf-summary?date=YYYY-MM-DD.
func (h *AccountingHandler) UrssafSummary(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	today, err := todayParam(c)
	if err != nil {
		return err
	}
	file, err := h.service.UrssafSummary(c.UserContext(), p.CompanyID(), today)
	if err != nil {
		return err
	}
	return attachment(c, file.Name, file.ContentType, file.Content)
}

func todayParam(c *fiber.Ctx) (time.Time, error) {
	d, err := parseDate(c.Query("date"), "date")
	if err != nil || d == nil {
		return time.Time{}, err
	}
	return *d, nil
}

func yearParam(c *fiber.Ctx) (int, error) {
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil {
		return 0, apperrors.NewValidationError("year must be a number", map[string]any{"field": "year"})
	}
	return year, nil
}
