package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/erp-desk/internal/api/http/handlers"
	"github.com/spec-kit/erp-desk/internal/auth"
	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/features"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Company        *handlers.CompanyHandler
	Tickets        *handlers.TicketsHandler
	Customers      *handlers.BillingHandler
	Quotes         *handlers.BillingHandler
	Invoices       *handlers.BillingHandler
	Accounting     *handlers.AccountingHandler
	AuthMiddleware *auth.AuthMiddleware
	Features       auth.FeatureChecker
	// TokenExchange exposes POST /auth/token, which trusts the caller's email.
	TokenExchange bool
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api/v1")
	api.Get("/health/live", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", cfg.Company.Signup)
	if cfg.TokenExchange {
		authGroup.Post("/token", cfg.Company.Token)
	}

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	staff := auth.RequireRole(domain.RoleAdmin, domain.RoleManager)
	admin := auth.RequireRole(domain.RoleAdmin)

	protected.Get("/company", cfg.Company.GetCompany)
	protected.Patch("/company", admin, cfg.Company.UpdateCompany)
	protected.Get("/company/members", cfg.Company.ListMembers)
	protected.Post("/company/members", admin, cfg.Company.AddMember)
	protected.Get("/company/subscription", cfg.Company.GetSubscription)
	protected.Post("/company/subscription", admin, cfg.Company.Subscribe)

	ticketsGuard := auth.RequireFeature(cfg.Features, features.Tickets)
	tickets := protected.Group("/tickets", ticketsGuard)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/stats", cfg.Tickets.Stats)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Patch("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Patch("/:id/priority", cfg.Tickets.ChangePriority)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Post("/:id/attachments", cfg.Tickets.AddAttachment)
	tickets.Get("/:id/events", cfg.Tickets.ListEvents)
	tickets.Post("/:id/assign", staff, cfg.Tickets.AutoAssign)

	kanban := protected.Group("/kanban", ticketsGuard)
	kanban.Get("", cfg.Tickets.Board)
	kanban.Post("/move", cfg.Tickets.Move)
	kanban.Post("/reorder", cfg.Tickets.Reorder)

	protected.Get("/customers", cfg.Customers.ListCustomers)
	protected.Get("/customers/:id", cfg.Customers.GetCustomer)
	protected.Post("/customers", staff, cfg.Customers.CreateCustomer)
	protected.Put("/customers/:id", staff, cfg.Customers.UpdateCustomer)
	protected.Delete("/customers/:id", staff, cfg.Customers.DeleteCustomer)

	registerDocuments(protected.Group("/quotes", auth.RequireFeature(cfg.Features, features.Quotes)), cfg.Quotes, staff)
	registerDocuments(protected.Group("/invoices", auth.RequireFeature(cfg.Features, features.Invoices)), cfg.Invoices, staff)
	protected.Post("/numbers/:kind", staff, numberingGuard(cfg.Features), cfg.Quotes.NextNumber)

	accounting := protected.Group("/accounting")
	accounting.Get("/dashboard", cfg.Accounting.Dashboard)
	accounting.Get("/thresholds/:year", cfg.Accounting.GetThresholds)
	accounting.Put("/thresholds/:year", staff, cfg.Accounting.UpdateThresholds)
	accounting.Get("/turnover", cfg.Accounting.ListTurnover)
	accounting.Post("/turnover", staff, cfg.Accounting.AddTurnover)
	accounting.Delete("/turnover/:id", staff, cfg.Accounting.DeleteTurnover)
	accounting.Get("/urssaf-summary", cfg.Accounting.UrssafSummary)
}

// numberingGuard applies the feature of the document kind named in the path.
func numberingGuard(checker auth.FeatureChecker) fiber.Handler {
	quotes := auth.RequireFeature(checker, features.Quotes)
	invoices := auth.RequireFeature(checker, features.Invoices)
	return func(c *fiber.Ctx) error {
		kind, err := domain.ParseDocumentKind(c.Params("kind"))
		if err != nil {
			return c.Next()
		}
		if kind == domain.DocumentInvoice {
			return invoices(c)
		}
		return quotes(c)
	}
}

func registerDocuments(group fiber.Router, h *handlers.BillingHandler, staff fiber.Handler) {
	group.Get("", h.ListDocuments)
	group.Post("", staff, h.CreateDocument)
	group.Get("/:id", h.GetDocument)
	group.Patch("/:id/status", staff, h.UpdateStatus)
	group.Get("/:id/pdf", h.PDF)
}
