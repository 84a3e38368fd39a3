package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Accounts       *handlers.AccountsHandler
	Tickets        *handlers.TicketsHandler
	Engineer       *handlers.EngineerHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Accounts.Register)
	authGroup.Post("/login", cfg.Accounts.Login)

	users := api.Group("/users/:user_id", cfg.AuthMiddleware.Handle, auth.RequireRouteOwner("user_id"))
	users.Get("/tickets", cfg.Tickets.ListTickets)
	users.Post("/tickets", cfg.Tickets.CreateTicket)
	users.Get("/tickets/:ticket_id", cfg.Tickets.GetTicket)
	users.Patch("/tickets/:ticket_id", cfg.Tickets.UpdateTicket)
	users.Patch("/tickets/:ticket_id/resolved", cfg.Tickets.SetResolved)
	users.Post("/tickets/:ticket_id/logs", cfg.Tickets.AppendLog)

	engineer := api.Group("/engineer", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleEngineer, domain.RoleAdmin))
	engineer.Get("/tickets", cfg.Engineer.ListAssigned)
	engineer.Post("/tickets/:ticket_id/logs", cfg.Engineer.AppendLog)
	engineer.Patch("/tickets/:ticket_id/resolved", cfg.Engineer.SetResolved)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/tickets", cfg.Admin.ListTickets)
	admin.Get("/tickets/export", cfg.Admin.ExportTickets)
	admin.Get("/engineers", cfg.Admin.ListEngineers)
	admin.Put("/engineers", cfg.Admin.PromoteEngineer)
	admin.Put("/tickets/:ticket_id/engineer", cfg.Admin.AssignEngineer)
	admin.Put("/tickets/:ticket_id/accept", cfg.Admin.AcceptTicket)
	admin.Put("/tickets/:ticket_id/priority", cfg.Admin.SetPriority)
	admin.Put("/tickets/:ticket_id/problem", cfg.Admin.SetProblem)
	admin.Put("/tickets/:ticket_id/service_type", cfg.Admin.SetServiceType)
	admin.Put("/tickets/:ticket_id/amc", cfg.Admin.SetAMC)
	admin.Put("/tickets/:ticket_id/part_name", cfg.Admin.SetPartName)
	admin.Put("/tickets/:ticket_id/logs", cfg.Admin.AppendLog)
	admin.Put("/tickets/:ticket_id/solved", cfg.Admin.MarkSolved)
	admin.Patch("/tickets/:ticket_id/resolved_at", cfg.Admin.SetResolvedAt)
	admin.Patch("/tickets/:ticket_id/created_at", cfg.Admin.SetCreatedAt)
	admin.Delete("/tickets/:ticket_id", cfg.Admin.DeleteTicket)
}
