package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole())

	complaints := protected.Group("/complaints")
	complaints.Get("/", cfg.Tickets.ListTickets)
	complaints.Post("/", cfg.Tickets.CreateTicket)
	complaints.Get("/stats", cfg.Tickets.Stats)
	complaints.Get("/users", auth.RequireRole(domain.RoleAdmin), cfg.Users.ListAssignable)
	complaints.Get("/:id", cfg.Tickets.GetTicket)
	complaints.Put("/:id", cfg.Tickets.UpdateTicket)

	protected.Post("/users", auth.RequireRole(domain.RoleAdmin), cfg.Users.CreateStaff)
}
