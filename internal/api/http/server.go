package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
)

// ServerDeps is everything the HTTP layer needs.
type ServerDeps struct {
	App      config.AppConfig
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Auth     *service.AuthService
	Users    *service.UserService
	Tickets  *service.TicketService
	UserRepo repository.UserRepository
	Required map[string]handlers.Pinger
	Optional map[string]handlers.Pinger
}

// NewServer builds the fiber application with middlewares and routes.
func NewServer(deps ServerDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               deps.App.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, deps.Logger, deps.Metrics, MiddlewareConfig{
		Timeout:      deps.App.RequestTimeout(),
		AllowOrigins: deps.App.CORSAllowOrigins,
	})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(deps.App.Name, deps.App.Version, deps.Required, deps.Optional, deps.Metrics),
		Users:          handlers.NewUsersHandler(deps.Auth, deps.Users),
		Tickets:        handlers.NewTicketsHandler(deps.Tickets),
		AuthMiddleware: auth.NewAuthMiddleware(deps.Auth.TokenManager(), deps.UserRepo),
	})
	return app
}
