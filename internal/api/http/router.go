package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Tickets     *handlers.TicketsHandler
	Admin       *handlers.AdminHandler
	Idempotency *service.IdempotencyCache
	Metrics     nethttp.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/_meta", cfg.Health.Meta)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", auth.RequireAuth(), cfg.Auth.Me)

	tickets := app.Group("/tickets", auth.RequireAuth())
	tickets.Post("", Idempotent(cfg.Idempotency, cfg.Tickets.CreateTicket))
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", Idempotent(cfg.Idempotency, cfg.Tickets.UpdateTicket))
	tickets.Post("/:id/comments", Idempotent(cfg.Idempotency, cfg.Tickets.AddComment))

	admin := app.Group("/admin", auth.RequireAuth(), auth.RequireRole(domain.RoleAgent))
	admin.Post("/sla/sweep", cfg.Admin.SweepSLA)
}
