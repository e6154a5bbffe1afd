package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-ledger/internal/api/http/handlers"
	"github.com/spec-kit/agency-ledger/internal/auth"
	"github.com/spec-kit/agency-ledger/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Currencies     *handlers.CurrencyHandler
	Catalog        *handlers.CatalogHandler
	Agents         *handlers.AgentHandler
	Users          *handlers.UserHandler
	Tickets        *handlers.TicketHandler
	ServiceTickets *handlers.ServiceTicketHandler
	Logs           *handlers.LogHandler
	Connection     *handlers.ConnectionHandler
	AuthMiddleware *auth.AuthMiddleware
	Identity       *auth.IdentityVerifier
}

// RegisterRoutes wires HTTP routes. Role checks for mutations live in the
// services; the route guards below only gate admin-only reads.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/session", auth.RequireIdentitySecret(cfg.Identity), cfg.Auth.Session)

	api := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole())
	adminOnly := auth.RequireRole(domain.RoleAdmin)

	api.Get("/currencies", cfg.Currencies.List)
	api.Post("/currencies", cfg.Currencies.Create)
	api.Patch("/currencies/:code", cfg.Currencies.Update)
	api.Delete("/currencies/:code", cfg.Currencies.Delete)

	api.Get("/services", cfg.Catalog.List)
	api.Get("/services/:id", cfg.Catalog.Get)
	api.Post("/services", cfg.Catalog.Create)
	api.Patch("/services/:id", cfg.Catalog.Update)

	api.Get("/agents", cfg.Agents.List)
	api.Post("/agents", cfg.Agents.Create)
	api.Get("/agents/:id", cfg.Agents.Get)
	api.Get("/agents/:id/summary", cfg.Agents.Summary)
	api.Post("/agents/:id/balance", cfg.Agents.UpdateBalance)

	api.Get("/users/me", cfg.Users.Me)
	api.Get("/users", adminOnly, cfg.Users.List)
	api.Get("/users/:id", adminOnly, cfg.Users.Get)
	api.Get("/users/:id/stats", cfg.Users.Stats)
	api.Put("/users/:id/role", cfg.Users.UpdateRole)
	api.Post("/users/:id/balance", cfg.Users.UpdateBalance)
	api.Put("/users/:id/preferred-currency", cfg.Users.PreferredCurrency)

	api.Get("/tickets", cfg.Tickets.List)
	api.Post("/tickets", cfg.Tickets.Create)
	api.Get("/tickets/:id", cfg.Tickets.Get)
	api.Patch("/tickets/:id", cfg.Tickets.Update)
	api.Delete("/tickets/:id", cfg.Tickets.Delete)
	api.Get("/tickets/:id/logs", cfg.Logs.ByTicket)

	api.Get("/service-tickets", cfg.ServiceTickets.List)
	api.Post("/service-tickets", cfg.ServiceTickets.Create)
	api.Get("/service-tickets/:id", cfg.ServiceTickets.Get)
	api.Patch("/service-tickets/:id", cfg.ServiceTickets.Update)
	api.Delete("/service-tickets/:id", cfg.ServiceTickets.Delete)
	api.Get("/service-tickets/:id/logs", cfg.Logs.ByTicket)

	api.Get("/logs", adminOnly, cfg.Logs.Recent)
	api.Get("/logs/feed", adminOnly, cfg.Logs.Feed)
	api.Get("/logs/users/:id", adminOnly, cfg.Logs.ByActor)

	api.Get("/connection", cfg.Connection.State)
	api.Post("/connection/retry", cfg.Connection.Retry)
	api.Get("/connection/notifications", cfg.Connection.Notifications)
	api.Get("/metrics", adminOnly, cfg.Connection.Metrics)
}
