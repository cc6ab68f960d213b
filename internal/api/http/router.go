package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bounty-service/internal/api/http/handlers"
	"github.com/spec-kit/bounty-service/internal/auth"
	"github.com/spec-kit/bounty-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Bounties       *handlers.BountiesHandler
	Audit          *handlers.AuditHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Users.Signup)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	// Open bounty board and the audit trail are public reads.
	app.Get("/bounties", cfg.Bounties.ListOpen)
	app.Get("/bounties/:id", cfg.Bounties.Get)
	app.Get("/audit-log", cfg.Audit.List)
	app.Get("/users/:id", cfg.Users.GetProfile)
	app.Get("/users/:id/activity", cfg.Users.ListActivity)

	authed := app.Group("", cfg.AuthMiddleware.Handle)
	authed.Post("/bounties", auth.RequireRole(domain.RoleCompany), cfg.Bounties.Create)
	authed.Post("/bounties/:id/winner", auth.RequireRole(domain.RoleCompany), cfg.Bounties.SelectWinner)
	authed.Post("/bounties/:id/paid", auth.RequireRole(domain.RoleCompany), cfg.Bounties.MarkPaid)
	authed.Post("/bounties/:id/submissions", auth.RequireRole(domain.RoleDeveloper), cfg.Bounties.SubmitSolution)
	authed.Get("/bounties/:id/submissions", auth.RequireAuthenticated(), cfg.Bounties.ListSubmissions)
	authed.Put("/users/:id/payout-address", auth.RequireRole(domain.RoleDeveloper), cfg.Users.UpdatePayoutAddress)
}
