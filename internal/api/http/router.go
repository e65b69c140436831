package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/inspiringwave/ticket-management/internal/api/http/handlers"
	"github.com/inspiringwave/ticket-management/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health           *handlers.HealthHandler
	Auth             *handlers.AuthHandler
	Tickets          *handlers.TicketsHandler
	AdminUsers       *handlers.AdminUsersHandler
	Profile          *handlers.ProfileHandler
	AuthMiddleware   *auth.Middleware
	LoginRateLimiter fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	if cfg.LoginRateLimiter != nil {
		authGroup.Post("/login", cfg.LoginRateLimiter, cfg.Auth.Login)
	} else {
		authGroup.Post("/login", cfg.Auth.Login)
	}

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireUser())
	authProtected.Post("/logout", cfg.Auth.Logout)
	authProtected.Post("/password/change", cfg.Auth.ChangePassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireUser())
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/attachments/:attachmentId", cfg.Tickets.DownloadAttachment)

	adminUsers := app.Group("/admin/users", cfg.AuthMiddleware.Handle, auth.RequireUser())
	adminUsers.Get("", cfg.AdminUsers.ListUsers)
	adminUsers.Get("/:id", cfg.AdminUsers.GetUser)
	adminUsers.Patch("/:id/approval", cfg.AdminUsers.ResolveApproval)
	adminUsers.Patch("/:id/role", cfg.AdminUsers.UpdateRole)
	adminUsers.Delete("/:id", cfg.AdminUsers.RemoveUser)

	profile := app.Group("/profile", cfg.AuthMiddleware.Handle, auth.RequireUser())
	profile.Get("", cfg.Profile.GetProfile)
	profile.Patch("", cfg.Profile.UpdateProfile)
}
