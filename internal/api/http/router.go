package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/academy-portal/internal/api/http/handlers"
	"github.com/spec-kit/academy-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Session       *handlers.SessionHandler
	Account       *handlers.AccountHandler
	Navigation    *handlers.NavigationHandler
	Notifications *handlers.NotificationsHandler
	Feedback      *handlers.FeedbackHandler
	Metrics       *handlers.MetricsHandler
	Sessions      auth.SessionSource
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	session := app.Group("/session")
	session.Get("", cfg.Session.Get)
	session.Post("/login", cfg.Session.Login)
	session.Post("/google", cfg.Session.Google)
	session.Post("/exchange", cfg.Session.Exchange)
	session.Post("/register", cfg.Session.Register)
	session.Post("/logout", cfg.Session.Logout)
	session.Post("/refresh", auth.RequireSession(cfg.Sessions), cfg.Session.Refresh)

	account := app.Group("/account")
	account.Post("/verify-email", cfg.Account.VerifyEmail)
	account.Post("/send-reset-code", cfg.Account.SendResetCode)
	account.Post("/reset-password", cfg.Account.ResetPassword)

	app.Get("/navigate", cfg.Navigation.Current)
	app.Post("/navigate", cfg.Navigation.Navigate)

	notifications := app.Group("/notifications", auth.RequireSession(cfg.Sessions))
	notifications.Get("", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)
	notifications.Delete("/:id", cfg.Notifications.Delete)

	fb := app.Group("/feedback")
	fb.Get("/toasts", cfg.Feedback.Toasts)
	fb.Delete("/toasts/:id", cfg.Feedback.DismissToast)
	fb.Get("/modal", cfg.Feedback.Modal)
	fb.Post("/modal/:id", cfg.Feedback.ResolveModal)
	fb.Get("/loader", cfg.Feedback.Loader)

	app.Get("/metrics", cfg.Metrics.Snapshot)
}
