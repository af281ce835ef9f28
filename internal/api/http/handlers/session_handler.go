package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/academy-portal/internal/api/dto"
	"github.com/spec-kit/academy-portal/internal/auth"
	"github.com/spec-kit/academy-portal/internal/domain"
	"github.com/spec-kit/academy-portal/internal/router"
	"github.com/spec-kit/academy-portal/internal/service"
)

// Navigator moves the portal to a new URL.
type Navigator interface {
	Navigate(ctx context.Context, url string) (router.Result, error)
	Current() string
}

// SessionHandler exposes the portal session.
type SessionHandler struct {
	auth     *service.AuthService
	nav      Navigator
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSessionHandler constructs handler.
func NewSessionHandler(authService *service.AuthService, nav Navigator, validate *validator.Validate, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{auth: authService, nav: nav, validate: validate, logger: logger}
}

// Login handles POST /session/login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	ctx := c.UserContext()
	if _, err := h.auth.Login(ctx, domain.Credentials{Email: req.Email, Password: req.Password}, req.Remember); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.describe(ctx)})
}

// Google handles POST /session/google.
func (h *SessionHandler) Google(c *fiber.Ctx) error {
	var req dto.GoogleLoginRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	ctx := c.UserContext()
	if _, err := h.auth.LoginWithGoogle(ctx, req.Token, req.Remember); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.describe(ctx)})
}

// Register handles POST /session/register. The session only starts when
// the backend signs the new account in right away.
func (h *SessionHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	ctx := c.UserContext()
	if _, err := h.auth.Register(ctx, req.Registration(), req.Remember); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": h.describe(ctx)})
}

// Exchange handles POST /session/exchange for the OAuth callback code.
func (h *SessionHandler) Exchange(c *fiber.Ctx) error {
	var req dto.ExchangeTokenRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	ctx := c.UserContext()
	if _, err := h.auth.ExchangeToken(ctx, req.Code, req.Remember); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.describe(ctx)})
}

// Logout handles POST /session/logout and returns the portal to the login page.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := h.auth.Logout(ctx); err != nil {
		return err
	}
	res, err := h.nav.Navigate(ctx, auth.PathLogin)
	if err != nil {
		h.logger.Warn("post-logout navigation failed", zap.Error(err))
	}
	return c.JSON(fiber.Map{"data": dto.NavigateResponse{Requested: res.Requested, URL: res.URL, Redirected: res.Redirected}})
}

// Get handles GET /session.
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.describe(c.UserContext())})
}

// Refresh handles POST /session/refresh by refetching the profile.
func (h *SessionHandler) Refresh(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if user, ok := auth.UserFromContext(c); ok {
		h.logger.Debug("refreshing profile", zap.Int64("user_id", user.ID))
	}
	if _, err := h.auth.RefreshProfile(ctx); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.describe(ctx)})
}

func (h *SessionHandler) describe(ctx context.Context) dto.SessionResponse {
	resp := dto.SessionResponse{
		LoggedIn:     h.auth.IsLoggedIn(ctx),
		User:         h.auth.StoredUser(ctx),
		DashboardURL: h.auth.DashboardURL(ctx),
	}
	if !resp.LoggedIn {
		return resp
	}
	// Opaque tokens carry no expiry.
	if info, err := h.auth.TokenInfo(ctx); err == nil && !info.ExpiresAt.IsZero() {
		exp := info.ExpiresAt
		resp.ExpiresAt = &exp
	}
	return resp
}
