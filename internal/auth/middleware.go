package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/academy-portal/internal/domain"
	apperrors "github.com/spec-kit/academy-portal/pkg/util"
)

const userKey = "portal_user"

// SessionSource exposes the current session to HTTP middleware.
type SessionSource interface {
	IsLoggedIn(ctx context.Context) bool
	StoredUser(ctx context.Context) *domain.User
}

// RequireSession rejects control API calls while no portal session exists.
func RequireSession(sessions SessionSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if !sessions.IsLoggedIn(ctx) {
			return apperrors.NewUnauthorized("no active session")
		}
		if user := sessions.StoredUser(ctx); user != nil {
			c.Locals(userKey, user)
		}
		return c.Next()
	}
}

// UserFromContext retrieves the profile loaded by RequireSession.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(userKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}
