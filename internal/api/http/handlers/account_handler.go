package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/academy-portal/internal/api/dto"
	"github.com/spec-kit/academy-portal/internal/domain"
	"github.com/spec-kit/academy-portal/internal/service"
)

// AccountHandler proxies the account maintenance endpoints.
type AccountHandler struct {
	auth     *service.AuthService
	validate *validator.Validate
}

// NewAccountHandler constructs handler.
func NewAccountHandler(authService *service.AuthService, validate *validator.Validate) *AccountHandler {
	return &AccountHandler{auth: authService, validate: validate}
}

// VerifyEmail handles POST /account/verify-email.
func (h *AccountHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	msg, err := h.auth.VerifyEmail(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: msg})
}

// SendResetCode handles POST /account/send-reset-code.
func (h *AccountHandler) SendResetCode(c *fiber.Ctx) error {
	var req dto.ResetCodeRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	msg, err := h.auth.SendResetCode(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: msg})
}

// ResetPassword handles POST /account/reset-password.
func (h *AccountHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	msg, err := h.auth.ResetPassword(c.UserContext(), domain.PasswordReset{
		Email:                req.Email,
		Code:                 req.Code,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: msg})
}
