package dto

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/academy-portal/internal/domain"
)

// RegisterRequest payload for POST /session/register.
type RegisterRequest struct {
	Username             string      `json:"username" validate:"required,min=3"`
	Email                string      `json:"email" validate:"required,email"`
	Password             string      `json:"password" validate:"required,min=8"`
	PasswordConfirmation string      `json:"password_confirmation" validate:"required,eqfield=Password"`
	Role                 domain.Role `json:"role" validate:"omitempty,oneof=center_admin teacher assistant student parent"`
	Remember             bool        `json:"remember"`
}

// Validate normalizes and validates the request.
func (r *RegisterRequest) Validate(validate *validator.Validate) error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return validate.Struct(r)
}

// Registration maps the request onto the backend payload.
func (r *RegisterRequest) Registration() domain.Registration {
	return domain.Registration{
		Username:             r.Username,
		Email:                r.Email,
		Password:             r.Password,
		PasswordConfirmation: r.PasswordConfirmation,
		Role:                 r.Role,
	}
}

// ExchangeTokenRequest payload for POST /session/exchange.
type ExchangeTokenRequest struct {
	Code     string `json:"code" validate:"required"`
	Remember bool   `json:"remember"`
}

func (r *ExchangeTokenRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

// VerifyEmailRequest payload for POST /account/verify-email.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

func (r *VerifyEmailRequest) Validate(validate *validator.Validate) error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return validate.Struct(r)
}

// ResetCodeRequest payload for POST /account/send-reset-code.
type ResetCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *ResetCodeRequest) Validate(validate *validator.Validate) error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return validate.Struct(r)
}

// ResetPasswordRequest payload for POST /account/reset-password.
type ResetPasswordRequest struct {
	Email                string `json:"email" validate:"required,email"`
	Code                 string `json:"code" validate:"required"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

func (r *ResetPasswordRequest) Validate(validate *validator.Validate) error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return validate.Struct(r)
}

// MessageResponse relays the backend's confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}
