package dto

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/academy-portal/internal/domain"
)

// LoginRequest payload for POST /session/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

// Validate normalizes and validates the request.
func (r *LoginRequest) Validate(validate *validator.Validate) error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return validate.Struct(r)
}

// GoogleLoginRequest payload for POST /session/google.
type GoogleLoginRequest struct {
	Token    string `json:"token" validate:"required"`
	Remember bool   `json:"remember"`
}

func (r *GoogleLoginRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

// SessionResponse describes the current session.
type SessionResponse struct {
	LoggedIn     bool         `json:"logged_in"`
	User         *domain.User `json:"user,omitempty"`
	DashboardURL string       `json:"dashboard_url"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
}

// NavigateRequest payload for POST /navigate.
type NavigateRequest struct {
	URL string `json:"url" validate:"required,startswith=/"`
}

func (r *NavigateRequest) Validate(validate *validator.Validate) error {
	r.URL = strings.TrimSpace(r.URL)
	return validate.Struct(r)
}

// NavigateResponse reports where a navigation landed.
type NavigateResponse struct {
	Requested  string `json:"requested"`
	URL        string `json:"url"`
	Redirected bool   `json:"redirected"`
}
