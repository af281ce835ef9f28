package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/academy-portal/internal/api/dto"
	"github.com/spec-kit/academy-portal/internal/router"
	apperrors "github.com/spec-kit/academy-portal/pkg/util"
)

// NavigationHandler drives the portal router.
type NavigationHandler struct {
	nav      Navigator
	validate *validator.Validate
}

// NewNavigationHandler constructs handler.
func NewNavigationHandler(nav Navigator, validate *validator.Validate) *NavigationHandler {
	return &NavigationHandler{nav: nav, validate: validate}
}

// Navigate handles POST /navigate.
func (h *NavigationHandler) Navigate(c *fiber.Ctx) error {
	var req dto.NavigateRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	res, err := h.nav.Navigate(c.UserContext(), req.URL)
	if errors.Is(err, router.ErrTooManyRedirects) {
		return apperrors.NewDomainError("REDIRECT_LOOP", err.Error(), http.StatusLoopDetected, map[string]any{"url": req.URL})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NavigateResponse{
		Requested:  res.Requested,
		URL:        res.URL,
		Redirected: res.Redirected,
	}})
}

// Current handles GET /navigate.
func (h *NavigationHandler) Current(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{"url": h.nav.Current()}})
}
