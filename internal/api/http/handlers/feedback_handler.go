package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/academy-portal/internal/api/dto"
	"github.com/spec-kit/academy-portal/internal/feedback"
	apperrors "github.com/spec-kit/academy-portal/pkg/util"
)

// FeedbackHandler exposes toasts, the confirmation modal and the loader.
type FeedbackHandler struct {
	toasts   *feedback.Toasts
	modal    *feedback.Modal
	loader   *feedback.Loader
	validate *validator.Validate
}

// NewFeedbackHandler constructs handler.
func NewFeedbackHandler(toasts *feedback.Toasts, modal *feedback.Modal, loader *feedback.Loader, validate *validator.Validate) *FeedbackHandler {
	return &FeedbackHandler{toasts: toasts, modal: modal, loader: loader, validate: validate}
}

// Toasts handles GET /feedback/toasts.
func (h *FeedbackHandler) Toasts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.toasts.List()})
}

// DismissToast handles DELETE /feedback/toasts/:id.
func (h *FeedbackHandler) DismissToast(c *fiber.Ctx) error {
	if !h.toasts.Dismiss(c.Params("id")) {
		return apperrors.NewNotFound("toast", nil)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Modal handles GET /feedback/modal.
func (h *FeedbackHandler) Modal(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.modal.Pending()})
}

// ResolveModal handles POST /feedback/modal/:id.
func (h *FeedbackHandler) ResolveModal(c *fiber.Ctx) error {
	var req dto.ResolveModalRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	if err := h.modal.Resolve(c.Params("id"), *req.Accepted); err != nil {
		if errors.Is(err, feedback.ErrNoSuchConfirmation) {
			return apperrors.NewNotFound("confirmation", nil)
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Loader handles GET /feedback/loader.
func (h *FeedbackHandler) Loader(c *fiber.Ctx) error {
	return c.JSON(dto.LoaderResponse{Active: h.loader.Active(), Count: h.loader.Count()})
}
