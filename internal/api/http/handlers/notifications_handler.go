package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/academy-portal/internal/api/dto"
	"github.com/spec-kit/academy-portal/internal/service"
	"github.com/spec-kit/academy-portal/internal/worker"
)

// NotificationsHandler exposes the notification bell.
type NotificationsHandler struct {
	notifications *service.NotificationService
	bootstrap     *worker.Bootstrap
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService, bootstrap *worker.Bootstrap) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications, bootstrap: bootstrap}
}

// List handles GET /notifications. ?refresh=true reloads from the backend first.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	if c.QueryBool("refresh") {
		if err := h.notifications.LoadLatest(c.UserContext()); err != nil {
			return err
		}
	}
	return c.JSON(h.snapshot())
}

// UnreadCount handles GET /notifications/unread-count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	if err := h.notifications.LoadUnreadCount(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"count": h.notifications.UnreadCount()})
}

// MarkRead handles POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.notifications.MarkRead(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(h.snapshot())
}

// MarkAllRead handles POST /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	if err := h.notifications.MarkAllRead(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(h.snapshot())
}

// Delete handles DELETE /notifications/:id. The call waits for the
// confirmation dialog to be answered through /feedback/modal.
func (h *NotificationsHandler) Delete(c *fiber.Ctx) error {
	deleted, err := h.notifications.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted": deleted})
}

func (h *NotificationsHandler) snapshot() dto.NotificationsResponse {
	return dto.NotificationsResponse{
		Data:        h.notifications.Notifications(),
		UnreadCount: h.notifications.UnreadCount(),
		State:       h.bootstrap.State().String(),
	}
}
