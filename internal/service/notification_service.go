package service

import (
	"context"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/academy-portal/internal/apiclient"
	"github.com/spec-kit/academy-portal/internal/domain"
	"github.com/spec-kit/academy-portal/internal/feedback"
)

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, c feedback.Confirmation) (bool, error)
}

// NotificationService holds the user's latest notifications and unread count.
// Every fetch replaces the held state wholesale; a failed fetch leaves it as it was.
type NotificationService struct {
	api     *apiclient.Client
	confirm Confirmer
	logger  *zap.Logger

	mu            sync.RWMutex
	notifications []domain.Notification
	unread        int
}

// NotificationDependencies encapsulates collaborators for the notification service.
type NotificationDependencies struct {
	API       *apiclient.Client
	Confirmer Confirmer
	Logger    *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		api:     deps.API,
		confirm: deps.Confirmer,
		logger:  logger,
	}
}

type notificationList struct {
	Data []domain.Notification `json:"data"`
}

type unreadCount struct {
	Count int `json:"count"`
}

// LoadLatest replaces the held list with the backend's latest notifications.
func (n *NotificationService) LoadLatest(ctx context.Context) error {
	var resp notificationList
	if err := n.api.Get(ctx, "/notifications/latest", nil, &resp); err != nil {
		n.logger.Warn("failed to load notifications", zap.Error(err))
		return err
	}
	list := resp.Data
	if list == nil {
		list = []domain.Notification{}
	}
	n.mu.Lock()
	n.notifications = list
	n.mu.Unlock()
	return nil
}

// LoadUnreadCount replaces the held unread count.
func (n *NotificationService) LoadUnreadCount(ctx context.Context) error {
	var resp unreadCount
	if err := n.api.Get(ctx, "/notifications/unread-count", nil, &resp); err != nil {
		n.logger.Warn("failed to load unread count", zap.Error(err))
		return err
	}
	n.mu.Lock()
	n.unread = resp.Count
	n.mu.Unlock()
	return nil
}

// Refresh reloads both the list and the unread count.
func (n *NotificationService) Refresh(ctx context.Context) {
	_ = n.LoadLatest(ctx)
	_ = n.LoadUnreadCount(ctx)
}

// MarkRead marks one notification as read, then refetches.
func (n *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := n.api.Post(ctx, "/notifications/"+url.PathEscape(id)+"/mark-read", nil, nil); err != nil {
		n.logger.Warn("failed to mark notification read", zap.String("notification_id", id), zap.Error(err))
		return err
	}
	n.Refresh(ctx)
	return nil
}

// MarkAllRead marks every notification as read, then refetches.
func (n *NotificationService) MarkAllRead(ctx context.Context) error {
	if err := n.api.Post(ctx, "/notifications/mark-all-read", nil, nil); err != nil {
		n.logger.Warn("failed to mark all notifications read", zap.Error(err))
		return err
	}
	n.Refresh(ctx)
	return nil
}

// Delete removes a notification once the user confirms. It reports whether
// the deletion was carried out.
func (n *NotificationService) Delete(ctx context.Context, id string) (bool, error) {
	if n.confirm != nil {
		ok, err := n.confirm.Confirm(ctx, feedback.Confirmation{
			Title:        "Delete notification",
			Message:      "This notification will be removed permanently.",
			ConfirmLabel: "Delete",
			CancelLabel:  "Cancel",
			Tone:         feedback.ToneWarning,
		})
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	if err := n.api.Delete(ctx, "/notifications/"+url.PathEscape(id), nil); err != nil {
		n.logger.Warn("failed to delete notification", zap.String("notification_id", id), zap.Error(err))
		return false, err
	}
	n.Refresh(ctx)
	return true, nil
}

// Notifications returns a copy of the held list, newest first.
func (n *NotificationService) Notifications() []domain.Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]domain.Notification, len(n.notifications))
	copy(out, n.notifications)
	return out
}

// UnreadCount returns the held unread count.
func (n *NotificationService) UnreadCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.unread
}

// Reset empties the list and zeroes the count.
func (n *NotificationService) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = nil
	n.unread = 0
}
