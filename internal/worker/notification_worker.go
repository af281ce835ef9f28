package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/academy-portal/internal/events"
)

// Navigation reports whether a URL belongs to an auth flow.
type Navigation interface {
	IsAuthPage(url string) bool
}

// LoginState reports whether a session exists.
type LoginState interface {
	IsLoggedIn(ctx context.Context) bool
}

// StartNotificationWorker ties the bootstrap to navigation and session
// events: a committed navigation to a regular page while signed in starts
// it, and the end of a session tears it down.
func StartNotificationWorker(dispatcher events.Dispatcher, bootstrap *Bootstrap, nav Navigation, login LoginState, logger *zap.Logger) {
	if dispatcher == nil || bootstrap == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dispatcher.Subscribe(events.EventNavigationEnd, func(ctx context.Context, ev events.Event) error {
		payload, ok := ev.Payload.(events.NavigationPayload)
		if !ok || nav.IsAuthPage(payload.URL) || !login.IsLoggedIn(ctx) {
			return nil
		}
		if err := bootstrap.Initialize(ctx); err != nil {
			// Retried on the next navigation.
			logger.Warn("notification bootstrap failed", zap.String("url", payload.URL), zap.Error(err))
		}
		return nil
	})

	disconnect := func(context.Context, events.Event) error {
		bootstrap.Disconnect()
		return nil
	}
	dispatcher.Subscribe(events.EventSessionEnded, disconnect)
	dispatcher.Subscribe(events.EventSessionExpired, disconnect)
}
