package worker

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/academy-portal/internal/domain"
	"github.com/spec-kit/academy-portal/internal/events"
	"github.com/spec-kit/academy-portal/internal/feedback"
	"github.com/spec-kit/academy-portal/internal/realtime"
)

const (
	// NotificationCreatedEvent is the broadcast announcing a new notification.
	NotificationCreatedEvent = ".notification.created"
	// DefaultToastTitle is used when a pushed notification has no title.
	DefaultToastTitle = "New Notification"
)

// State is the notification bootstrap lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateSubscribed
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateSubscribed:
		return "subscribed"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Session exposes the stored credentials.
type Session interface {
	Token(ctx context.Context) string
	User(ctx context.Context) *domain.User
}

// Notifications is the held notification state.
type Notifications interface {
	Refresh(ctx context.Context)
	Reset()
}

// Toaster surfaces pushed notifications.
type Toaster interface {
	Show(t feedback.Toast) string
}

// Bootstrap subscribes the signed-in user to their private notification
// channel once per session.
type Bootstrap struct {
	connector     realtime.Connector
	session       Session
	notifications Notifications
	toasts        Toaster
	dispatcher    events.Dispatcher
	logger        *zap.Logger

	mu    sync.Mutex
	state State
	// generation changes on every Initialize attempt and every Disconnect;
	// an attempt only commits while it is still the latest generation.
	generation uint64
	transport  realtime.Transport
	channel    realtime.Channel
}

// BootstrapDependencies encapsulates bootstrap collaborators.
type BootstrapDependencies struct {
	Connector     realtime.Connector
	Session       Session
	Notifications Notifications
	Toasts        Toaster
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// NewBootstrap builds an uninitialized bootstrap.
func NewBootstrap(deps BootstrapDependencies) *Bootstrap {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bootstrap{
		connector:     deps.Connector,
		session:       deps.Session,
		notifications: deps.Notifications,
		toasts:        deps.Toasts,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
	}
}

// ChannelName is the private channel of a user.
func ChannelName(userID int64) string {
	return "user." + strconv.FormatInt(userID, 10)
}

// State returns the current lifecycle state.
func (b *Bootstrap) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Initialize subscribes to the user's channel. Calls made while a
// subscription exists or is being set up are no-ops. Missing credentials
// leave the bootstrap uninitialized without an error.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	b.mu.Lock()
	if b.state != StateUninitialized && b.state != StateDisconnected {
		b.mu.Unlock()
		return nil
	}
	b.state = StateInitializing
	b.generation++
	gen := b.generation
	b.mu.Unlock()

	token := b.session.Token(ctx)
	user := b.session.User(ctx)
	if token == "" || user == nil {
		b.logger.Warn("notification bootstrap skipped: no session profile")
		b.abandon(gen)
		return nil
	}
	if b.connector == nil {
		b.logger.Debug("notification bootstrap skipped: no broadcast connector")
		b.abandon(gen)
		return nil
	}

	transport, err := b.connector.Connect(ctx, token)
	if err != nil {
		b.logger.Warn("broadcast connect failed", zap.Error(err))
		b.abandon(gen)
		return err
	}
	name := ChannelName(user.ID)
	channel, err := transport.Private(ctx, name)
	if err != nil {
		b.logger.Warn("notification channel subscription failed", zap.String("channel", name), zap.Error(err))
		_ = transport.Close()
		b.abandon(gen)
		return err
	}
	channel.Listen(NotificationCreatedEvent, b.onNotification)
	channel.OnError(func(err error) {
		b.logger.Error("notification channel error", zap.String("channel", name), zap.Error(err))
	})

	b.mu.Lock()
	if b.generation != gen {
		// Disconnected, and possibly re-initialized for another session,
		// while this subscription was being set up.
		b.mu.Unlock()
		b.logger.Info("dropping stale notification subscription", zap.String("channel", name))
		_ = channel.Leave()
		_ = transport.Close()
		return nil
	}
	b.state = StateSubscribed
	b.transport = transport
	b.channel = channel
	b.mu.Unlock()

	b.logger.Info("notification channel subscribed", zap.String("channel", name))
	if b.notifications != nil {
		b.notifications.Refresh(ctx)
	}
	return nil
}

// Disconnect leaves the channel, releases the transport and clears the held
// notifications. It is safe to call in any state.
func (b *Bootstrap) Disconnect() {
	b.mu.Lock()
	channel, transport := b.channel, b.transport
	b.channel, b.transport = nil, nil
	b.generation++
	if b.state != StateUninitialized {
		b.state = StateDisconnected
	}
	b.mu.Unlock()

	if channel != nil {
		if err := channel.Leave(); err != nil {
			b.logger.Warn("leave notification channel", zap.Error(err))
		}
	}
	if transport != nil {
		if err := transport.Close(); err != nil {
			b.logger.Warn("close broadcast transport", zap.Error(err))
		}
	}
	if b.notifications != nil {
		b.notifications.Reset()
	}
}

// abandon returns an attempt to uninitialized unless a newer generation
// has taken over.
func (b *Bootstrap) abandon(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.generation == gen {
		b.state = StateUninitialized
	}
}

func (b *Bootstrap) onNotification(ctx context.Context, ev realtime.Event) {
	var data domain.NotificationData
	if len(ev.Data) > 0 {
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			b.logger.Debug("pushed notification payload not readable", zap.Error(err))
		}
	}
	title := data.Title
	if title == "" {
		title = DefaultToastTitle
	}
	if b.toasts != nil {
		b.toasts.Show(feedback.Toast{Tone: feedback.ToneInfo, Title: title, Message: data.Message})
	}
	if b.dispatcher != nil {
		payload := events.NotificationPayload{Title: title, Message: data.Message}
		if err := b.dispatcher.Publish(ctx, events.New(events.EventNotificationReceived, payload)); err != nil {
			b.logger.Warn("notification event handler failed", zap.Error(err))
		}
	}
	if b.notifications != nil {
		b.notifications.Refresh(ctx)
	}
}
