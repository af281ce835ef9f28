// Package app assembles the portal components and wires their interactions.
package app

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/academy-portal/internal/apiclient"
	"github.com/spec-kit/academy-portal/internal/config"
	"github.com/spec-kit/academy-portal/internal/events"
	"github.com/spec-kit/academy-portal/internal/feedback"
	"github.com/spec-kit/academy-portal/internal/guard"
	"github.com/spec-kit/academy-portal/internal/observability"
	"github.com/spec-kit/academy-portal/internal/realtime"
	"github.com/spec-kit/academy-portal/internal/router"
	"github.com/spec-kit/academy-portal/internal/service"
	"github.com/spec-kit/academy-portal/internal/tokenstore"
	"github.com/spec-kit/academy-portal/internal/worker"
	apperrors "github.com/spec-kit/academy-portal/pkg/util"
)

// Options are the externally built pieces of an App.
type Options struct {
	Config    config.Config
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Durable   tokenstore.Tier
	Transient tokenstore.Tier
	Connector realtime.Connector
	// HTTPClient overrides the backend HTTP client, mainly for tests.
	HTTPClient *http.Client
}

// App is the assembled portal.
type App struct {
	Config        config.Config
	Logger        *zap.Logger
	Metrics       *observability.Metrics
	Dispatcher    events.Dispatcher
	Store         *tokenstore.Store
	API           *apiclient.Client
	Auth          *service.AuthService
	Notifications *service.NotificationService
	Router        *router.Router
	Bootstrap     *worker.Bootstrap
	Resyncer      *worker.Resyncer
	Toasts        *feedback.Toasts
	Modal         *feedback.Modal
	Loader        *feedback.Loader
}

// New builds every component and wires hooks and event handlers.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Metrics:    opts.Metrics,
		Dispatcher: events.NewInMemoryDispatcher(),
		Toasts:     feedback.NewToasts(cfg.Notification.ToastTTL(), logger.Named("toasts")),
		Modal:      feedback.NewModal(),
		Loader:     feedback.NewLoader(cfg.Feedback.LoaderMinDuration()),
	}
	a.Store = tokenstore.New(opts.Durable, opts.Transient, logger.Named("tokenstore"))
	a.API = apiclient.New(apiclient.Options{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.Timeout(),
		Tokens:     a.Store,
		Metrics:    opts.Metrics,
		Logger:     logger.Named("apiclient"),
		HTTPClient: opts.HTTPClient,
	})
	a.Auth = service.NewAuthService(service.AuthDependencies{
		API:        a.API,
		Store:      a.Store,
		Dispatcher: a.Dispatcher,
		Logger:     logger.Named("auth"),
	})
	a.Notifications = service.NewNotificationService(service.NotificationDependencies{
		API:       a.API,
		Confirmer: a.Modal,
		Logger:    logger.Named("notifications"),
	})
	a.Router = router.New(router.Dependencies{
		Sessions:   a.Auth,
		Dispatcher: a.Dispatcher,
		Tracker:    a.Loader,
		Logger:     logger.Named("router"),
	})
	a.Bootstrap = worker.NewBootstrap(worker.BootstrapDependencies{
		Connector:     opts.Connector,
		Session:       a.Store,
		Notifications: a.Notifications,
		Toasts:        a.Toasts,
		Dispatcher:    a.Dispatcher,
		Logger:        logger.Named("bootstrap"),
	})
	a.Resyncer = worker.NewResyncer(cfg.Notification.ResyncSchedule, a.Bootstrap, a.Notifications, logger.Named("resync"))

	a.API.SetHooks(apiclient.Hooks{
		OnUnauthorized: a.onUnauthorized,
		OnError:        a.onBackendError,
		Tracker:        a.Loader,
	})
	worker.StartNotificationWorker(a.Dispatcher, a.Bootstrap, a.Router, a.Auth, logger.Named("worker"))
	a.Dispatcher.Subscribe(events.EventNotificationReceived, a.onNotificationReceived)
	return a
}

// Start launches background jobs.
func (a *App) Start() error {
	return a.Resyncer.Start()
}

// Stop halts background jobs and releases the broadcast transport.
func (a *App) Stop() {
	a.Resyncer.Stop()
	a.Bootstrap.Disconnect()
	a.Toasts.Clear()
}

// onUnauthorized ends a session the backend no longer accepts and sends the
// user to the login page.
func (a *App) onUnauthorized(ctx context.Context, err *apperrors.DomainError) {
	a.Logger.Warn("session rejected by backend", zap.String("message", err.Message))
	if !a.Auth.IsLoggedIn(ctx) {
		return
	}
	if signOutErr := a.Auth.SignOutLocal(ctx, events.ReasonExpired); signOutErr != nil {
		a.Logger.Warn("failed to clear expired session", zap.Error(signOutErr))
	}
	a.Toasts.Warning("Session expired", "Please sign in again.")
	if _, navErr := a.Router.Navigate(ctx, guard.LoginURL(a.Router.Current())); navErr != nil {
		a.Logger.Warn("redirect to login failed", zap.Error(navErr))
	}
}

func (a *App) onNotificationReceived(ctx context.Context, ev events.Event) error {
	payload, _ := ev.Payload.(events.NotificationPayload)
	fields := []zap.Field{zap.String("event_id", ev.ID), zap.String("title", payload.Title)}
	if user := a.Auth.StoredUser(ctx); user != nil {
		fields = append(fields, zap.Int64("user_id", user.ID))
	}
	a.Logger.Info("notification pushed", fields...)
	return nil
}

func (a *App) onBackendError(_ context.Context, err *apperrors.DomainError) {
	a.Toasts.Error("Request failed", err.Message)
}
