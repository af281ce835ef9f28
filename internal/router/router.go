// Package router runs navigations through the route guards and announces
// their outcome on the event dispatcher.
package router

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/academy-portal/internal/auth"
	"github.com/spec-kit/academy-portal/internal/events"
	"github.com/spec-kit/academy-portal/internal/guard"
)

// MaxRedirects bounds the redirects followed by a single navigation.
const MaxRedirects = 8

// ErrTooManyRedirects is returned when guards keep redirecting.
var ErrTooManyRedirects = errors.New("navigation exceeded redirect limit")

// SessionSource provides guard input and carries out sign-out decisions.
type SessionSource interface {
	Snapshot(ctx context.Context) guard.Session
	SignOutLocal(ctx context.Context, reason string) error
}

// Tracker is held for the duration of a navigation.
type Tracker interface {
	Begin() func()
}

// Result describes a committed navigation.
type Result struct {
	Requested  string `json:"requested"`
	URL        string `json:"url"`
	Redirected bool   `json:"redirected"`
	Hops       int    `json:"hops"`
}

// Router is the portal's navigation state.
type Router struct {
	routes     []Route
	sessions   SessionSource
	dispatcher events.Dispatcher
	tracker    Tracker
	logger     *zap.Logger

	mu      sync.RWMutex
	current string
}

// Dependencies encapsulates router collaborators.
type Dependencies struct {
	Routes     []Route
	Sessions   SessionSource
	Dispatcher events.Dispatcher
	Tracker    Tracker
	Logger     *zap.Logger
}

// New builds a router. Without routes the default table is used.
func New(deps Dependencies) *Router {
	routes := deps.Routes
	if len(routes) == 0 {
		routes = DefaultRoutes()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		routes:     routes,
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		tracker:    deps.Tracker,
		logger:     logger,
		current:    auth.PathRoot,
	}
}

// Navigate evaluates the guards for target, following redirects, and
// commits the final URL.
func (r *Router) Navigate(ctx context.Context, target string) (Result, error) {
	if r.tracker != nil {
		done := r.tracker.Begin()
		defer done()
	}
	from := r.Current()
	r.publish(ctx, events.EventNavigationStart, events.NavigationPayload{URL: target, From: from})

	result := Result{Requested: target}
	next := target
	for hop := 0; hop <= MaxRedirects; hop++ {
		route, ok := r.match(pathOf(next))
		if !ok {
			r.logger.Debug("unknown route", zap.String("url", next))
			next = auth.PathRoot
			result.Redirected = true
			result.Hops++
			continue
		}

		decision := route.Guard(guard.Input{
			Session: r.sessions.Snapshot(ctx),
			URL:     next,
			Route:   guard.Route{Path: route.Path, RequiredRoles: route.RequiredRoles},
		})
		if decision.Allowed() {
			r.mu.Lock()
			r.current = next
			r.mu.Unlock()

			result.URL = next
			r.logger.Debug("navigation committed",
				zap.String("requested", target),
				zap.String("url", next),
				zap.Int("hops", result.Hops),
			)
			r.publish(ctx, events.EventNavigationEnd, events.NavigationPayload{URL: next, From: from, Redirected: result.Redirected})
			return result, nil
		}

		if decision.SignOut {
			if err := r.sessions.SignOutLocal(ctx, events.ReasonRejected); err != nil {
				r.logger.Warn("sign out requested by guard failed", zap.Error(err))
			}
		}
		next = decision.Path
		result.Redirected = true
		result.Hops++
	}

	r.logger.Warn("navigation cancelled", zap.String("requested", target), zap.Int("hops", result.Hops))
	r.publish(ctx, events.EventNavigationCancel, events.NavigationPayload{URL: target, From: from, Reason: ErrTooManyRedirects.Error()})
	return result, ErrTooManyRedirects
}

// Current returns the last committed URL.
func (r *Router) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// IsAuthPage reports whether url belongs to a login or registration flow.
func (r *Router) IsAuthPage(url string) bool {
	route, ok := r.match(pathOf(url))
	return ok && route.AuthPage
}

func (r *Router) match(path string) (Route, bool) {
	for _, route := range r.routes {
		if route.matches(path) {
			return route, true
		}
	}
	return Route{}, false
}

func (r *Router) publish(ctx context.Context, eventType events.EventType, payload events.NavigationPayload) {
	if r.dispatcher == nil {
		return
	}
	if err := r.dispatcher.Publish(ctx, events.New(eventType, payload)); err != nil {
		r.logger.Warn("navigation event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}
