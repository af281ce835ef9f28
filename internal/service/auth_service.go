package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/academy-portal/internal/apiclient"
	"github.com/spec-kit/academy-portal/internal/auth"
	"github.com/spec-kit/academy-portal/internal/domain"
	"github.com/spec-kit/academy-portal/internal/events"
	"github.com/spec-kit/academy-portal/internal/guard"
	"github.com/spec-kit/academy-portal/internal/tokenstore"
	apperrors "github.com/spec-kit/academy-portal/pkg/util"
)

// ErrMissingToken is returned when a login-like endpoint answers without a token.
var ErrMissingToken = errors.New("backend response carried no token")

// AuthService owns the client-side session: it calls the backend auth
// endpoints and keeps the token store in step with their answers.
type AuthService struct {
	api        *apiclient.Client
	store      *tokenstore.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	API        *apiclient.Client
	Store      *tokenstore.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		api:        deps.API,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// MessageResponse is the {message} body of the proxy endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

type profileEnvelope struct {
	Data *domain.User `json:"data"`
	User *domain.User `json:"user"`
}

// Login authenticates with email and password. Backend errors are returned unchanged.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials, remember bool) (*domain.User, error) {
	return s.authenticate(ctx, "/auth/login", creds, remember)
}

// LoginWithGoogle trades a Google ID token for a portal session.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string, remember bool) (*domain.User, error) {
	return s.authenticate(ctx, "/auth/google", map[string]string{"token": idToken}, remember)
}

// ExchangeToken trades a one-time OAuth callback code for a portal session.
func (s *AuthService) ExchangeToken(ctx context.Context, code string, remember bool) (*domain.User, error) {
	return s.authenticate(ctx, "/auth/exchange-token", map[string]string{"code": code}, remember)
}

func (s *AuthService) authenticate(ctx context.Context, path string, body any, remember bool) (*domain.User, error) {
	var resp domain.AuthResponse
	if err := s.api.Post(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, apperrors.NewDomainError("INVALID_AUTH_RESPONSE", ErrMissingToken.Error(), http.StatusBadGateway, nil)
	}
	if err := s.store.PersistAuthResponse(ctx, resp.Token, resp.User, remember); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	s.publish(ctx, events.EventSessionStarted, resp.User, "")
	s.logger.Info("session started", zap.String("via", path), zap.Bool("remember", remember))
	return resp.User, nil
}

// Register creates an account. When the backend answers with a token the
// new session is persisted right away.
func (s *AuthService) Register(ctx context.Context, reg domain.Registration, remember bool) (*domain.User, error) {
	var resp domain.AuthResponse
	if err := s.api.Post(ctx, "/auth/register", reg, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return resp.User, nil
	}
	if err := s.store.PersistAuthResponse(ctx, resp.Token, resp.User, remember); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	s.publish(ctx, events.EventSessionStarted, resp.User, "")
	return resp.User, nil
}

// VerifyEmail confirms an address with the emailed code.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	return s.proxy(ctx, "/auth/verify-email", map[string]string{"email": email, "code": code})
}

// SendResetCode asks the backend to email a password reset code.
func (s *AuthService) SendResetCode(ctx context.Context, email string) (string, error) {
	return s.proxy(ctx, "/auth/send-reset-code", map[string]string{"email": email})
}

// ResetPassword completes a password reset.
func (s *AuthService) ResetPassword(ctx context.Context, reset domain.PasswordReset) (string, error) {
	return s.proxy(ctx, "/auth/reset-password", reset)
}

func (s *AuthService) proxy(ctx context.Context, path string, body any) (string, error) {
	var resp MessageResponse
	if err := s.api.Post(ctx, path, body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Logout ends the session on the backend. The local session is cleared
// whatever the backend answers, and backend failures are only logged.
func (s *AuthService) Logout(ctx context.Context) error {
	user := s.store.User(ctx)
	defer func() {
		if err := s.store.SignOut(ctx); err != nil {
			s.logger.Warn("failed to clear session storage", zap.Error(err))
		}
		s.publish(ctx, events.EventSessionEnded, user, events.ReasonLogout)
	}()

	if !s.store.HasToken(ctx) {
		return nil
	}
	if err := s.api.Post(ctx, "/auth/logout", nil, nil); err != nil {
		s.logger.Warn("backend logout failed", zap.Error(err))
	}
	return nil
}

// SignOutLocal clears the session without calling the backend.
func (s *AuthService) SignOutLocal(ctx context.Context, reason string) error {
	user := s.store.User(ctx)
	err := s.store.SignOut(ctx)
	eventType := events.EventSessionEnded
	if reason == events.ReasonExpired {
		eventType = events.EventSessionExpired
	}
	s.publish(ctx, eventType, user, reason)
	return err
}

// IsLoggedIn reports whether a session token is stored.
func (s *AuthService) IsLoggedIn(ctx context.Context) bool {
	return s.store.HasToken(ctx)
}

// StoredUser returns the cached profile, or nil.
func (s *AuthService) StoredUser(ctx context.Context) *domain.User {
	return s.store.User(ctx)
}

// DashboardURL returns the landing page for the stored profile.
func (s *AuthService) DashboardURL(ctx context.Context) string {
	user := s.store.User(ctx)
	if user == nil {
		return auth.PathRoot
	}
	return auth.DashboardURL(user.Roles)
}

// Snapshot captures the session state the route guards decide on.
func (s *AuthService) Snapshot(ctx context.Context) guard.Session {
	return guard.Session{
		LoggedIn: s.store.HasToken(ctx),
		User:     s.store.User(ctx),
	}
}

// CurrentUser fetches the profile from the backend.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	var env profileEnvelope
	if err := s.api.Get(ctx, "/me", nil, &env); err != nil {
		return nil, err
	}
	user := env.Data
	if user == nil {
		user = env.User
	}
	if user == nil {
		return nil, apperrors.NewNotFound("profile", nil)
	}
	return user, nil
}

// RefreshProfile fetches the profile and rewrites the cached copy.
func (s *AuthService) RefreshProfile(ctx context.Context) (*domain.User, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateStoredUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update stored user: %w", err)
	}
	return user, nil
}

// TokenInfo exposes the readable claims of the stored token.
func (s *AuthService) TokenInfo(ctx context.Context) (domain.TokenInfo, error) {
	return auth.Introspect(s.store.Token(ctx))
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, user *domain.User, reason string) {
	if s.dispatcher == nil {
		return
	}
	payload := events.SessionPayload{Reason: reason}
	if user != nil {
		payload.UserID = user.ID
	}
	if err := s.dispatcher.Publish(ctx, events.New(eventType, payload)); err != nil {
		s.logger.Warn("session event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}
