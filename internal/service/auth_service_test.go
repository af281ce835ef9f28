package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/academy-portal/internal/apiclient"
	"github.com/spec-kit/academy-portal/internal/domain"
	"github.com/spec-kit/academy-portal/internal/events"
	"github.com/spec-kit/academy-portal/internal/tokenstore"
	apperrors "github.com/spec-kit/academy-portal/pkg/util"
)

type authFixture struct {
	svc       *AuthService
	store     *tokenstore.Store
	durable   *tokenstore.MemoryTier
	transient *tokenstore.MemoryTier
	events    []events.Event
}

func newAuthFixture(t *testing.T, handler http.Handler) *authFixture {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return newAuthFixtureAt(srv.URL)
}

func newAuthFixtureAt(baseURL string) *authFixture {
	f := &authFixture{
		durable:   tokenstore.NewMemoryTier(),
		transient: tokenstore.NewMemoryTier(),
	}
	f.store = tokenstore.New(f.durable, f.transient, nil)
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{events.EventSessionStarted, events.EventSessionEnded, events.EventSessionExpired} {
		dispatcher.Subscribe(et, func(_ context.Context, ev events.Event) error {
			f.events = append(f.events, ev)
			return nil
		})
	}
	f.svc = NewAuthService(AuthDependencies{
		API:        apiclient.New(apiclient.Options{BaseURL: baseURL, Tokens: f.store}),
		Store:      f.store,
		Dispatcher: dispatcher,
	})
	return f
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLoginPersistsToSelectedTier(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds domain.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "1|abc",
			"user":  map[string]any{"id": 9, "username": "zawadi", "roles": []string{"teacher"}},
		})
	})
	f := newAuthFixture(t, mux)
	ctx := context.Background()

	user, err := f.svc.Login(ctx, domain.Credentials{Email: "z@academy.test", Password: "secret"}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(9), user.ID)
	assert.True(t, f.svc.IsLoggedIn(ctx))
	assert.Equal(t, "/staff", f.svc.DashboardURL(ctx))

	v, ok, err := f.durable.Get(ctx, tokenstore.TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1|abc", v)
	_, ok, _ = f.transient.Get(ctx, tokenstore.TokenKey)
	assert.False(t, ok)

	require.Len(t, f.events, 1)
	assert.Equal(t, events.EventSessionStarted, f.events[0].Type)
}

func TestLoginPropagatesBackendError(t *testing.T) {
	f := newAuthFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	}))
	ctx := context.Background()

	_, err := f.svc.Login(ctx, domain.Credentials{Email: "a@b.c", Password: "nope"}, false)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
	assert.Equal(t, "Invalid credentials", de.Message)
	assert.False(t, f.svc.IsLoggedIn(ctx))
	assert.Empty(t, f.events)
}

func TestLoginWithoutTokenIsRejected(t *testing.T) {
	f := newAuthFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": 1}})
	}))
	_, err := f.svc.ExchangeToken(context.Background(), "code", false)
	require.Error(t, err)
	assert.False(t, f.svc.IsLoggedIn(context.Background()))
}

func TestLogoutClearsStoreWhenBackendFails(t *testing.T) {
	var calls atomic.Int32
	f := newAuthFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "down"})
	}))
	ctx := context.Background()
	require.NoError(t, f.store.PersistAuthResponse(ctx, "tok", &domain.User{ID: 4}, false))

	require.NoError(t, f.svc.Logout(ctx))
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, f.svc.IsLoggedIn(ctx))
	assert.Nil(t, f.svc.StoredUser(ctx))

	require.Len(t, f.events, 1)
	assert.Equal(t, events.EventSessionEnded, f.events[0].Type)
	payload := f.events[0].Payload.(events.SessionPayload)
	assert.Equal(t, int64(4), payload.UserID)
	assert.Equal(t, events.ReasonLogout, payload.Reason)
}

func TestLogoutClearsStoreWhenBackendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	f := newAuthFixtureAt(srv.URL)
	ctx := context.Background()
	require.NoError(t, f.store.PersistAuthResponse(ctx, "tok", &domain.User{ID: 6}, true))

	require.NoError(t, f.svc.Logout(ctx))
	assert.False(t, f.svc.IsLoggedIn(ctx))
	assert.Nil(t, f.svc.StoredUser(ctx))
	_, ok, err := f.durable.Get(ctx, tokenstore.TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.Len(t, f.events, 1)
	assert.Equal(t, events.EventSessionEnded, f.events[0].Type)
}

func TestRefreshProfileAcceptsBothEnvelopes(t *testing.T) {
	var envelope atomic.Value
	envelope.Store("data")
	f := newAuthFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			envelope.Load().(string): map[string]any{"id": 5, "username": "baraka", "roles": []string{"student"}},
		})
	}))
	ctx := context.Background()
	require.NoError(t, f.store.SeedToken(ctx, "tok", true))

	user, err := f.svc.RefreshProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "baraka", user.Username)
	assert.Equal(t, "baraka", f.svc.StoredUser(ctx).Username)

	envelope.Store("user")
	user, err = f.svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)

	envelope.Store("other")
	_, err = f.svc.CurrentUser(ctx)
	assert.Equal(t, http.StatusNotFound, apperrors.StatusOf(err))
}

func TestSignOutLocalPublishesReason(t *testing.T) {
	f := newAuthFixture(t, http.NotFoundHandler())
	ctx := context.Background()
	require.NoError(t, f.store.SeedToken(ctx, "tok", false))

	require.NoError(t, f.svc.SignOutLocal(ctx, events.ReasonExpired))
	assert.False(t, f.svc.IsLoggedIn(ctx))
	require.Len(t, f.events, 1)
	assert.Equal(t, events.EventSessionExpired, f.events[0].Type)
}

func TestSnapshot(t *testing.T) {
	f := newAuthFixture(t, http.NotFoundHandler())
	ctx := context.Background()
	assert.False(t, f.svc.Snapshot(ctx).LoggedIn)

	require.NoError(t, f.store.PersistAuthResponse(ctx, "tok", &domain.User{ID: 2, Roles: []domain.Role{domain.RoleParent}}, false))
	snap := f.svc.Snapshot(ctx)
	assert.True(t, snap.LoggedIn)
	require.NotNil(t, snap.User)
	assert.Equal(t, int64(2), snap.User.ID)
}
