package http

import (
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/academy-portal/internal/api/http/handlers"
	"github.com/spec-kit/academy-portal/internal/app"
	"github.com/spec-kit/academy-portal/internal/config"
	"github.com/spec-kit/academy-portal/internal/observability"
	"github.com/spec-kit/academy-portal/internal/tokenstore"
)

type academyBackend struct {
	mu      sync.Mutex
	read    bool
	deleted bool
}

func (b *academyBackend) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/auth/login":
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["password"] != "secret" {
			w.WriteHeader(nethttp.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"The provided credentials are incorrect.","errors":{"email":["The provided credentials are incorrect."]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"5|opaque","user":{"id":5,"username":"amani","roles":["student"]}}`))
	case r.URL.Path == "/auth/register":
		w.WriteHeader(nethttp.StatusCreated)
		_, _ = w.Write([]byte(`{"user":{"id":9,"username":"zawadi","roles":["center_admin"],"approval_status":"pending"}}`))
	case r.URL.Path == "/auth/send-reset-code":
		_, _ = w.Write([]byte(`{"message":"Reset code sent."}`))
	case r.URL.Path == "/auth/logout":
		w.WriteHeader(nethttp.StatusNoContent)
	case r.URL.Path == "/me":
		_, _ = w.Write([]byte(`{"data":{"id":5,"username":"amani","roles":["student"],"is_data_complete":true}}`))
	case r.URL.Path == "/notifications/latest":
		if b.deleted {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		readAt := "null"
		if b.read {
			readAt = `"2026-10-02T09:00:00Z"`
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"a","type":"grade","data":{"title":"Grade posted"},"read_at":` + readAt + `,"created_at":"2026-10-01T08:00:00Z"}]}`))
	case r.URL.Path == "/notifications/unread-count":
		if b.read || b.deleted {
			_, _ = w.Write([]byte(`{"count":0}`))
			return
		}
		_, _ = w.Write([]byte(`{"count":1}`))
	case r.URL.Path == "/notifications/a/mark-read" && r.Method == nethttp.MethodPost:
		b.read = true
		_, _ = w.Write([]byte(`{}`))
	case r.URL.Path == "/notifications/a" && r.Method == nethttp.MethodDelete:
		b.deleted = true
		w.WriteHeader(nethttp.StatusNoContent)
	default:
		w.WriteHeader(nethttp.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}
}

func newControlAPI(t *testing.T) (*fiber.App, *app.App) {
	t.Helper()
	srv := httptest.NewServer(&academyBackend{})
	t.Cleanup(srv.Close)

	metrics := observability.NewMetrics()
	portal := app.New(app.Options{
		Config: config.Config{
			Backend:      config.BackendConfig{BaseURL: srv.URL, TimeoutSeconds: 5},
			Notification: config.NotificationConfig{ToastTTLSeconds: 60},
		},
		Metrics:   metrics,
		Durable:   tokenstore.NewMemoryTier(),
		Transient: tokenstore.NewMemoryTier(),
	})
	t.Cleanup(portal.Stop)

	validate := validator.New()
	api := fiber.New()
	RegisterMiddlewares(api, zap.NewNop(), metrics, 0)
	RegisterRoutes(api, RouteConfig{
		Health:        handlers.NewHealthHandler("academy-portal", "test", nil, nil),
		Session:       handlers.NewSessionHandler(portal.Auth, portal.Router, validate, nil),
		Account:       handlers.NewAccountHandler(portal.Auth, validate),
		Navigation:    handlers.NewNavigationHandler(portal.Router, validate),
		Notifications: handlers.NewNotificationsHandler(portal.Notifications, portal.Bootstrap),
		Feedback:      handlers.NewFeedbackHandler(portal.Toasts, portal.Modal, portal.Loader, validate),
		Metrics:       handlers.NewMetricsHandler(metrics),
		Sessions:      portal.Auth,
	})
	return api, portal
}

func call(t *testing.T, api *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := api.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func login(t *testing.T, api *fiber.App) {
	t.Helper()
	status, _ := call(t, api, fiber.MethodPost, "/session/login", `{"email":"Amani@Academy.test ","password":"secret"}`)
	require.Equal(t, fiber.StatusOK, status)
}

func TestSessionLifecycle(t *testing.T) {
	api, portal := newControlAPI(t)

	status, body := call(t, api, fiber.MethodPost, "/session/login", `{"email":"not-an-email"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	apiErr := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", apiErr["code"])
	assert.Equal(t, map[string]any{"Email": "email", "Password": "required"}, apiErr["details"])

	status, body = call(t, api, fiber.MethodPost, "/session/login", `{"email":"amani@academy.test","password":"secret","remember":true}`)
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["logged_in"])
	assert.Equal(t, "/dashboard", data["dashboard_url"])
	assert.NotContains(t, data, "expires_at")

	status, body = call(t, api, fiber.MethodPost, "/navigate", `{"url":"/login"}`)
	require.Equal(t, fiber.StatusOK, status)
	data = body["data"].(map[string]any)
	assert.Equal(t, "/dashboard", data["url"])
	assert.Equal(t, true, data["redirected"])

	status, body = call(t, api, fiber.MethodPost, "/session/refresh", "")
	require.Equal(t, fiber.StatusOK, status)
	user := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, true, user["is_data_complete"])

	status, body = call(t, api, fiber.MethodPost, "/session/logout", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "/login", body["data"].(map[string]any)["url"])

	status, body = call(t, api, fiber.MethodGet, "/session", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["data"].(map[string]any)["logged_in"])
	assert.Equal(t, "/login", portal.Router.Current())
}

func TestNavigateValidation(t *testing.T) {
	api, _ := newControlAPI(t)

	status, _ := call(t, api, fiber.MethodPost, "/navigate", `{"url":"dashboard"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := call(t, api, fiber.MethodPost, "/navigate", `{"url":"/staff/classes"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "/login?returnUrl=%2Fstaff%2Fclasses", body["data"].(map[string]any)["url"])

	status, body = call(t, api, fiber.MethodGet, "/navigate", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "/login?returnUrl=%2Fstaff%2Fclasses", body["data"].(map[string]any)["url"])
}

func TestNotificationsRequireSession(t *testing.T) {
	api, _ := newControlAPI(t)

	status, body := call(t, api, fiber.MethodGet, "/notifications", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["error"].(map[string]any)["code"])

	status, _ = call(t, api, fiber.MethodPost, "/session/refresh", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestNotificationsMarkRead(t *testing.T) {
	api, _ := newControlAPI(t)
	login(t, api)

	status, body := call(t, api, fiber.MethodGet, "/notifications?refresh=true", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, "uninitialized", body["state"])

	status, body = call(t, api, fiber.MethodGet, "/notifications/unread-count", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, body = call(t, api, fiber.MethodPost, "/notifications/a/read", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 0, body["unread_count"])
	first := body["data"].([]any)[0].(map[string]any)
	assert.NotNil(t, first["read_at"])
}

func TestDeleteWaitsForConfirmation(t *testing.T) {
	api, portal := newControlAPI(t)
	login(t, api)

	type result struct {
		status int
		body   map[string]any
	}
	done := make(chan result, 1)
	go func() {
		req := httptest.NewRequest(fiber.MethodDelete, "/notifications/a", nil)
		resp, err := api.Test(req, -1)
		if err != nil {
			done <- result{}
			return
		}
		defer resp.Body.Close()
		out := map[string]any{}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		done <- result{status: resp.StatusCode, body: out}
	}()

	require.Eventually(t, func() bool { return len(portal.Modal.Pending()) == 1 }, 2*time.Second, 10*time.Millisecond)

	status, body := call(t, api, fiber.MethodGet, "/feedback/modal", "")
	require.Equal(t, fiber.StatusOK, status)
	pending := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "warning", pending["tone"])

	status, _ = call(t, api, fiber.MethodPost, "/feedback/modal/"+pending["id"].(string), `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = call(t, api, fiber.MethodPost, "/feedback/modal/"+pending["id"].(string), `{"accepted":true}`)
	assert.Equal(t, fiber.StatusNoContent, status)

	select {
	case res := <-done:
		assert.Equal(t, fiber.StatusOK, res.status)
		assert.Equal(t, true, res.body["deleted"])
	case <-time.After(2 * time.Second):
		t.Fatal("delete did not finish after confirmation")
	}
	assert.Empty(t, portal.Notifications.Notifications())
}

func TestBackendErrorsSurfaceAsToasts(t *testing.T) {
	api, _ := newControlAPI(t)

	status, body := call(t, api, fiber.MethodPost, "/session/login", `{"email":"amani@academy.test","password":"wrong"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	apiErr := body["error"].(map[string]any)
	assert.Equal(t, "The provided credentials are incorrect.", apiErr["message"])
	assert.Contains(t, apiErr["details"], "email")

	status, body = call(t, api, fiber.MethodGet, "/feedback/toasts", "")
	require.Equal(t, fiber.StatusOK, status)
	toasts := body["data"].([]any)
	require.Len(t, toasts, 1)
	toast := toasts[0].(map[string]any)
	assert.Equal(t, "error", toast["tone"])

	status, _ = call(t, api, fiber.MethodDelete, "/feedback/toasts/"+toast["id"].(string), "")
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = call(t, api, fiber.MethodDelete, "/feedback/toasts/"+toast["id"].(string), "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = call(t, api, fiber.MethodPost, "/feedback/modal/unknown", `{"accepted":false}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = call(t, api, fiber.MethodGet, "/feedback/loader", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["active"])
}

func TestHealthAndMetrics(t *testing.T) {
	api, _ := newControlAPI(t)
	login(t, api)

	status, body := call(t, api, fiber.MethodGet, "/health/live", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = call(t, api, fiber.MethodGet, "/health/ready", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, map[string]any{"postgres": "disabled", "redis": "disabled"}, body["dependencies"])

	status, body = call(t, api, fiber.MethodGet, "/metrics", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["requests"].(map[string]any)["backend:/auth/login|POST|200"])

	status, body = call(t, api, fiber.MethodGet, "/no-such-route", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}

func TestAccountEndpoints(t *testing.T) {
	api, _ := newControlAPI(t)

	status, body := call(t, api, fiber.MethodPost, "/account/send-reset-code", `{"email":"amani@academy.test"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Reset code sent.", body["message"])

	status, body = call(t, api, fiber.MethodPost, "/account/reset-password", `{"email":"amani@academy.test","code":"1234","password":"longenough","password_confirmation":"different"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, map[string]any{"PasswordConfirmation": "eqfield"}, body["error"].(map[string]any)["details"])

	status, body = call(t, api, fiber.MethodPost, "/session/register", `{"username":"zawadi","email":"zawadi@academy.test","password":"longenough","password_confirmation":"longenough","role":"center_admin"}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, false, body["data"].(map[string]any)["logged_in"])

	status, _ = call(t, api, fiber.MethodPost, "/session/register", `{"username":"zawadi","email":"zawadi@academy.test","password":"longenough","password_confirmation":"longenough","role":"admin"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
