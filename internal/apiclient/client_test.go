package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/academy-portal/internal/observability"
	apperrors "github.com/spec-kit/academy-portal/pkg/util"
)

type countingTracker struct {
	begun atomic.Int32
	ended atomic.Int32
}

func (t *countingTracker) Begin() func() {
	t.begun.Add(1)
	return func() { t.ended.Add(1) }
}

type profile struct {
	Data struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

func TestConcurrentGetSharesOneCall(t *testing.T) {
	var hits atomic.Int32
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		entered <- struct{}{}
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":7,"username":"amina"}}`))
	}))
	defer srv.Close()

	client := New(Options{BaseURL: srv.URL, Tokens: StaticToken("tok")})

	var wg sync.WaitGroup
	results := make([]profile, 2)
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = client.Get(context.Background(), "/me", nil, &results[0])
	}()
	<-entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[1] = client.Get(context.Background(), "/me", nil, &results[1])
	}()
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, "amina", results[0].Data.Username)

	// The entry is gone once settled; a later call reaches the network again.
	go func() { <-entered }()
	require.NoError(t, client.Get(context.Background(), "/me", nil, &results[0]))
	assert.Equal(t, int32(2), hits.Load())
}

func TestGetReturnsWhenCallerContextEnds(t *testing.T) {
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":7,"username":"amina"}}`))
	}))
	defer srv.Close()
	defer close(release)

	client := New(Options{BaseURL: srv.URL})

	patient := make(chan error, 1)
	var shared profile
	go func() {
		patient <- client.Get(context.Background(), "/me", nil, &shared)
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	var p profile
	err := client.Get(ctx, "/me", nil, &p)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	release <- struct{}{}
	require.NoError(t, <-patient)
	assert.Equal(t, "amina", shared.Data.Username)
}

func TestUnauthorizedHookRequiresBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
	}))
	defer srv.Close()

	var unauthorized, generic int
	hooks := Hooks{
		OnUnauthorized: func(context.Context, *apperrors.DomainError) { unauthorized++ },
		OnError:        func(context.Context, *apperrors.DomainError) { generic++ },
	}

	withToken := New(Options{BaseURL: srv.URL, Tokens: StaticToken("tok")})
	withToken.SetHooks(hooks)
	err := withToken.Get(context.Background(), "/me", nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, 1, unauthorized)
	assert.Equal(t, 0, generic)

	anonymous := New(Options{BaseURL: srv.URL, Tokens: StaticToken("")})
	anonymous.SetHooks(hooks)
	err = anonymous.Post(context.Background(), "/auth/login", map[string]string{"email": "x"}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, unauthorized)
	assert.Equal(t, 1, generic)
}

func TestForbiddenOnlyPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"This action is unauthorized."}`))
	}))
	defer srv.Close()

	fired := false
	client := New(Options{BaseURL: srv.URL, Tokens: StaticToken("tok")})
	client.SetHooks(Hooks{OnUnauthorized: func(context.Context, *apperrors.DomainError) { fired = true }})

	err := client.Delete(context.Background(), "/notifications/1", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
	assert.False(t, fired)
}

func TestErrorPayloadPassesThrough(t *testing.T) {
	body := `{"message":"The given data was invalid.","errors":{"email":["The email has already been taken."]}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	metrics := observability.NewMetrics()
	client := New(Options{BaseURL: srv.URL, Metrics: metrics})
	err := client.Post(context.Background(), "/auth/register", map[string]string{}, nil)

	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, http.StatusUnprocessableEntity, de.HTTPStatus)
	assert.Equal(t, "The given data was invalid.", de.Message)
	assert.Contains(t, de.Details, "email")
	assert.JSONEq(t, body, string(de.Body))

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Requests["backend:/auth/register|POST|422"])
	assert.Equal(t, int64(1), snap.Errors["backend:/auth/register|POST|VALIDATION_FAILED"])
}

func TestRequestHeadersAndTracker(t *testing.T) {
	var auth, requestID, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		requestID = r.Header.Get(headerRequestID)
		contentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"auth":"key:sig"}`))
	}))
	defer srv.Close()

	tracker := &countingTracker{}
	client := New(Options{BaseURL: "http://unused.invalid", Tokens: StaticToken("tok")})
	client.SetHooks(Hooks{Tracker: tracker})

	var out struct {
		Auth string `json:"auth"`
	}
	err := client.PostForm(context.Background(), srv.URL+"/broadcasting/auth", map[string][]string{"socket_id": {"1.2"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "key:sig", out.Auth)
	assert.Equal(t, "Bearer tok", auth)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, "application/x-www-form-urlencoded", contentType)
	assert.Equal(t, int32(1), tracker.begun.Load())
	assert.Equal(t, int32(1), tracker.ended.Load())
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var seen *apperrors.DomainError
	client := New(Options{BaseURL: url, Timeout: time.Second})
	client.SetHooks(Hooks{OnError: func(_ context.Context, err *apperrors.DomainError) { seen = err }})

	err := client.Get(context.Background(), "/notifications/latest", nil, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperrors.StatusOf(err))
	require.NotNil(t, seen)
	assert.Equal(t, "BACKEND_UNREACHABLE", seen.Code)
}
