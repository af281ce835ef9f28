package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/academy-portal/internal/apiclient"
	apperrors "github.com/spec-kit/academy-portal/pkg/util"
)

func newAuthorizer(t *testing.T, token string, handler http.HandlerFunc) *Authorizer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	api := apiclient.New(apiclient.Options{Tokens: apiclient.StaticToken(token)})
	return NewAuthorizer(api, srv.URL+"/broadcasting/auth", nil)
}

func TestAuthorizeSendsHandshake(t *testing.T) {
	var form map[string]string
	var bearer string
	a := newAuthorizer(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		form = map[string]string{
			"socket_id":    r.PostForm.Get("socket_id"),
			"channel_name": r.PostForm.Get("channel_name"),
		}
		bearer = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"auth":"app-key:signature"}`))
	})

	res, err := a.Authorize(context.Background(), "123.456", "private-user.7")
	require.NoError(t, err)
	assert.Equal(t, "app-key:signature", res.Auth)
	assert.Equal(t, "123.456", form["socket_id"])
	assert.Equal(t, "private-user.7", form["channel_name"])
	assert.Equal(t, "Bearer tok", bearer)
}

func TestAuthorizeWithoutTokenSendsNoBearer(t *testing.T) {
	var bearer string
	a := newAuthorizer(t, "", func(w http.ResponseWriter, r *http.Request) {
		bearer = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"auth":"k:s"}`))
	})
	_, err := a.Authorize(context.Background(), "1.1", "private-user.1")
	require.NoError(t, err)
	assert.Empty(t, bearer)
}

func TestAuthorizeFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   int
	}{
		{name: "forbidden", status: http.StatusForbidden, body: `{"message":"denied"}`, want: http.StatusForbidden},
		{name: "missing auth field", status: http.StatusOK, body: `{"channel_data":"{}"}`, want: http.StatusBadGateway},
		{name: "empty body", status: http.StatusOK, body: ``, want: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAuthorizer(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := a.Authorize(context.Background(), "1.1", "private-user.1")
			require.Error(t, err)
			assert.Equal(t, tt.want, apperrors.StatusOf(err))
		})
	}
}
