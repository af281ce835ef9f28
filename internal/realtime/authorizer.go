package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/spec-kit/academy-portal/internal/apiclient"
	apperrors "github.com/spec-kit/academy-portal/pkg/util"
)

// AuthResult is the signature the backend grants for a private channel.
type AuthResult struct {
	Auth        string `json:"auth"`
	ChannelData string `json:"channel_data,omitempty"`
}

// Authorizer performs the private channel handshake against the backend.
type Authorizer struct {
	api      *apiclient.Client
	endpoint string
	logger   *zap.Logger
}

// NewAuthorizer builds an authorizer posting to endpoint through api.
func NewAuthorizer(api *apiclient.Client, endpoint string, logger *zap.Logger) *Authorizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authorizer{api: api, endpoint: endpoint, logger: logger}
}

// Authorize asks the backend to sign socketID's subscription to channel. A
// non-2xx answer or a body without an auth field is an error.
func (a *Authorizer) Authorize(ctx context.Context, socketID, channel string) (AuthResult, error) {
	form := url.Values{
		"socket_id":    {socketID},
		"channel_name": {channel},
	}
	var raw json.RawMessage
	if err := a.api.PostForm(ctx, a.endpoint, form, &raw); err != nil {
		de := apperrors.ToDomainError(err)
		a.logger.Warn("channel authorization failed",
			zap.String("channel", channel),
			zap.Int("status", de.HTTPStatus),
			zap.ByteString("body", de.Body),
			zap.Error(err),
		)
		return AuthResult{}, fmt.Errorf("authorize %s: %w", channel, err)
	}

	var result AuthResult
	if err := json.Unmarshal(raw, &result); err != nil || result.Auth == "" {
		a.logger.Warn("channel authorization returned no signature",
			zap.String("channel", channel),
			zap.Int("status", http.StatusOK),
			zap.ByteString("body", raw),
		)
		de := apperrors.NewDomainError("CHANNEL_AUTH_MISSING", "broadcast auth response has no auth field", http.StatusBadGateway, nil)
		de.Body = raw
		return AuthResult{}, fmt.Errorf("authorize %s: %w", channel, de)
	}
	return result, nil
}
