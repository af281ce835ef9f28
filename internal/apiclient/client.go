// Package apiclient talks to the academy backend REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/academy-portal/internal/observability"
	apperrors "github.com/spec-kit/academy-portal/pkg/util"
)

const (
	headerRequestID   = "X-Request-Id"
	defaultTimeout    = 15 * time.Second
	maxResponseLength = 4 << 20
)

// TokenSource provides the bearer token for outgoing requests.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Tracker is notified for the lifetime of every backend call.
type Tracker interface {
	Begin() func()
}

// Hooks are the response interceptors.
type Hooks struct {
	// OnUnauthorized fires for 401 responses to requests that carried a bearer token.
	OnUnauthorized func(ctx context.Context, err *apperrors.DomainError)
	// OnError fires for every other backend failure.
	OnError func(ctx context.Context, err *apperrors.DomainError)
	Tracker Tracker
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Tokens     TokenSource
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Client is a JSON client for the backend. Identical GET requests in flight
// share one network call.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	metrics *observability.Metrics
	logger  *zap.Logger

	inflight singleflight.Group

	mu    sync.RWMutex
	hooks Hooks
}

// New builds a client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		tokens:  opts.Tokens,
		metrics: opts.Metrics,
		logger:  logger,
	}
}

// SetHooks installs the interceptors. Hooks are usually wired after the
// components they call into have been built.
func (c *Client) SetHooks(h Hooks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = h
}

func (c *Client) currentHooks() Hooks {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hooks
}

// Get fetches path and decodes the JSON body into out. Concurrent calls for
// the same path and query are collapsed into one request; every caller
// decodes the same body. A caller whose ctx ends stops waiting while the
// shared request carries on for the others.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	key := path
	if encoded := query.Encode(); encoded != "" {
		key += "?" + encoded
	}

	// The shared call must not die with the first caller's context.
	shared := context.WithoutCancel(ctx)
	results := c.inflight.DoChan(key, func() (interface{}, error) {
		return c.do(shared, http.MethodGet, key, nil, "")
	})
	select {
	case res := <-results:
		if res.Err != nil {
			return res.Err
		}
		return decode(res.Val.([]byte), out)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post sends body as JSON.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = raw
	}
	raw, err := c.do(ctx, http.MethodPost, path, payload, "application/json")
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// PostForm sends form url-encoded. path may be an absolute URL.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	raw, err := c.do(ctx, http.MethodPost, path, []byte(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	raw, err := c.do(ctx, http.MethodDelete, path, nil, "")
	if err != nil {
		return err
	}
	return decode(raw, out)
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	hooks := c.currentHooks()
	if hooks.Tracker != nil {
		done := hooks.Tracker.Begin()
		defer done()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	bearer := false
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			bearer = true
		}
	}

	metricPath := "backend:" + stripQuery(path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordRequest(metricPath, method, 0, time.Since(start))
		c.metrics.RecordError(metricPath, method, "BACKEND_UNREACHABLE")
		c.logger.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		de := apperrors.ToDomainError(apperrors.NewTransportError(err))
		if hooks.OnError != nil {
			hooks.OnError(ctx, de)
		}
		return nil, de
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLength))
	c.metrics.RecordRequest(metricPath, method, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, apperrors.NewTransportError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}

	de := apperrors.FromResponse(resp.StatusCode, raw)
	c.metrics.RecordError(metricPath, method, de.Code)
	c.logger.Debug("backend responded with error",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("message", de.Message),
	)
	switch {
	case resp.StatusCode == http.StatusUnauthorized && bearer:
		if hooks.OnUnauthorized != nil {
			hooks.OnUnauthorized(ctx, de)
		}
	case hooks.OnError != nil:
		hooks.OnError(ctx, de)
	}
	return nil, de
}

func decode(raw []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func stripQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// StaticToken is a TokenSource that always returns the same bearer.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) string {
	return string(s)
}
