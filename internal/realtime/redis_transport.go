package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/academy-portal/internal/apiclient"
	"github.com/spec-kit/academy-portal/internal/observability"
)

// ErrTransportClosed is returned when subscribing on a closed transport.
var ErrTransportClosed = errors.New("transport closed")

// RedisConnectorConfig configures the Redis pub/sub connector.
type RedisConnectorConfig struct {
	Client       *redis.Client
	AuthEndpoint string
	// Prefix is prepended to channel names, matching the backend's Redis prefix.
	Prefix  string
	Timeout time.Duration
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// RedisConnector subscribes to channels the backend publishes through its
// Redis broadcaster.
type RedisConnector struct {
	cfg RedisConnectorConfig
}

// NewRedisConnector builds a connector.
func NewRedisConnector(cfg RedisConnectorConfig) *RedisConnector {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &RedisConnector{cfg: cfg}
}

// Connect opens a transport whose channel handshakes carry token.
func (c *RedisConnector) Connect(ctx context.Context, token string) (Transport, error) {
	if c.cfg.Client == nil {
		return nil, errors.New("redis broadcast transport is not configured")
	}
	if err := c.cfg.Client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect broadcast redis: %w", err)
	}
	api := apiclient.New(apiclient.Options{
		Timeout: c.cfg.Timeout,
		Tokens:  apiclient.StaticToken(token),
		Metrics: c.cfg.Metrics,
		Logger:  c.cfg.Logger,
	})
	return &RedisTransport{
		client:     c.cfg.Client,
		authorizer: NewAuthorizer(api, c.cfg.AuthEndpoint, c.cfg.Logger),
		prefix:     c.cfg.Prefix,
		socketID:   uuid.NewString(),
		logger:     c.cfg.Logger,
	}, nil
}

// RedisTransport is one authorized connection.
type RedisTransport struct {
	client     *redis.Client
	authorizer *Authorizer
	prefix     string
	socketID   string
	logger     *zap.Logger

	mu       sync.Mutex
	channels []*redisChannel
	closed   bool
}

// Private authorizes and subscribes to the private channel name.
func (t *RedisTransport) Private(ctx context.Context, name string) (Channel, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return nil, ErrTransportClosed
	}

	wireName := PrivateName(name)
	if _, err := t.authorizer.Authorize(ctx, t.socketID, wireName); err != nil {
		return nil, err
	}

	pubsub := t.client.Subscribe(ctx, t.prefix+wireName)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", wireName, err)
	}

	ch := newRedisChannel(wireName, t.logger)
	ch.pubsub = pubsub
	go ch.run()

	t.mu.Lock()
	t.channels = append(t.channels, ch)
	t.mu.Unlock()
	return ch, nil
}

// Close leaves every channel.
func (t *RedisTransport) Close() error {
	t.mu.Lock()
	channels := t.channels
	t.channels = nil
	t.closed = true
	t.mu.Unlock()

	var errs []error
	for _, ch := range channels {
		if err := ch.Leave(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type redisChannel struct {
	name   string
	logger *zap.Logger
	pubsub *redis.PubSub

	mu        sync.RWMutex
	listeners map[string][]Handler
	onError   []func(error)
	left      bool
}

func newRedisChannel(name string, logger *zap.Logger) *redisChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisChannel{
		name:      name,
		logger:    logger,
		listeners: make(map[string][]Handler),
	}
}

func (c *redisChannel) Listen(event string, fn Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := EventName(event)
	c.listeners[name] = append(c.listeners[name], fn)
}

func (c *redisChannel) OnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = append(c.onError, fn)
}

func (c *redisChannel) Leave() error {
	c.mu.Lock()
	if c.left {
		c.mu.Unlock()
		return nil
	}
	c.left = true
	c.mu.Unlock()

	if c.pubsub == nil {
		return nil
	}
	// Closing the subscription ends run; Leave may be called from a handler
	// running on that goroutine, so it does not wait for it.
	return c.pubsub.Close()
}

func (c *redisChannel) run() {
	for msg := range c.pubsub.Channel() {
		c.handle(context.Background(), msg.Payload)
	}
}

// broadcastPayload is what the backend's Redis broadcaster publishes.
type broadcastPayload struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
	Socket *string         `json:"socket"`
}

func (c *redisChannel) handle(ctx context.Context, payload string) {
	var msg broadcastPayload
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		c.fail(fmt.Errorf("decode broadcast on %s: %w", c.name, err))
		return
	}
	ev := Event{Channel: c.name, Name: msg.Event, Data: msg.Data}
	if msg.Socket != nil {
		ev.Socket = *msg.Socket
	}

	c.mu.RLock()
	handlers := append([]Handler(nil), c.listeners[msg.Event]...)
	c.mu.RUnlock()
	if len(handlers) == 0 {
		c.logger.Debug("unhandled broadcast", zap.String("channel", c.name), zap.String("event", msg.Event))
		return
	}
	for _, h := range handlers {
		h(ctx, ev)
	}
}

func (c *redisChannel) fail(err error) {
	c.mu.RLock()
	handlers := append([]func(error){}, c.onError...)
	c.mu.RUnlock()
	if len(handlers) == 0 {
		c.logger.Warn("broadcast channel error", zap.String("channel", c.name), zap.Error(err))
		return
	}
	for _, h := range handlers {
		h(err)
	}
}
