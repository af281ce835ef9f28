package tokenstore

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/academy-portal/internal/repository"
)

// Tier is one key-value storage slot of the token store.
type Tier interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// MemoryTier keeps values for the lifetime of the process. It backs the
// transient tier.
type MemoryTier struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryTier returns an empty in-process tier.
func NewMemoryTier() *MemoryTier {
	return &MemoryTier{values: make(map[string]string)}
}

func (m *MemoryTier) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryTier) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryTier) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// RedisTier stores values in Redis so they survive restarts.
type RedisTier struct {
	client *redis.Client
	prefix string
}

// NewRedisTier namespaces every key with prefix.
func NewRedisTier(client *redis.Client, prefix string) *RedisTier {
	return &RedisTier{client: client, prefix: prefix}
}

func (r *RedisTier) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *RedisTier) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisTier) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *RedisTier) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// PostgresTier stores values in the client_storage table.
type PostgresTier struct {
	repo      repository.StorageRepository
	namespace string
}

// NewPostgresTier scopes all keys to namespace.
func NewPostgresTier(repo repository.StorageRepository, namespace string) *PostgresTier {
	return &PostgresTier{repo: repo, namespace: namespace}
}

func (p *PostgresTier) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := p.repo.Get(ctx, p.namespace, key)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (p *PostgresTier) Set(ctx context.Context, key, value string) error {
	return p.repo.Put(ctx, p.namespace, key, value)
}

func (p *PostgresTier) Remove(ctx context.Context, key string) error {
	return p.repo.Delete(ctx, p.namespace, key)
}
