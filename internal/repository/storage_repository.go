package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrKeyNotFound is returned when no value is stored under a key.
var ErrKeyNotFound = errors.New("storage key not found")

// StorageRepository persists client key-value pairs, scoped by namespace.
type StorageRepository interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Put(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
}

type storageRepository struct {
	pool *pgxpool.Pool
}

// NewStorageRepository returns a Postgres-backed implementation.
func NewStorageRepository(pool *pgxpool.Pool) StorageRepository {
	return &storageRepository{pool: pool}
}

func (r *storageRepository) Get(ctx context.Context, namespace, key string) (string, error) {
	const query = `
        SELECT value FROM client_storage
        WHERE namespace=$1 AND key=$2`

	var value string
	if err := r.pool.QueryRow(ctx, query, namespace, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrKeyNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *storageRepository) Put(ctx context.Context, namespace, key, value string) error {
	const query = `
        INSERT INTO client_storage (namespace, key, value)
        VALUES ($1, $2, $3)
        ON CONFLICT (namespace, key)
        DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	_, err := r.pool.Exec(ctx, query, namespace, key, value)
	return err
}

func (r *storageRepository) Delete(ctx context.Context, namespace, key string) error {
	const query = `DELETE FROM client_storage WHERE namespace=$1 AND key=$2`

	_, err := r.pool.Exec(ctx, query, namespace, key)
	return err
}
