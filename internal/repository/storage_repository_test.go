package repository

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/academy-portal/internal/persistence"
)

func TestStorageRepository(t *testing.T) {
	dsn := os.Getenv("PORTAL_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PORTAL_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	require.NoError(t, persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()))

	repo := NewStorageRepository(pool)
	const ns = "portal-test"
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM client_storage WHERE namespace=$1`, ns)
	})

	_, err = repo.Get(ctx, ns, "auth-token")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, repo.Put(ctx, ns, "auth-token", "one"))
	require.NoError(t, repo.Put(ctx, ns, "auth-token", "two"))
	v, err := repo.Get(ctx, ns, "auth-token")
	require.NoError(t, err)
	assert.Equal(t, "two", v)

	_, err = repo.Get(ctx, "other-namespace", "auth-token")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, repo.Delete(ctx, ns, "auth-token"))
	require.NoError(t, repo.Delete(ctx, ns, "auth-token"))
	_, err = repo.Get(ctx, ns, "auth-token")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
