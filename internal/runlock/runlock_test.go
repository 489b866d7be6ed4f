package runlock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests; they need a local Redis.
// Run with: REDIS_ADDR=localhost:6379 go test ./internal/runlock/...

func setupTestLock(t *testing.T) (*Lock, context.Context) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping run lock integration test")
	}

	ctx := context.Background()
	lock, err := New(ctx, Config{Addr: addr, TTL: time.Minute})
	require.NoError(t, err, "Failed to connect to test Redis")

	// Start from a clean slate in case a previous test run crashed.
	lock.Release(ctx)
	return lock, ctx
}

func TestLock_AcquireAndRelease(t *testing.T) {
	lock, ctx := setupTestLock(t)
	defer lock.Close()

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "A free lock should be acquirable")

	ok, err = lock.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "A held lock must not be acquirable again")

	lock.Release(ctx)

	ok, err = lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "A released lock should be acquirable again")
	lock.Release(ctx)
}

func TestLock_SecondProcessBlocked(t *testing.T) {
	lock, ctx := setupTestLock(t)
	defer lock.Close()

	other, err := New(ctx, Config{Addr: os.Getenv("REDIS_ADDR"), TTL: time.Minute})
	require.NoError(t, err)
	defer other.Close()

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	defer lock.Release(ctx)

	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "The lock must hold across client instances")
}
