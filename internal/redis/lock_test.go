package redisclient

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client, err := NewRedisClient(addr, os.Getenv("REDIS_USERNAME"), os.Getenv("REDIS_PASSWORD"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLocker(client, 2*time.Second, 50*time.Millisecond)
	key := "test:" + t.Name()

	err = l.WithLock(context.Background(), key, func(ctx context.Context) error {
		// a second holder gives up once the wait elapses
		inner := l.WithLock(context.Background(), key, func(ctx context.Context) error { return nil })
		assert.ErrorIs(t, inner, ErrLockNotAcquired)
		return nil
	})
	require.NoError(t, err)

	// released after the first holder returned
	require.NoError(t, l.WithLock(context.Background(), key, func(ctx context.Context) error { return nil }))
}
