package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := NewClient(ctx, Config{Host: host, Port: port.Int()}, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLocker_Integration(t *testing.T) {
	client := startRedis(t)
	locker := NewLocker(client, "test:")
	ctx := context.Background()

	t.Run("second acquire fails while held", func(t *testing.T) {
		lock, err := locker.Acquire(ctx, "automatch:e1", time.Minute)
		require.NoError(t, err)

		_, err = locker.Acquire(ctx, "automatch:e1", time.Minute)
		assert.ErrorIs(t, err, ErrLockNotAcquired)

		require.NoError(t, lock.Release(ctx))
		assert.ErrorIs(t, lock.Release(ctx), ErrLockNotHeld)
	})

	t.Run("with lock releases after fn", func(t *testing.T) {
		ran := false
		err := locker.WithLock(ctx, "automatch:e2", time.Minute, func(ctx context.Context) error {
			ran = true
			err := locker.WithLock(ctx, "automatch:e2", time.Minute, func(context.Context) error { return nil })
			assert.ErrorIs(t, err, ErrLockNotAcquired)
			return errors.New("inner failure")
		})
		assert.True(t, ran)
		assert.EqualError(t, err, "inner failure")

		lock, err := locker.Acquire(ctx, "automatch:e2", time.Minute)
		require.NoError(t, err)
		require.NoError(t, lock.Release(ctx))
	})
}
