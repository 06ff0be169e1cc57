package lock

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/paysms/internal/apperrors"
	"github.com/nkiryanov/paysms/internal/logger"
	"github.com/nkiryanov/paysms/internal/testutil"
)

func TestRedis(t *testing.T) {
	t.Parallel()

	rc := testutil.StartRedisContainer(t)
	t.Cleanup(rc.Terminate)

	rdb := redis.NewClient(&redis.Options{Addr: rc.Addr})
	t.Cleanup(func() { _ = rdb.Close() })

	t.Run("serializes same key", func(t *testing.T) {
		l := NewRedis(rdb, logger.NewNoOpLogger(), WithPollInterval(5*time.Millisecond))
		require.NoError(t, l.Preload(t.Context()))

		assertSerialized(t, l)
	})

	t.Run("times out while held", func(t *testing.T) {
		l := NewRedis(rdb, logger.NewNoOpLogger(), WithMaxWait(50*time.Millisecond), WithPollInterval(10*time.Millisecond))

		unlock, err := l.Lock(t.Context(), "held")
		require.NoError(t, err)
		defer unlock()

		_, err = l.Lock(t.Context(), "held")
		require.ErrorIs(t, err, apperrors.ErrLockTimeout)
	})

	t.Run("expires by ttl", func(t *testing.T) {
		l := NewRedis(rdb, logger.NewNoOpLogger(), WithTTL(100*time.Millisecond), WithPollInterval(10*time.Millisecond))

		_, err := l.Lock(t.Context(), "abandoned")
		require.NoError(t, err)

		unlock, err := l.Lock(t.Context(), "abandoned")
		require.NoError(t, err, "abandoned lock must be taken over after ttl")
		unlock()
	})

	t.Run("release does not drop a foreign lock", func(t *testing.T) {
		l := NewRedis(rdb, logger.NewNoOpLogger(), WithTTL(50*time.Millisecond), WithMaxWait(20*time.Millisecond), WithPollInterval(5*time.Millisecond))

		staleUnlock, err := l.Lock(t.Context(), "foreign")
		require.NoError(t, err)
		time.Sleep(100 * time.Millisecond)

		l2 := NewRedis(rdb, logger.NewNoOpLogger(), WithMaxWait(20*time.Millisecond), WithPollInterval(5*time.Millisecond))
		unlock, err := l2.Lock(t.Context(), "foreign")
		require.NoError(t, err)
		defer unlock()

		staleUnlock()

		_, err = l2.Lock(t.Context(), "foreign")
		require.ErrorIs(t, err, apperrors.ErrLockTimeout, "stale holder must not release the new owner lock")
	})
}
