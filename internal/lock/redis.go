package lock

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/paysms/internal/apperrors"
	"github.com/nkiryanov/paysms/internal/logger"
)

//go:embed lua/acquire.lua
var luaAcquire string

//go:embed lua/release.lua
var luaRelease string

const (
	defaultTTL          = 30 * time.Second
	defaultPollInterval = 50 * time.Millisecond
	defaultMaxWait      = 10 * time.Second
	releaseTimeout      = 3 * time.Second
)

type RedisOption func(*Redis)

// Lease of the lock, released automatically if the holder dies
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

func WithPollInterval(d time.Duration) RedisOption {
	return func(r *Redis) { r.pollInterval = d }
}

// Give up with apperrors.ErrLockTimeout after d
func WithMaxWait(d time.Duration) RedisOption {
	return func(r *Redis) { r.maxWait = d }
}

// Redis is a Locker shared by every service instance using the same redis
type Redis struct {
	rdb    redis.UniversalClient
	logger logger.Logger
	prefix string

	ttl          time.Duration
	pollInterval time.Duration
	maxWait      time.Duration

	scrAcquire *redis.Script
	scrRelease *redis.Script
}

func NewRedis(rdb redis.UniversalClient, l logger.Logger, opts ...RedisOption) *Redis {
	r := &Redis{
		rdb:          rdb,
		logger:       l,
		prefix:       "paysms:lock:",
		ttl:          defaultTTL,
		pollInterval: defaultPollInterval,
		maxWait:      defaultMaxWait,
		scrAcquire:   redis.NewScript(luaAcquire),
		scrRelease:   redis.NewScript(luaRelease),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Preload loads the scripts so the first Lock does not pay for it
func (r *Redis) Preload(ctx context.Context) error {
	if err := r.scrAcquire.Load(ctx, r.rdb).Err(); err != nil {
		return fmt.Errorf("load acquire script: %w", err)
	}
	if err := r.scrRelease.Load(ctx, r.rdb).Err(); err != nil {
		return fmt.Errorf("load release script: %w", err)
	}
	return nil
}

func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := r.prefix + "{" + key + "}"
	token := uuid.NewString()
	deadline := time.Now().Add(r.maxWait)

	for {
		ok, err := r.tryAcquire(ctx, redisKey, token)
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("acquire lock %s: %w", key, apperrors.ErrLockTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.pollInterval):
		}
	}

	return func() {
		// Release even if the caller context is done already
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()

		if err := r.scrRelease.Run(ctx, r.rdb, []string{redisKey}, token).Err(); err != nil {
			r.logger.Warn("failed to release lock, it expires by ttl", "key", key, "error", err)
		}
	}, nil
}

func (r *Redis) tryAcquire(ctx context.Context, key string, token string) (bool, error) {
	res, err := r.scrAcquire.Run(ctx, r.rdb, []string{key}, token, r.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
