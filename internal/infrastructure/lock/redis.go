// Package lock provides the Redis-backed implementation of core/lock.Locker
// for deployments running several API instances against one database.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"erpledger/internal/core/apperror"
	corelock "erpledger/internal/core/lock"
	"erpledger/pkg/logger"
)

const (
	// KeyPrefix namespaces lock keys in a shared Redis.
	KeyPrefix = "erpledger:lock:"

	defaultTTL     = 30 * time.Second
	defaultBackoff = 50 * time.Millisecond
	releaseTimeout = 5 * time.Second
)

// Compile-time check.
var _ corelock.Locker = (*RedisLocker)(nil)

// Config configures the Redis locker.
type Config struct {
	Addr     string
	Password string
	DB       int

	// TTL bounds how long a crashed holder can block a key
	TTL time.Duration
	// Backoff between attempts while the key is held elsewhere
	Backoff time.Duration
}

// RedisLocker serializes keys across processes with bsm/redislock.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

// NewRedisClient opens and pings a go-redis client.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// NewRedisLocker creates a locker on top of an existing client.
func NewRedisLocker(rdb redislock.RedisClient, cfg Config) *RedisLocker {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		retry:  redislock.LinearBackoff(backoff),
	}
}

// RedisKey maps a ledger lock key to its Redis key.
func RedisKey(key string) string {
	return KeyPrefix + key
}

// Lock implements corelock.Locker. It retries until ctx is done; without
// a ctx deadline redislock caps the wait at the TTL.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lk, err := l.client.Obtain(ctx, RedisKey(key), l.ttl, &redislock.Options{
		RetryStrategy: l.retry,
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, apperror.NewConflict("Resource is busy. Please retry.").WithDetail("lock", key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func() {
		// ctx may already be cancelled when the caller unwinds
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := lk.Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn(ctx, "release lock failed", "lock", key, "error", err)
		}
	}, nil
}
