// Package lock provides a Redis-backed run lock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotAcquired is returned when another holder owns the lock.
	ErrNotAcquired = errors.New("lock not acquired")

	// ErrNotHeld is returned when releasing a lock that expired or changed hands.
	ErrNotHeld = errors.New("lock not held")
)

const defaultKeyPrefix = "spotify-etl:lock:"

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Locker acquires named locks.
type Locker struct {
	rdb       *redis.Client
	keyPrefix string
}

// Lock is a held lock.
type Lock struct {
	rdb   *redis.Client
	key   string
	value string
}

// New connects to Redis and returns a Locker.
func New(ctx context.Context, cfg Config) (*Locker, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &Locker{rdb: rdb, keyPrefix: defaultKeyPrefix}, nil
}

// Acquire takes the lock named key for at most ttl.
// Returns ErrNotAcquired if it is already held.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	lockKey := l.keyPrefix + key
	value := uuid.New().String()

	ok, err := l.rdb.SetNX(ctx, lockKey, value, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return &Lock{rdb: l.rdb, key: lockKey, value: value}, nil
}

// Release frees the lock if this holder still owns it.
func (lock *Lock) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, lock.rdb, []string{lock.key}, lock.value).Int64()
	if err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

// WithLock runs fn while holding the lock named key.
func (l *Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	lock, err := l.Acquire(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer lock.Release(context.WithoutCancel(ctx))

	return fn(ctx)
}

// Close closes the Redis connection.
func (l *Locker) Close() error {
	return l.rdb.Close()
}
