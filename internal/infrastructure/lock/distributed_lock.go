package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ============================================================================
// Redis distributed lock
// ============================================================================
//
// Acquire: SET key value NX EX ttl
//   - NX: only one holder at a time
//   - EX: a crashed holder cannot keep the lock forever
//   - value: random owner token, checked on release
//
// Release: Lua compare-and-delete, so a holder whose lock already expired
// cannot delete the lock of the next holder.
//
// The database row locks are what keep the ledger correct; this lock only
// keeps concurrent writers for the same user or request off the database.
// ============================================================================

var (
	ErrLockFailed = errors.New("acquire distributed lock failed")
)

const unlockScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// DistributedLock is one lock key with an owner token.
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock makes a single non-blocking attempt.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
}

// Lock retries TryLock until it succeeds, maxRetries is exhausted or ctx ends.
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock releases the lock if this holder still owns it.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	return l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Err()
}

// ============================================================================
// Locker: what the ledger service depends on
// ============================================================================

// Unlocker releases an acquired lock.
type Unlocker interface {
	Unlock(ctx context.Context) error
}

// Locker hands out locks by key.
type Locker interface {
	Acquire(ctx context.Context, key string) (Unlocker, error)
}

// RedisLocker builds DistributedLocks with a fresh owner token per acquisition.
type RedisLocker struct {
	client        *redis.Client
	ttl           time.Duration
	retryInterval time.Duration
	maxRetries    int
}

func NewRedisLocker(client *redis.Client, ttl, retryInterval time.Duration, maxRetries int) *RedisLocker {
	return &RedisLocker{
		client:        client,
		ttl:           ttl,
		retryInterval: retryInterval,
		maxRetries:    maxRetries,
	}
}

func (r *RedisLocker) Acquire(ctx context.Context, key string) (Unlocker, error) {
	l := NewDistributedLock(r.client, key, uuid.NewString(), r.ttl)
	if err := l.Lock(ctx, r.retryInterval, r.maxRetries); err != nil {
		return nil, err
	}
	return l, nil
}

type noopUnlocker struct{}

func (noopUnlocker) Unlock(context.Context) error { return nil }

// NoopLocker is used when Redis is not configured.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string) (Unlocker, error) {
	return noopUnlocker{}, nil
}

// New returns a RedisLocker, or a NoopLocker for a nil client.
func New(client *redis.Client, ttl, retryInterval time.Duration, maxRetries int) Locker {
	if client == nil {
		return NoopLocker{}
	}
	return NewRedisLocker(client, ttl, retryInterval, maxRetries)
}

// UserKey serializes balance writes of one user.
func UserKey(userID int64) string {
	return fmt.Sprintf("ledger:lock:user:%d", userID)
}

// RequestKey serializes approval actions on one request.
func RequestKey(kind string, requestID int64) string {
	return fmt.Sprintf("ledger:lock:%s:%d", kind, requestID)
}
