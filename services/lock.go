package services

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/vyldo/vyldo_backend/models"
)

// Locker grants short-lived exclusive locks on withdrawal ids. The lock is a
// UX convenience to keep two staff from opening the same request; the status
// CAS in the repository is the actual correctness mechanism. Locks expire on
// their own so a crashed client never wedges a withdrawal.
type Locker interface {
	// TryLock acquires the lock for holder, returning an opaque token. A
	// holder re-acquiring its own lock refreshes the TTL.
	TryLock(ctx context.Context, key, holder string, ttl time.Duration) (string, error)
	// Unlock releases the lock if the token still owns it.
	Unlock(ctx context.Context, key, token string) error
	// Holder reports who currently holds the lock ("" when unlocked).
	Holder(ctx context.Context, key string) (string, error)
}

// RedisLocker implements Locker with SET NX PX.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) TryLock(ctx context.Context, key, holder string, ttl time.Duration) (string, error) {
	token := holder + ":" + uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return token, nil
	}

	current, err := l.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return "", err
	}
	if holderOf(current) == holder {
		// Same staff member re-opening: refresh.
		if err := l.client.Set(ctx, key, token, ttl).Err(); err != nil {
			return "", err
		}
		return token, nil
	}
	return "", models.ErrLockConflict
}

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	current, err := l.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if current != token {
		return models.ErrLockConflict
	}
	return l.client.Del(ctx, key).Err()
}

func (l *RedisLocker) Holder(ctx context.Context, key string) (string, error) {
	current, err := l.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return holderOf(current), nil
}

// MemoryLocker is the single-process fallback used when Redis is not
// reachable at startup.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]memoryLock
}

type memoryLock struct {
	token   string
	expires time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]memoryLock)}
}

func (l *MemoryLocker) TryLock(ctx context.Context, key, holder string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, ok := l.locks[key]
	if ok && time.Now().Before(existing.expires) && holderOf(existing.token) != holder {
		return "", models.ErrLockConflict
	}

	token := holder + ":" + uuid.NewString()
	l.locks[key] = memoryLock{token: token, expires: time.Now().Add(ttl)}
	return token, nil
}

func (l *MemoryLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, ok := l.locks[key]
	if !ok || time.Now().After(existing.expires) {
		return nil
	}
	if existing.token != token {
		return models.ErrLockConflict
	}
	delete(l.locks, key)
	return nil
}

func (l *MemoryLocker) Holder(ctx context.Context, key string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, ok := l.locks[key]
	if !ok || time.Now().After(existing.expires) {
		return "", nil
	}
	return holderOf(existing.token), nil
}

// holderOf extracts the holder part of a "holder:uuid" token.
func holderOf(token string) string {
	for i := len(token) - 1; i >= 0; i-- {
		if token[i] == ':' {
			return token[:i]
		}
	}
	return token
}
