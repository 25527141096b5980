package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another owner holds the lock
var ErrLockHeld = errors.New("lock held by another owner")

// Locker provides cross-process exclusive locks (SET NX PX)
// ⭐ SSOT: 종목별 쓰기 락은 여기서만
type Locker struct {
	client *Client
	prefix string
}

// Lock is a held lock; Release it when done
type Lock struct {
	locker *Locker
	key    string
	token  string
}

// NewLocker creates a new locker
func NewLocker(client *Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
	}
}

// releaseScript deletes the key only if it still carries our token
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// TryLock acquires name for ttl or returns ErrLockHeld
func (l *Locker) TryLock(ctx context.Context, name string, ttl time.Duration) (*Lock, error) {
	lock := &Lock{
		locker: l,
		key:    fmt.Sprintf("%s:lock:%s", l.prefix, name),
		token:  uuid.NewString(),
	}
	if !l.client.Enabled() {
		// Redis 비활성: 프로세스 내 락에만 의존
		return lock, nil
	}

	ok, err := l.client.Redis().SetNX(ctx, lock.key, lock.token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return lock, nil
}

// Lock blocks until name is acquired or ctx is cancelled
func (l *Locker) Lock(ctx context.Context, name string, ttl time.Duration) (*Lock, error) {
	for {
		lock, err := l.TryLock(ctx, name, ttl)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrLockHeld) {
			return nil, err
		}

		// Wait before retrying
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
			// Retry
		}
	}
}

// Release frees the lock if it is still ours
func (lk *Lock) Release(ctx context.Context) error {
	if !lk.locker.client.Enabled() {
		return nil
	}
	if err := releaseScript.Run(ctx, lk.locker.client.Redis(), []string{lk.key}, lk.token).Err(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
