package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when a tutor lock could not be acquired within the wait budget.
var ErrLockTimeout = errors.New("timed out waiting for tutor schedule lock")

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

const lockRetryInterval = 25 * time.Millisecond

// RedisTutorLocker serialises check-then-write sequences per tutor across instances.
type RedisTutorLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	prefix string
}

// NewRedisTutorLocker constructs a Redis backed tutor locker.
func NewRedisTutorLocker(client *redis.Client, ttl, wait time.Duration) *RedisTutorLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 3 * time.Second
	}
	return &RedisTutorLocker{client: client, ttl: ttl, wait: wait, prefix: "lock:tutor:"}
}

// Lock blocks until the tutor's lock is held or the wait budget elapses.
func (l *RedisTutorLocker) Lock(ctx context.Context, tutorID string) (func(), error) {
	key := l.prefix + tutorID
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			return func() {
				// Release with a fresh context so a cancelled request still frees the lock.
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseLockScript.Run(releaseCtx, l.client, []string{key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}
