package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-promo/internal/resilience"
)

// ErrNotAcquired is returned when the lock is still held by someone else
// once Wait has elapsed or the context is done.
var ErrNotAcquired = errors.New("lock: not acquired")

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`)

// Locker provides a Redis-backed mutual exclusion lock.
type Locker struct {
	Client redis.UniversalClient
	Prefix string
	// Wait bounds how long WithLock polls for a busy lock. Zero means 2s.
	Wait time.Duration
	// RetryBackoff is the first poll interval; later polls back off exponentially.
	RetryBackoff time.Duration
}

// WithLock executes fn while holding the lock for key. The lock is released
// when fn returns, even with an error; ttl caps how long a crashed holder
// can keep it.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.Client == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	wait := l.Wait
	if wait <= 0 {
		wait = 2 * time.Second
	}
	key = l.Prefix + key
	token := uuid.NewString()

	acquireCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	for attempt := 1; ; attempt++ {
		ok, err := l.Client.SetNX(acquireCtx, key, token, ttl).Result()
		if err != nil {
			if acquireCtx.Err() != nil {
				return fmt.Errorf("%w: %s", ErrNotAcquired, key)
			}
			return err
		}
		if ok {
			break
		}
		timer := time.NewTimer(min(resilience.Backoff(l.RetryBackoff, attempt, 0.2), 250*time.Millisecond))
		select {
		case <-acquireCtx.Done():
			timer.Stop()
			if err := ctx.Err(); err != nil {
				return err
			}
			return fmt.Errorf("%w: %s", ErrNotAcquired, key)
		case <-timer.C:
		}
	}

	defer func() {
		_ = releaseScript.Run(context.WithoutCancel(ctx), l.Client, []string{key}, token).Err()
	}()
	return fn(ctx)
}
