package limiters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockoutUnavailable wraps transport failures talking to Redis.
var ErrLockoutUnavailable = errors.New("lockout backend unavailable")

// LockoutConfig tunes the failed-login counter.
type LockoutConfig struct {
	Threshold int           // failures that trigger a lock
	Window    time.Duration // counting window for failures
}

// Lockout counts consecutive authentication failures per account.
type Lockout struct {
	redis  redis.UniversalClient
	config LockoutConfig
}

// NewLockout creates a [Lockout] backed by the given Redis client.
func NewLockout(redisClient redis.UniversalClient, cfg LockoutConfig) *Lockout {
	return &Lockout{redis: redisClient, config: cfg}
}

func (l *Lockout) key(userID int64) string {
	return "auth:fail:" + strconv.FormatInt(userID, 10)
}

// RecordFailure counts one authentication failure for the account and
// reports whether the threshold was reached. The counting window is
// armed on the first failure; when locked is true the counter has been
// deleted and the caller is expected to persist a lock on the account.
func (l *Lockout) RecordFailure(ctx context.Context, userID int64) (attempts int64, locked bool, err error) {
	key := l.key(userID)

	attempts, err = l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}

	if attempts == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, false, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
		}
	}

	if attempts >= int64(l.config.Threshold) {
		if err := l.redis.Del(ctx, key).Err(); err != nil {
			return attempts, true, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
		}
		return attempts, true, nil
	}

	return attempts, false, nil
}

// Reset clears the failure counter after a successful authentication.
// Idempotent on missing counters.
func (l *Lockout) Reset(ctx context.Context, userID int64) error {
	if err := l.redis.Del(ctx, l.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return nil
}

// Failures returns the current failure count, zero for unknown accounts.
func (l *Lockout) Failures(ctx context.Context, userID int64) (int64, error) {
	count, err := l.redis.Get(ctx, l.key(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return count, nil
}
