package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	maxLoginAttempts = 5
	accountLockMins  = 15
)

// Throttle counts failed logins per account and locks it out after
// maxLoginAttempts within the lock window.
type Throttle interface {
	Locked(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type nopThrottle struct{}

func (nopThrottle) Locked(context.Context, string) (bool, error) { return false, nil }
func (nopThrottle) Fail(context.Context, string) error           { return nil }
func (nopThrottle) Reset(context.Context, string) error          { return nil }

// RedisThrottle keeps the counters in Redis so every instance shares them.
type RedisThrottle struct {
	rdb    redis.UniversalClient
	prefix string
	window time.Duration
}

func NewRedisThrottle(rdb redis.UniversalClient, prefix string) *RedisThrottle {
	return &RedisThrottle{rdb: rdb, prefix: prefix, window: accountLockMins * time.Minute}
}

func (t *RedisThrottle) key(k string) string {
	return fmt.Sprintf("%s:login:fail:%s", t.prefix, strings.ToLower(k))
}

func (t *RedisThrottle) Locked(ctx context.Context, k string) (bool, error) {
	n, err := t.rdb.Get(ctx, t.key(k)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("login throttle: %w", err)
	}
	return n >= maxLoginAttempts, nil
}

func (t *RedisThrottle) Fail(ctx context.Context, k string) error {
	pipe := t.rdb.TxPipeline()
	pipe.Incr(ctx, t.key(k))
	pipe.Expire(ctx, t.key(k), t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("login throttle: %w", err)
	}
	return nil
}

func (t *RedisThrottle) Reset(ctx context.Context, k string) error {
	if err := t.rdb.Del(ctx, t.key(k)).Err(); err != nil {
		return fmt.Errorf("login throttle: %w", err)
	}
	return nil
}
