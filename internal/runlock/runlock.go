// Package runlock guards a store against two concurrent generation or publish runs.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned when another process holds the lock.
var ErrHeld = errors.New("run lock held by another worker")

// Locker hands out per-store run locks.
type Locker interface {
	Acquire(ctx context.Context, storeID string) (release func(context.Context) error, err error)
}

// Noop always grants the lock. Used when no Redis is configured; the store
// claim is then the only guard.
type Noop struct{}

func (Noop) Acquire(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

const keyPrefix = "storeforge:run:"

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Redis is a SET NX + TTL lock.
type Redis struct {
	client   redis.Cmdable
	ttl      time.Duration
	newToken func() string
}

// NewRedis creates a lock over client. The TTL bounds how long a crashed
// worker can block a store.
func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, newToken: uuid.NewString}
}

// Dial parses a redis:// URL and pings the server.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return c, nil
}

// Acquire takes the lock for storeID or returns ErrHeld.
func (r *Redis) Acquire(ctx context.Context, storeID string) (func(context.Context) error, error) {
	key := keyPrefix + storeID
	token := r.newToken()
	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return nil, ErrHeld
	}
	release := func(ctx context.Context) error {
		if err := r.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redis release %s: %w", key, err)
		}
		return nil
	}
	return release, nil
}
