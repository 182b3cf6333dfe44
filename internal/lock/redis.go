package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis is a Locker shared by every replica through a Redis SET NX lease.
// A lease expires after TTL so a crashed holder cannot wedge a session.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

// NewRedis returns a Redis-backed locker. ttl bounds how long a crashed
// holder keeps the key.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Redis{client: client, prefix: "narrator:lock:", ttl: ttl, retry: 25 * time.Millisecond}
}

// Lock polls until the lease is taken or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	k := r.prefix + key
	token := uuid.NewString()
	for {
		ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrBusy, ctx.Err())
			}
			return nil, fmt.Errorf("lock: redis: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrBusy, ctx.Err())
		case <-time.After(r.retry):
		}
	}
	return func() {
		// Release must run even when the request context is gone.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, r.client, []string{k}, token).Err()
	}, nil
}
