// internal/presence/redis_presence.go
package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// presenceKey holds the heartbeat; presence is simply key existence, expiry
// is handled by the TTL.
const presenceKey = "inviter:presence"

// RedisDetector reads the presence heartbeat written by the UI/extension.
// Redis makes the signal visible across processes: the extension heartbeats,
// the agent reads.
type RedisDetector struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDetector(client *redis.Client) *RedisDetector {
	return &RedisDetector{client: client, ttl: DefaultTTL}
}

// Heartbeat refreshes the presence key. Called by the heartbeat endpoint.
func (d *RedisDetector) Heartbeat(ctx context.Context) error {
	return d.client.Set(ctx, presenceKey, time.Now().Unix(), d.ttl).Err()
}

func (d *RedisDetector) HumanPresent(ctx context.Context) (bool, error) {
	n, err := d.client.Exists(ctx, presenceKey).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
