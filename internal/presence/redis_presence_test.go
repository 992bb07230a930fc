// internal/presence/redis_presence_test.go
package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisDetector(t *testing.T) (*RedisDetector, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisDetector(client), mr
}

func TestRedisDetectorAbsentWithoutHeartbeat(t *testing.T) {
	d, _ := newRedisDetector(t)
	present, err := d.HumanPresent(context.Background())
	require.NoError(t, err)
	assert.False(t, present)
}

func TestRedisDetectorPresentAfterHeartbeat(t *testing.T) {
	d, _ := newRedisDetector(t)
	require.NoError(t, d.Heartbeat(context.Background()))

	present, err := d.HumanPresent(context.Background())
	require.NoError(t, err)
	assert.True(t, present)
}

func TestRedisDetectorHeartbeatExpires(t *testing.T) {
	d, mr := newRedisDetector(t)
	require.NoError(t, d.Heartbeat(context.Background()))

	mr.FastForward(DefaultTTL + time.Second)

	present, err := d.HumanPresent(context.Background())
	require.NoError(t, err)
	assert.False(t, present)
}

func TestMemoryDetectorLifecycle(t *testing.T) {
	d := NewMemoryDetector()
	ctx := context.Background()

	present, err := d.HumanPresent(ctx)
	require.NoError(t, err)
	assert.False(t, present)

	d.Heartbeat()
	present, err = d.HumanPresent(ctx)
	require.NoError(t, err)
	assert.True(t, present)
}
