package idempotency

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/insanjo-pos/internal/application/ports"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisStore_Lifecycle(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	s := NewRedisStore(client)
	key := "test-" + uuid.New().String()
	defer client.Del(ctx, keyPrefix+key)

	state, _, err := s.Reserve(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ports.IdempotencyReserved, state)

	state, _, err = s.Reserve(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ports.IdempotencyInFlight, state)

	require.NoError(t, s.Complete(ctx, key, "sale-1", time.Minute))
	state, val, err := s.Reserve(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ports.IdempotencyCompleted, state)
	assert.Equal(t, "sale-1", val)

	require.NoError(t, s.Release(ctx, key))
	state, _, err = s.Reserve(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ports.IdempotencyReserved, state)
}
