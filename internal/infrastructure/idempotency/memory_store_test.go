package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/insanjo-pos/internal/application/ports"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	state, _, err := s.Reserve(ctx, "k1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, ports.IdempotencyReserved, state)

	state, _, err = s.Reserve(ctx, "k1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, ports.IdempotencyInFlight, state)

	require.NoError(t, s.Complete(ctx, "k1", "sale-1", time.Hour))
	state, val, err := s.Reserve(ctx, "k1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, ports.IdempotencyCompleted, state)
	assert.Equal(t, "sale-1", val)
}

func TestMemoryStore_ReleaseAllowsRetry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, _, _ = s.Reserve(ctx, "k1", time.Hour)
	require.NoError(t, s.Release(ctx, "k1"))

	state, _, err := s.Reserve(ctx, "k1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, ports.IdempotencyReserved, state)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	_, _, _ = s.Reserve(ctx, "k1", time.Minute)
	require.NoError(t, s.Complete(ctx, "k1", "sale-1", time.Minute))

	now = now.Add(2 * time.Minute)
	state, _, err := s.Reserve(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ports.IdempotencyReserved, state)
}
