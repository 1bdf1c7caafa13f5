// Package idempotency implementa ports.IdempotencyStore sobre Redis o en memoria.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/insanjo-pos/internal/application/ports"
)

var _ ports.IdempotencyStore = (*RedisStore)(nil)

const (
	keyPrefix     = "idempotency:"
	pendingMarker = "__pending__"
)

// RedisStore reserva llaves con SETNX; el valor es pendingMarker hasta que Complete guarda el resultado.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore construye el store sobre un cliente ya creado.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Reserve(ctx context.Context, key string, ttl time.Duration) (ports.IdempotencyState, string, error) {
	k := keyPrefix + key
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pendingMarker, ttl).Result()
		if err != nil {
			return 0, "", fmt.Errorf("reservar llave: %w", err)
		}
		if ok {
			return ports.IdempotencyReserved, "", nil
		}
		val, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			// Expiró entre SETNX y GET; se reintenta la reserva.
			continue
		}
		if err != nil {
			return 0, "", fmt.Errorf("leer llave: %w", err)
		}
		if val == pendingMarker {
			return ports.IdempotencyInFlight, "", nil
		}
		return ports.IdempotencyCompleted, val, nil
	}
	return ports.IdempotencyInFlight, "", nil
}

func (s *RedisStore) Complete(ctx context.Context, key, result string, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+key, result, ttl).Err(); err != nil {
		return fmt.Errorf("completar llave: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("liberar llave: %w", err)
	}
	return nil
}
