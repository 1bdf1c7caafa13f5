package ports

import (
	"context"
	"time"
)

// IdempotencyState estado de una llave de idempotencia.
type IdempotencyState int

const (
	// IdempotencyReserved la llave es nueva y quedó reservada para este request.
	IdempotencyReserved IdempotencyState = iota
	// IdempotencyInFlight otro request con la misma llave está en curso.
	IdempotencyInFlight
	// IdempotencyCompleted la llave ya produjo un resultado (ver el valor devuelto).
	IdempotencyCompleted
)

// IdempotencyStore define el puerto para deduplicar POST /sales con la cabecera Idempotency-Key.
// Implementado sobre Redis (SETNX con TTL) o en memoria.
type IdempotencyStore interface {
	// Reserve intenta tomar la llave. Si ya estaba completada devuelve el resultado guardado.
	Reserve(ctx context.Context, key string, ttl time.Duration) (IdempotencyState, string, error)
	// Complete guarda el resultado (ej. el ID de la venta) asociado a la llave.
	Complete(ctx context.Context, key, result string, ttl time.Duration) error
	// Release libera una llave reservada cuando la operación falló, para permitir reintentos.
	Release(ctx context.Context, key string) error
}
