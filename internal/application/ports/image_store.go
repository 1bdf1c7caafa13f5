package ports

import (
	"context"
	"errors"
	"io"
)

// ErrImageNotFound lo retorna ImageStore.Get cuando el objeto no existe.
var ErrImageNotFound = errors.New("imagen no encontrada")

// ImageStore define el puerto de salida para guardar las imágenes de producto.
// El adaptador productivo es un Object Store de NATS JetStream; en desarrollo y tests, memoria.
type ImageStore interface {
	// Put guarda el contenido bajo name (sobrescribe si existe).
	Put(ctx context.Context, name, contentType string, r io.Reader) error
	// Get devuelve el contenido y su Content-Type.
	Get(ctx context.Context, name string) ([]byte, string, error)
	Delete(ctx context.Context, name string) error
}
