// Package blob implementa ports.ImageStore: NATS JetStream Object Store en producción y memoria en desarrollo.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/jhoicas/insanjo-pos/internal/application/ports"
)

var _ ports.ImageStore = (*NATSStore)(nil)

const defaultContentType = "application/octet-stream"

// NATSStore guarda las imágenes de producto en un bucket del Object Store de JetStream.
type NATSStore struct {
	conn  *nats.Conn
	store jetstream.ObjectStore
}

// NewNATSStore conecta a NATS y abre (o crea) el bucket indicado.
func NewNATSStore(ctx context.Context, natsURL, bucket string) (*NATSStore, error) {
	conn, err := nats.Connect(natsURL, nats.Name("insanjo-pos"))
	if err != nil {
		return nil, fmt.Errorf("conectar a NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("crear contexto JetStream: %w", err)
	}
	store, err := js.ObjectStore(ctx, bucket)
	if err != nil {
		store, err = js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
			Bucket:      bucket,
			Description: "Imágenes de producto",
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("crear bucket %s: %w", bucket, err)
		}
	}
	return &NATSStore{conn: conn, store: store}, nil
}

// Put guarda el objeto con su Content-Type en los headers.
func (s *NATSStore) Put(ctx context.Context, name, contentType string, r io.Reader) error {
	meta := jetstream.ObjectMeta{
		Name:    name,
		Headers: nats.Header{"Content-Type": []string{contentType}},
	}
	if _, err := s.store.Put(ctx, meta, r); err != nil {
		return fmt.Errorf("guardar objeto %s: %w", name, err)
	}
	return nil
}

// Get lee el objeto completo. ports.ErrImageNotFound si no existe.
func (s *NATSStore) Get(ctx context.Context, name string) ([]byte, string, error) {
	result, err := s.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, "", ports.ErrImageNotFound
		}
		return nil, "", fmt.Errorf("leer objeto %s: %w", name, err)
	}
	defer result.Close()

	data, err := io.ReadAll(result)
	if err != nil {
		return nil, "", fmt.Errorf("leer objeto %s: %w", name, err)
	}
	info, err := result.Info()
	if err != nil {
		return nil, "", fmt.Errorf("info objeto %s: %w", name, err)
	}
	contentType := defaultContentType
	if info.Headers != nil {
		if ct := info.Headers.Get("Content-Type"); ct != "" {
			contentType = ct
		}
	}
	return data, contentType, nil
}

// Delete elimina el objeto. ports.ErrImageNotFound si no existe.
func (s *NATSStore) Delete(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, name); err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return ports.ErrImageNotFound
		}
		return fmt.Errorf("eliminar objeto %s: %w", name, err)
	}
	return nil
}

// Connected indica si la conexión a NATS está activa. /health lo informa en el campo images.
func (s *NATSStore) Connected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

// Close cierra la conexión a NATS.
func (s *NATSStore) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
