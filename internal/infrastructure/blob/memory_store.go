package blob

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jhoicas/insanjo-pos/internal/application/ports"
)

var _ ports.ImageStore = (*MemoryStore)(nil)

type object struct {
	data        []byte
	contentType string
}

// MemoryStore ImageStore en memoria para desarrollo y tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]object
}

// NewMemoryStore crea un store vacío.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]object)}
}

func (s *MemoryStore) Put(_ context.Context, name, contentType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("leer objeto %s: %w", name, err)
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	s.mu.Lock()
	s.objects[name] = object{data: data, contentType: contentType}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, name string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil, "", ports.ErrImageNotFound
	}
	return append([]byte(nil), obj.data...), obj.contentType, nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[name]; !ok {
		return ports.ErrImageNotFound
	}
	delete(s.objects, name)
	return nil
}

// Len cantidad de objetos guardados.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
