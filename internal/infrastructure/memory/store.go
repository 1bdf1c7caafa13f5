// Package memory implementa los repositorios sobre un estado en memoria protegido por mutex.
// Las transacciones trabajan sobre una copia del estado que solo reemplaza al original en el commit.
package memory

import (
	"sync"

	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
)

type state struct {
	products map[string]*entity.Product
	sales    map[string]*entity.Sale
	returns  map[string]*entity.SaleReturn
}

func newState() *state {
	return &state{
		products: make(map[string]*entity.Product),
		sales:    make(map[string]*entity.Sale),
		returns:  make(map[string]*entity.SaleReturn),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, p := range s.products {
		c.products[id] = p.Clone()
	}
	for id, sale := range s.sales {
		c.sales[id] = sale.Clone()
	}
	for id, r := range s.returns {
		cp := *r
		c.returns[id] = &cp
	}
	return c
}

// Store estado compartido por los repositorios en memoria.
type Store struct {
	txMu sync.Mutex   // serializa escrituras y transacciones
	mu   sync.RWMutex // protege st
	st   *state
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// scope indica sobre qué estado opera un repositorio: el compartido (tx == nil) o la copia de una transacción.
type scope struct {
	store *Store
	tx    *state
}

func (s scope) view(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	return fn(s.store.st)
}

func (s scope) update(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.store.txMu.Lock()
	defer s.store.txMu.Unlock()
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return fn(s.store.st)
}
