package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/jhoicas/insanjo-pos/internal/domain"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
	"github.com/jhoicas/insanjo-pos/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación en memoria de ProductRepository.
type ProductRepo struct {
	scope
}

// NewProductRepository construye el repositorio sobre el estado compartido del store.
func NewProductRepository(store *Store) *ProductRepo {
	return &ProductRepo{scope{store: store}}
}

// Create guarda una copia del producto.
func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	return r.update(func(st *state) error {
		if _, ok := st.products[product.ID]; ok {
			return domain.ErrDuplicate
		}
		st.products[product.ID] = product.Clone()
		return nil
	})
}

// GetByID devuelve nil, nil si no existe.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	_ = r.view(func(st *state) error {
		out = st.products[id].Clone()
		return nil
	})
	return out, nil
}

// GetForUpdate en memoria equivale a GetByID: la transacción ya es exclusiva.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

// GetByIDs devuelve los productos existentes indexados por ID.
func (r *ProductRepo) GetByIDs(_ context.Context, ids []string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(ids))
	_ = r.view(func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				out[id] = p.Clone()
			}
		}
		return nil
	})
	return out, nil
}

// List filtra, ordena (más recientes primero) y pagina.
func (r *ProductRepo) List(_ context.Context, filter entity.ProductFilter, limit, offset int) ([]*entity.Product, int, error) {
	var matched []*entity.Product
	_ = r.view(func(st *state) error {
		m := newMatcher(filter.Search)
		for _, p := range st.products {
			if filter.Stock != nil && p.AvailableStock != *filter.Stock {
				continue
			}
			if !m.match(p) {
				continue
			}
			matched = append(matched, p.Clone())
		}
		return nil
	})
	sortProducts(matched)
	total := len(matched)
	if offset >= total {
		return []*entity.Product{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

// Search devuelve todos los productos cuyo nombre o descripción contiene query (sin distinguir mayúsculas).
func (r *ProductRepo) Search(ctx context.Context, query string) ([]*entity.Product, error) {
	list, _, err := r.List(ctx, entity.ProductFilter{Search: query}, 0, 0)
	return list, err
}

// Update reemplaza el producto existente.
func (r *ProductRepo) Update(_ context.Context, product *entity.Product) error {
	return r.update(func(st *state) error {
		if _, ok := st.products[product.ID]; !ok {
			return domain.ErrNotFound
		}
		if product.AvailableStock < 0 {
			return domain.NewValidationError("availableStock", "no puede ser negativo")
		}
		st.products[product.ID] = product.Clone()
		return nil
	})
}

// AdjustStock aplica el delta solo si el stock resultante no es negativo.
func (r *ProductRepo) AdjustStock(_ context.Context, id string, delta int) (int, error) {
	var stock int
	err := r.update(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		if p.AvailableStock+delta < 0 {
			return &domain.InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Available: p.AvailableStock,
				Requested: -delta,
			}
		}
		if p.AvailableStock+delta > entity.MaxQuantity {
			return domain.NewValidationError("delta", "el stock resultante supera el máximo permitido")
		}
		p.AvailableStock += delta
		p.UpdatedAt = time.Now()
		stock = p.AvailableStock
		return nil
	})
	if err != nil {
		return 0, err
	}
	return stock, nil
}

// Delete elimina el producto; domain.ErrNotFound si no existe.
func (r *ProductRepo) Delete(_ context.Context, id string) error {
	return r.update(func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
		}
		delete(st.products, id)
		return nil
	})
}

// matcher compara sin distinguir mayúsculas usando case folding Unicode.
type matcher struct {
	caser  cases.Caser
	needle string
}

func newMatcher(search string) *matcher {
	search = strings.TrimSpace(search)
	if search == "" {
		return nil
	}
	c := cases.Fold()
	return &matcher{caser: c, needle: c.String(search)}
}

func (m *matcher) match(p *entity.Product) bool {
	if m == nil {
		return true
	}
	return strings.Contains(m.caser.String(p.Name), m.needle) ||
		strings.Contains(m.caser.String(p.Description), m.needle)
}

func sortProducts(list []*entity.Product) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
