package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/insanjo-pos/internal/domain"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
	"github.com/jhoicas/insanjo-pos/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación en memoria de SaleRepository.
type SaleRepo struct {
	scope
}

// NewSaleRepository construye el repositorio sobre el estado compartido del store.
func NewSaleRepository(store *Store) *SaleRepo {
	return &SaleRepo{scope{store: store}}
}

// Create guarda una copia de la venta con sus líneas.
func (r *SaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	return r.update(func(st *state) error {
		if _, ok := st.sales[sale.ID]; ok {
			return domain.ErrDuplicate
		}
		st.sales[sale.ID] = sale.Clone()
		return nil
	})
}

// GetByID devuelve nil, nil si no existe.
func (r *SaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	_ = r.view(func(st *state) error {
		out = st.sales[id].Clone()
		return nil
	})
	return out, nil
}

// GetForUpdate en memoria equivale a GetByID.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

// List devuelve las ventas en [from, to] ordenadas por fecha descendente.
func (r *SaleRepo) List(_ context.Context, from, to *time.Time) ([]*entity.Sale, error) {
	out := []*entity.Sale{}
	_ = r.view(func(st *state) error {
		for _, s := range st.sales {
			if from != nil && s.SaleDate.Before(*from) {
				continue
			}
			if to != nil && s.SaleDate.After(*to) {
				continue
			}
			out = append(out, s.Clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SaleDate.Equal(out[j].SaleDate) {
			return out[i].SaleDate.After(out[j].SaleDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateLineDetails actualiza gastos y nota de una línea.
func (r *SaleRepo) UpdateLineDetails(_ context.Context, saleID, productID string, expenses decimal.Decimal, note string) error {
	return r.update(func(st *state) error {
		line, err := findLine(st, saleID, productID)
		if err != nil {
			return err
		}
		line.Expenses = expenses
		line.Note = note
		return nil
	})
}

// AddReturnedQuantity aplica delta a returned_quantity manteniéndolo en [0, quantity].
func (r *SaleRepo) AddReturnedQuantity(_ context.Context, saleID, productID string, delta int) (int, error) {
	var returned int
	err := r.update(func(st *state) error {
		line, err := findLine(st, saleID, productID)
		if err != nil {
			return err
		}
		next := line.ReturnedQuantity + delta
		if next > line.Quantity {
			return &domain.ExceedsAvailableError{
				SaleID:    saleID,
				ProductID: productID,
				Remaining: line.Remaining(),
				Requested: delta,
			}
		}
		if next < 0 {
			return fmt.Errorf("cantidad devuelta negativa en la venta %s: %w", saleID, domain.ErrConflict)
		}
		line.ReturnedQuantity = next
		returned = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	return returned, nil
}

// Delete elimina la venta; domain.ErrNotFound si no existe.
func (r *SaleRepo) Delete(_ context.Context, id string) error {
	return r.update(func(st *state) error {
		if _, ok := st.sales[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.sales, id)
		return nil
	})
}

func findLine(st *state, saleID, productID string) (*entity.SaleLine, error) {
	sale, ok := st.sales[saleID]
	if !ok {
		return nil, fmt.Errorf("venta %s: %w", saleID, domain.ErrNotFound)
	}
	line := sale.Line(productID)
	if line == nil {
		return nil, fmt.Errorf("línea %s de la venta %s: %w", productID, saleID, domain.ErrNotFound)
	}
	return line, nil
}
