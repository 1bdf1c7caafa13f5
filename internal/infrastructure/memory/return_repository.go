package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/insanjo-pos/internal/domain"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
	"github.com/jhoicas/insanjo-pos/internal/domain/repository"
)

var _ repository.ReturnRepository = (*ReturnRepo)(nil)

// ReturnRepo implementación en memoria de ReturnRepository.
type ReturnRepo struct {
	scope
}

// NewReturnRepository construye el repositorio sobre el estado compartido del store.
func NewReturnRepository(store *Store) *ReturnRepo {
	return &ReturnRepo{scope{store: store}}
}

func (r *ReturnRepo) Create(_ context.Context, ret *entity.SaleReturn) error {
	return r.update(func(st *state) error {
		if _, ok := st.returns[ret.ID]; ok {
			return domain.ErrDuplicate
		}
		cp := *ret
		st.returns[ret.ID] = &cp
		return nil
	})
}

func (r *ReturnRepo) GetByID(_ context.Context, id string) (*entity.SaleReturn, error) {
	var out *entity.SaleReturn
	_ = r.view(func(st *state) error {
		if ret, ok := st.returns[id]; ok {
			cp := *ret
			out = &cp
		}
		return nil
	})
	return out, nil
}

// List devuelve las devoluciones ordenadas por fecha descendente.
func (r *ReturnRepo) List(_ context.Context) ([]*entity.SaleReturn, error) {
	out := []*entity.SaleReturn{}
	_ = r.view(func(st *state) error {
		for _, ret := range st.returns {
			cp := *ret
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReturnDate.Equal(out[j].ReturnDate) {
			return out[i].ReturnDate.After(out[j].ReturnDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ReturnRepo) CountBySale(_ context.Context, saleID string) (int, error) {
	n := 0
	_ = r.view(func(st *state) error {
		for _, ret := range st.returns {
			if ret.SaleID == saleID {
				n++
			}
		}
		return nil
	})
	return n, nil
}

func (r *ReturnRepo) Delete(_ context.Context, id string) error {
	return r.update(func(st *state) error {
		if _, ok := st.returns[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.returns, id)
		return nil
	})
}
