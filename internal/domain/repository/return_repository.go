package repository

import (
	"context"

	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
)

// ReturnRepository define el puerto de persistencia para devoluciones.
type ReturnRepository interface {
	Create(ctx context.Context, ret *entity.SaleReturn) error
	GetByID(ctx context.Context, id string) (*entity.SaleReturn, error)
	List(ctx context.Context) ([]*entity.SaleReturn, error)
	CountBySale(ctx context.Context, saleID string) (int, error)
	Delete(ctx context.Context, id string) error
}
