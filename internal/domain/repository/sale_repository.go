package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para ventas y sus líneas.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	// GetByID devuelve nil, nil si la venta no existe.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	// List devuelve las ventas con SaleDate en [from, to]; nil = sin límite.
	List(ctx context.Context, from, to *time.Time) ([]*entity.Sale, error)
	UpdateLineDetails(ctx context.Context, saleID, productID string, expenses decimal.Decimal, note string) error
	// AddReturnedQuantity aplica returned_quantity += delta solo si el resultado queda en [0, quantity].
	// Retorna domain.ErrNotFound si no existe la línea y *domain.ExceedsAvailableError si se excede.
	AddReturnedQuantity(ctx context.Context, saleID, productID string, delta int) (int, error)
	Delete(ctx context.Context, id string) error
}
