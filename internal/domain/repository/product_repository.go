package repository

import (
	"context"

	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	// GetByID devuelve nil, nil si el producto no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error)
	// List devuelve la página pedida y el total de productos que cumplen el filtro.
	List(ctx context.Context, filter entity.ProductFilter, limit, offset int) ([]*entity.Product, int, error)
	Search(ctx context.Context, query string) ([]*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	// AdjustStock aplica stock += delta de forma atómica y devuelve el stock resultante.
	// Retorna domain.ErrNotFound si no existe y *domain.InsufficientStockError si quedaría negativo.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
	Delete(ctx context.Context, id string) error
}
