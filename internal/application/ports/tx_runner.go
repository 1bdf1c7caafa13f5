package ports

import (
	"context"

	"github.com/jhoicas/insanjo-pos/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn retorna error se hace Rollback y ningún cambio queda visible; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
		returnRepo repository.ReturnRepository,
	) error) error
}
