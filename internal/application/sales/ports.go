package sales

import (
	"context"

	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
)

// ReceiptGenerator define el puerto de salida para el comprobante PDF de una venta.
type ReceiptGenerator interface {
	GenerateSaleReceipt(ctx context.Context, sale *entity.Sale) ([]byte, error)
}
