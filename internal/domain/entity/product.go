package entity

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MaxQuantity máximo para stock y cantidades; las columnas son INTEGER.
const MaxQuantity = math.MaxInt32

// Product representa un producto del inventario con su stock disponible.
// AvailableStock nunca puede quedar negativo; se modifica con ventas, devoluciones o ajuste directo.
type Product struct {
	ID             string
	Name           string
	Description    string
	AvailableStock int
	PurchasePrice  decimal.Decimal // precio de compra
	SellingPrice   decimal.Decimal // precio de venta (se copia a la línea al vender)
	StockDate      *time.Time      // fecha de ingreso del stock (opcional)
	ImageRef       string          // nombre del objeto en el almacén de imágenes
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone devuelve una copia independiente del producto.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	if p.StockDate != nil {
		d := *p.StockDate
		c.StockDate = &d
	}
	return &c
}

// ProductFilter criterios de búsqueda para el listado de productos.
type ProductFilter struct {
	Search string // subcadena en nombre o descripción, sin distinguir mayúsculas
	Stock  *int   // igualdad exacta sobre AvailableStock
}
