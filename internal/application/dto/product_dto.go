package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. Los punteros permiten detectar campos ausentes.
// StockDate acepta YYYY-MM-DD o RFC3339.
type CreateProductRequest struct {
	Name           *string          `json:"name"`
	Description    string           `json:"description"`
	AvailableStock *int             `json:"availableStock"`
	PurchasePrice  *decimal.Decimal `json:"purchasePrice"`
	SellingPrice   *decimal.Decimal `json:"sellingPrice"`
	StockDate      *string          `json:"stockDate"`
}

// UpdateProductRequest actualización parcial; solo se aplican los campos presentes.
type UpdateProductRequest struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	AvailableStock *int             `json:"availableStock"`
	PurchasePrice  *decimal.Decimal `json:"purchasePrice"`
	SellingPrice   *decimal.Decimal `json:"sellingPrice"`
	StockDate      *string          `json:"stockDate"`
}

// AdjustStockRequest ajuste directo de stock (positivo suma, negativo resta).
// UnitCost opcional: en una entrada (delta > 0) recalcula purchasePrice por costo promedio ponderado.
type AdjustStockRequest struct {
	Delta    int              `json:"delta"`
	UnitCost *decimal.Decimal `json:"unitCost,omitempty"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	AvailableStock int             `json:"availableStock"`
	PurchasePrice  decimal.Decimal `json:"purchasePrice"`
	SellingPrice   decimal.Decimal `json:"sellingPrice"`
	StockDate      *string         `json:"stockDate,omitempty"`
	ImageURL       string          `json:"productImage,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Count      int               `json:"count"`
	Products   []ProductResponse `json:"products"`
	TotalCount int               `json:"totalCount"`
}
