package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest línea del carrito enviada por el cliente.
type SaleItemRequest struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	Expenses  *decimal.Decimal `json:"expenses"`
	Note      string           `json:"note"`
}

// CreateSaleRequest entrada de POST /sales.
type CreateSaleRequest struct {
	Items []SaleItemRequest `json:"items"`
}

// UpdateSaleItemRequest campos editables de una línea ya vendida.
type UpdateSaleItemRequest struct {
	ProductID string           `json:"productId"`
	Expenses  *decimal.Decimal `json:"expenses"`
	Note      *string          `json:"note"`
}

// UpdateSaleRequest entrada de PATCH /sales/:id. Cantidades, precios y totales no son editables.
type UpdateSaleRequest struct {
	Items []UpdateSaleItemRequest `json:"items"`
}

// SaleLineResponse línea de venta con su estado de devolución.
// Name es el nombre al momento de la venta; ProductName el actual (vacío si el producto fue eliminado).
type SaleLineResponse struct {
	ProductID         string          `json:"productId"`
	Name              string          `json:"name"`
	ProductName       string          `json:"productName,omitempty"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	Expenses          decimal.Decimal `json:"expenses"`
	Note              string          `json:"note,omitempty"`
	ReturnedQuantity  int             `json:"returnedQuantity"`
	RemainingQuantity int             `json:"remainingQuantity"`
}

// SaleResponse salida de una venta con totales derivados de sus líneas.
type SaleResponse struct {
	ID            string             `json:"id"`
	SaleDate      time.Time          `json:"saleDate"`
	Items         []SaleLineResponse `json:"items"`
	ItemNames     string             `json:"itemNames"`
	TotalQuantity int                `json:"totalQuantity"`
	TotalAmount   decimal.Decimal    `json:"totalAmount"`
	TotalExpenses decimal.Decimal    `json:"totalExpenses"`
	TotalReturned int                `json:"totalReturned"`
}

// SaleListResponse salida de GET /sales. Page, PageSize y TotalPages solo se informan al paginar.
type SaleListResponse struct {
	Count      int            `json:"count"`
	TotalCount int            `json:"totalCount"`
	Page       int            `json:"page,omitempty"`
	PageSize   int            `json:"pageSize,omitempty"`
	TotalPages int            `json:"totalPages,omitempty"`
	Sales      []SaleResponse `json:"sales"`
}
