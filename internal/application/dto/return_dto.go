package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateReturnRequest entrada de POST /returnSales.
type CreateReturnRequest struct {
	SaleID         string `json:"saleId"`
	ProductID      string `json:"productId"`
	ReturnQuantity int    `json:"returnQuantity"`
	Notes          string `json:"notes"`
}

// ReturnResponse salida de una devolución.
type ReturnResponse struct {
	ID             string          `json:"id"`
	SaleID         string          `json:"saleId"`
	ProductID      string          `json:"productId"`
	ProductName    string          `json:"productName"`
	Price          decimal.Decimal `json:"price"`
	ReturnQuantity int             `json:"returnQuantity"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	ReturnDate     time.Time       `json:"returnDate"`
	Notes          string          `json:"notes,omitempty"`
	SaleDate       *time.Time      `json:"saleDate,omitempty"`
}

// ReturnListResponse salida de GET /returnSales.
type ReturnListResponse struct {
	Count   int              `json:"count"`
	Returns []ReturnResponse `json:"returns"`
}
