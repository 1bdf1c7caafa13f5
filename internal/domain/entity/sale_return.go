package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleReturn registro inmutable de una devolución contra una línea de venta.
// Name y Price se copian de la línea vendida; TotalAmount = Quantity × Price.
type SaleReturn struct {
	ID          string
	SaleID      string
	ProductID   string
	Name        string
	Price       decimal.Decimal
	Quantity    int
	TotalAmount decimal.Decimal
	ReturnDate  time.Time
	Note        string
}
