package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SaleLine es una línea de venta. Nombre y precio son una copia del producto al momento de vender,
// así las ediciones posteriores del producto no alteran ventas históricas.
type SaleLine struct {
	ProductID        string
	Name             string
	Quantity         int
	Price            decimal.Decimal
	TotalAmount      decimal.Decimal // Quantity × Price
	Expenses         decimal.Decimal
	Note             string
	ReturnedQuantity int // 0 <= ReturnedQuantity <= Quantity
}

// Remaining unidades de la línea que aún se pueden devolver.
func (l SaleLine) Remaining() int {
	return l.Quantity - l.ReturnedQuantity
}

// Sale representa una venta con sus líneas. Las líneas quedan fijas al crearla;
// solo cambian ReturnedQuantity, Expenses y Note.
type Sale struct {
	ID       string
	SaleDate time.Time
	Lines    []SaleLine
}

// Line devuelve la línea del producto indicado o nil si la venta no lo contiene.
func (s *Sale) Line(productID string) *SaleLine {
	for i := range s.Lines {
		if s.Lines[i].ProductID == productID {
			return &s.Lines[i]
		}
	}
	return nil
}

// TotalQuantity suma de cantidades vendidas.
func (s *Sale) TotalQuantity() int {
	total := 0
	for _, l := range s.Lines {
		total += l.Quantity
	}
	return total
}

// TotalReturned suma de unidades ya devueltas.
func (s *Sale) TotalReturned() int {
	total := 0
	for _, l := range s.Lines {
		total += l.ReturnedQuantity
	}
	return total
}

// TotalAmount suma de los totales de línea.
func (s *Sale) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.TotalAmount)
	}
	return total
}

// TotalExpenses suma de gastos registrados en las líneas.
func (s *Sale) TotalExpenses() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Expenses)
	}
	return total
}

// ItemNames nombres de las líneas separados por coma.
func (s *Sale) ItemNames() string {
	names := make([]string, 0, len(s.Lines))
	for _, l := range s.Lines {
		names = append(names, l.Name)
	}
	return strings.Join(names, ", ")
}

// Clone devuelve una copia independiente de la venta (incluye las líneas).
func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	c := *s
	c.Lines = append([]SaleLine(nil), s.Lines...)
	return &c
}
