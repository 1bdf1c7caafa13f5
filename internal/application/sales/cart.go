package sales

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/insanjo-pos/internal/application/dto"
	"github.com/jhoicas/insanjo-pos/internal/domain"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
)

// CartLine línea pendiente de vender.
type CartLine struct {
	ProductID string
	Quantity  int
	Expenses  decimal.Decimal
	Note      string
}

// Cart carrito de un request de venta. Agregar el mismo producto dos veces suma cantidades
// y gastos en una sola línea, así una venta tiene a lo sumo una línea por producto.
// No es seguro para uso concurrente; se construye uno por request.
type Cart struct {
	lines []CartLine
	index map[string]int
}

// NewCart crea un carrito vacío.
func NewCart() *Cart {
	return &Cart{index: make(map[string]int)}
}

// Add agrega qty unidades del producto. Las notas de líneas fusionadas se concatenan con "; ".
func (c *Cart) Add(productID string, qty int, expenses decimal.Decimal, note string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.NewValidationError("productId", "es obligatorio")
	}
	if qty <= 0 {
		return domain.NewValidationError("quantity", "debe ser mayor que 0")
	}
	if qty > entity.MaxQuantity {
		return domain.NewValidationError("quantity", fmt.Sprintf("no puede superar %d", entity.MaxQuantity))
	}
	if expenses.IsNegative() {
		return domain.NewValidationError("expenses", "no puede ser negativo")
	}
	note = strings.TrimSpace(note)
	if i, ok := c.index[productID]; ok {
		l := &c.lines[i]
		if l.Quantity+qty > entity.MaxQuantity {
			return domain.NewValidationError("quantity", fmt.Sprintf("no puede superar %d", entity.MaxQuantity))
		}
		l.Quantity += qty
		l.Expenses = l.Expenses.Add(expenses)
		switch {
		case note == "":
		case l.Note == "":
			l.Note = note
		default:
			l.Note += "; " + note
		}
		return nil
	}
	c.index[productID] = len(c.lines)
	c.lines = append(c.lines, CartLine{ProductID: productID, Quantity: qty, Expenses: expenses, Note: note})
	return nil
}

// Remove quita la línea del producto. Devuelve false si no estaba en el carrito.
func (c *Cart) Remove(productID string) bool {
	i, ok := c.index[productID]
	if !ok {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, productID)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ProductID] = j
	}
	return true
}

// Clear vacía el carrito.
func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[string]int)
}

// Lines devuelve una copia de las líneas en orden de inserción.
func (c *Cart) Lines() []CartLine {
	return append([]CartLine(nil), c.lines...)
}

// Len cantidad de productos distintos en el carrito.
func (c *Cart) Len() int { return len(c.lines) }

// CartFromRequest arma el carrito a partir del body de POST /sales.
func CartFromRequest(in dto.CreateSaleRequest) (*Cart, error) {
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", "la venta debe tener al menos un producto")
	}
	cart := NewCart()
	for i, item := range in.Items {
		expenses := decimal.Zero
		if item.Expenses != nil {
			expenses = *item.Expenses
		}
		if err := cart.Add(item.ProductID, item.Quantity, expenses, item.Note); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				verr.Field = fmt.Sprintf("items[%d].%s", i, verr.Field)
			}
			return nil, err
		}
	}
	return cart, nil
}
