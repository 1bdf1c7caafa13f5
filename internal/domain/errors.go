package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrExceedsReturnable = errors.New("cantidad supera lo disponible para devolución")
)

// ValidationError describe un campo faltante o mal formado. Se compara como ErrInvalidInput.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError construye el error para el campo indicado.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// InsufficientStockError indica que un producto no tiene stock para la cantidad pedida.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para el producto %s: disponible %d, solicitado %d (faltan %d)",
		e.ProductID, e.Available, e.Requested, e.Shortfall())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Shortfall unidades que faltan para cubrir la solicitud.
func (e *InsufficientStockError) Shortfall() int {
	if e.Requested <= e.Available {
		return 0
	}
	return e.Requested - e.Available
}

// ExceedsAvailableError indica que una devolución supera lo que queda por devolver en la línea.
type ExceedsAvailableError struct {
	SaleID    string
	ProductID string
	Remaining int
	Requested int
}

func (e *ExceedsAvailableError) Error() string {
	return fmt.Sprintf("no se pueden devolver %d unidades: solo quedan %d disponibles para devolución",
		e.Requested, e.Remaining)
}

func (e *ExceedsAvailableError) Unwrap() error { return ErrExceedsReturnable }
