package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/insanjo-pos/internal/application/dto"
	"github.com/jhoicas/insanjo-pos/internal/domain"
)

// Códigos de error de la API.
const (
	CodeValidation        = "VALIDATION"
	CodeInvalidBody       = "INVALID_BODY"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeExceedsAvailable  = "EXCEEDS_AVAILABLE"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL"
)

// writeError traduce errores de dominio a respuestas HTTP. Los no reconocidos se registran y salen como 500.
func writeError(c *fiber.Ctx, err error) error {
	var stockErr *domain.InsufficientStockError
	var returnErr *domain.ExceedsAvailableError
	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    CodeInsufficientStock,
			Message: stockErr.Error(),
			Details: map[string]any{
				"productId": stockErr.ProductID,
				"name":      stockErr.Name,
				"available": stockErr.Available,
				"requested": stockErr.Requested,
				"shortfall": stockErr.Shortfall(),
			},
		})
	case errors.As(err, &returnErr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    CodeExceedsAvailable,
			Message: returnErr.Error(),
			Details: map[string]any{
				"saleId":    returnErr.SaleID,
				"productId": returnErr.ProductID,
				"remaining": returnErr.Remaining,
				"requested": returnErr.Requested,
			},
		})
	case errors.As(err, &validationErr):
		var details map[string]any
		if validationErr.Field != "" {
			details = map[string]any{"field": validationErr.Field}
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeValidation, Message: validationErr.Error(), Details: details})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeValidation, Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeInsufficientStock, Message: err.Error()})
	case errors.Is(err, domain.ErrExceedsReturnable):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeExceedsAvailable, Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: CodeNotFound, Message: err.Error()})
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: CodeConflict, Message: err.Error()})
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: CodeInternal, Message: "error interno del servidor"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeInvalidBody, Message: "cuerpo inválido"})
}
