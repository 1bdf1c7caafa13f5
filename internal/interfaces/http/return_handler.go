package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/insanjo-pos/internal/application/dto"
	"github.com/jhoicas/insanjo-pos/internal/application/returns"
)

// ReturnHandler maneja las peticiones HTTP de devoluciones.
type ReturnHandler struct {
	uc *returns.ReturnUseCase
}

// NewReturnHandler construye el handler.
func NewReturnHandler(uc *returns.ReturnUseCase) *ReturnHandler {
	return &ReturnHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar devolución
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReturnRequest  true  "Devolución"
// @Success      201   {object}  dto.ReturnResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /returnSales [post]
func (h *ReturnHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.CreateReturn(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar devoluciones
// @Tags         returns
// @Produce      json
// @Success      200  {object}  dto.ReturnListResponse
// @Router       /returnSales [get]
func (h *ReturnHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListReturns(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener devolución
// @Tags         returns
// @Produce      json
// @Param        id   path  string  true  "ID de la devolución"
// @Success      200  {object}  dto.ReturnResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /returnSales/{id} [get]
func (h *ReturnHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetReturn(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Anular devolución
// @Description  Revierte la devolución: descuenta de nuevo el stock y la cantidad devuelta de la línea.
// @Tags         returns
// @Produce      json
// @Param        id   path  string  true  "ID de la devolución"
// @Success      200  {object}  dto.ReturnResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /returnSales/{id} [delete]
func (h *ReturnHandler) Delete(c *fiber.Ctx) error {
	out, err := h.uc.DeleteReturn(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
