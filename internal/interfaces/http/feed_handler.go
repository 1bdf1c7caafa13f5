package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/insanjo-pos/internal/application/reporting"
)

// FeedHandler historial combinado de ventas y devoluciones.
type FeedHandler struct {
	uc *reporting.FeedUseCase
}

// NewFeedHandler construye el handler.
func NewFeedHandler(uc *reporting.FeedUseCase) *FeedHandler {
	return &FeedHandler{uc: uc}
}

// Page godoc
// @Summary      Historial de ventas y devoluciones
// @Description  Orden descendente por fecha; páginas de tamaño fijo (FEED_PAGE_SIZE).
// @Tags         reports
// @Produce      json
// @Param        page  query  int  false  "Página (desde 1)"  default(1)
// @Success      200   {object}  dto.FeedPageResponse
// @Router       /feed [get]
func (h *FeedHandler) Page(c *fiber.Ctx) error {
	out, err := h.uc.Page(c.UserContext(), c.QueryInt("page", 1))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DashboardHandler resumen del día y del mes.
type DashboardHandler struct {
	uc *reporting.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *reporting.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// Summary godoc
// @Summary      Resumen del día y del mes
// @Tags         reports
// @Produce      json
// @Success      200  {object}  dto.DashboardSummaryResponse
// @Router       /reports/summary [get]
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	out, err := h.uc.GetSummary(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
