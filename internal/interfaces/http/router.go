package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/insanjo-pos/internal/application/dto"
	"github.com/jhoicas/insanjo-pos/internal/application/inventory"
	"github.com/jhoicas/insanjo-pos/internal/application/ports"
	"github.com/jhoicas/insanjo-pos/internal/application/reporting"
	"github.com/jhoicas/insanjo-pos/internal/application/returns"
	"github.com/jhoicas/insanjo-pos/internal/application/sales"
	"github.com/jhoicas/insanjo-pos/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC   *inventory.ProductUseCase
	SaleUC      *sales.SaleUseCase
	ReturnUC    *returns.ReturnUseCase
	FeedUC      *reporting.FeedUseCase
	DashboardUC *reporting.DashboardUseCase // nil = sin /reports/summary
	Logger      *logger.Logger              // nil = sin log de requests
	Storage     string                      // driver activo, se informa en /health
	Images      ports.ImageStore            // nil = /health no informa imágenes
}

// connectionChecker stores remotos que saben si su conexión sigue activa (NATS).
type connectionChecker interface {
	Connected() bool
}

// Router registra las rutas de la API. Las rutas conservan los paths que usa el cliente POS.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Logger != nil {
		app.Use(RequestLogger(deps.Logger))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		out := dto.HealthResponse{Status: "ok", Storage: deps.Storage}
		if deps.Images != nil {
			out.Images = "ok"
			if cc, ok := deps.Images.(connectionChecker); ok && !cc.Connected() {
				out.Status = "degraded"
				out.Images = "disconnected"
			}
		}
		return c.JSON(out)
	})

	// Products
	products := app.Group("/product")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Post("/", productHandler.Create)
	products.Get("/search", productHandler.Search)
	products.Get("/:id", productHandler.GetByID)
	products.Patch("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)
	products.Get("/:id/image", productHandler.Image)
	products.Post("/:id/stock", productHandler.AdjustStock)

	// Sales
	salesGroup := app.Group("/sales")
	saleHandler := NewSaleHandler(deps.SaleUC)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Patch("/:id", saleHandler.Update)
	salesGroup.Delete("/:id", saleHandler.Delete)
	salesGroup.Get("/:id/receipt", saleHandler.Receipt)

	// Returns
	returnsGroup := app.Group("/returnSales")
	returnHandler := NewReturnHandler(deps.ReturnUC)
	returnsGroup.Get("/", returnHandler.List)
	returnsGroup.Post("/", returnHandler.Create)
	returnsGroup.Get("/:id", returnHandler.GetByID)
	returnsGroup.Delete("/:id", returnHandler.Delete)

	// Reports
	feedHandler := NewFeedHandler(deps.FeedUC)
	app.Get("/feed", feedHandler.Page)
	if deps.DashboardUC != nil {
		app.Get("/reports/summary", NewDashboardHandler(deps.DashboardUC).Summary)
	}
}
