// @title        Insanjo POS API
// @version      1.0
// @description  Inventario, ventas y devoluciones de un punto de venta.
// @BasePath     /
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/insanjo-pos/docs"
	"github.com/jhoicas/insanjo-pos/internal/application/inventory"
	"github.com/jhoicas/insanjo-pos/internal/application/ports"
	"github.com/jhoicas/insanjo-pos/internal/application/reporting"
	"github.com/jhoicas/insanjo-pos/internal/application/returns"
	"github.com/jhoicas/insanjo-pos/internal/application/sales"
	"github.com/jhoicas/insanjo-pos/internal/infrastructure/blob"
	"github.com/jhoicas/insanjo-pos/internal/infrastructure/idempotency"
	infrapdf "github.com/jhoicas/insanjo-pos/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/insanjo-pos/internal/interfaces/http"
	"github.com/jhoicas/insanjo-pos/pkg/config"
	"github.com/jhoicas/insanjo-pos/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.Close()

	// Imágenes: NATS JetStream Object Store si hay NATS_URL; si no, memoria.
	var images ports.ImageStore = blob.NewMemoryStore()
	if cfg.NATS.URL != "" {
		natsCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		natsStore, err := blob.NewNATSStore(natsCtx, cfg.NATS.URL, cfg.NATS.ImageBucket)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("NATS no disponible, imágenes en memoria")
		} else {
			defer natsStore.Close()
			images = natsStore
		}
	}

	// Idempotency-Key de POST /sales: Redis si hay REDIS_ADDR; si no, memoria.
	var idem ports.IdempotencyStore = idempotency.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("Redis no disponible, idempotencia en memoria")
			_ = rdb.Close()
		} else {
			defer rdb.Close()
			idem = idempotency.NewRedisStore(rdb)
		}
	}

	productUC := inventory.NewProductUseCase(store.TxRunner, store.Products, images, cfg.POS.ProductPageLimit)
	saleUC := sales.NewSaleUseCase(
		store.TxRunner, store.Products, store.Sales, store.Returns,
		idem, infrapdf.NewMarotoReceiptGenerator(cfg.App.Name), cfg.POS.IdempotencyTTL,
	)
	returnUC := returns.NewReturnUseCase(store.TxRunner, store.Products, store.Sales, store.Returns)
	feedUC := reporting.NewFeedUseCase(store.Sales, store.Returns, cfg.POS.FeedPageSize)
	dashboardUC := reporting.NewDashboardUseCase(store.Sales, store.Returns)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    2 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.HTTP.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, " + httpRouter.HeaderIdempotencyKey,
		ExposeHeaders: "Idempotent-Replayed, Content-Disposition",
	}))

	// Swagger UI en local: http://localhost:<port>/docs
	docs.SwaggerInfo.Title = cfg.App.Name + " API"
	app.Use(swagger.New(swagger.Config{
		BasePath:    "/",
		FilePath:    docs.SwaggerFile,
		FileContent: docs.JSON(),
		Path:        "docs",
		Title:       docs.SwaggerInfo.Title,
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:   productUC,
		SaleUC:      saleUC,
		ReturnUC:    returnUC,
		FeedUC:      feedUC,
		DashboardUC: dashboardUC,
		Logger:      log,
		Storage:     cfg.DB.Driver,
		Images:      images,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
