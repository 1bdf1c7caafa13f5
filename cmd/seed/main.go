// seed carga productos desde un CSV a la base de datos PostgreSQL configurada.
//
// Uso: go run ./cmd/seed [-latin1] [-dry-run] productos.csv
// Columnas: name,description,availableStock,purchasePrice,sellingPrice,stockDate
// La primera fila se toma como encabezado. stockDate es opcional (YYYY-MM-DD).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/insanjo-pos/internal/application/inventory"
	"github.com/jhoicas/insanjo-pos/internal/infrastructure/blob"
	"github.com/jhoicas/insanjo-pos/internal/infrastructure/postgres"
	"github.com/jhoicas/insanjo-pos/pkg/config"
	"github.com/jhoicas/insanjo-pos/pkg/logger"
)

func main() {
	latin1 := flag.Bool("latin1", false, "el CSV está en ISO-8859-1 (exportado desde Excel)")
	dryRun := flag.Bool("dry-run", false, "solo valida el archivo, no escribe en la base de datos")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed [-latin1] [-dry-run] productos.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("seed")

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()

	var r io.Reader = f
	if *latin1 {
		r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}

	rows, err := parseProducts(r)
	if err != nil {
		log.Fatal().Err(err).Msg("leer CSV")
	}
	log.Info().Int("rows", len(rows)).Msg("productos leídos")
	if *dryRun {
		return
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conectar DB")
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("aplicar schema")
	}

	uc := inventory.NewProductUseCase(
		postgres.NewTxRunner(pool),
		postgres.NewProductRepository(pool),
		blob.NewMemoryStore(),
		cfg.POS.ProductPageLimit,
	)

	created, failed := 0, 0
	for _, row := range rows {
		if _, err := uc.Create(ctx, row.Request, nil); err != nil {
			failed++
			log.Warn().Err(err).Int("line", row.Line).Msg("producto omitido")
			continue
		}
		created++
	}
	log.Info().Int("created", created).Int("failed", failed).Msg("seed finalizado")
}
