package main

import (
	"context"
	"fmt"

	"github.com/jhoicas/insanjo-pos/internal/application/ports"
	"github.com/jhoicas/insanjo-pos/internal/domain/repository"
	"github.com/jhoicas/insanjo-pos/internal/infrastructure/memory"
	"github.com/jhoicas/insanjo-pos/internal/infrastructure/postgres"
	"github.com/jhoicas/insanjo-pos/pkg/config"
)

// storage repositorios y TxRunner del driver elegido.
type storage struct {
	TxRunner ports.TxRunner
	Products repository.ProductRepository
	Sales    repository.SaleRepository
	Returns  repository.ReturnRepository
	close    func()
}

func (s *storage) Close() {
	if s.close != nil {
		s.close()
	}
}

func openStorage(ctx context.Context, cfg config.DBConfig) (*storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		return &storage{
			TxRunner: memory.NewTxRunner(store),
			Products: memory.NewProductRepository(store),
			Sales:    memory.NewSaleRepository(store),
			Returns:  memory.NewReturnRepository(store),
		}, nil
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &storage{
			TxRunner: postgres.NewTxRunner(pool),
			Products: postgres.NewProductRepository(pool),
			Sales:    postgres.NewSaleRepository(pool),
			Returns:  postgres.NewReturnRepository(pool),
			close:    pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("DB_DRIVER no soportado: %q", cfg.Driver)
	}
}
