package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/insanjo-pos/internal/domain"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
	"github.com/jhoicas/insanjo-pos/internal/domain/repository"
)

func seed(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, NewProductRepository(store).Create(ctx, &entity.Product{
		ID: "p1", Name: "Camiseta", Description: "Algodón", AvailableStock: 5,
		SellingPrice: decimal.NewFromInt(5), CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, NewSaleRepository(store).Create(ctx, &entity.Sale{
		ID: "s1", SaleDate: now,
		Lines: []entity.SaleLine{{ProductID: "p1", Name: "Camiseta", Quantity: 3, Price: decimal.NewFromInt(5)}},
	}))
}

func TestTxRunner_RollbackOnError(t *testing.T) {
	store := NewStore()
	seed(t, store)
	ctx := context.Background()
	boom := errors.New("boom")

	err := NewTxRunner(store).Run(ctx, func(p repository.ProductRepository, s repository.SaleRepository, r repository.ReturnRepository) error {
		if _, err := p.AdjustStock(ctx, "p1", -2); err != nil {
			return err
		}
		if _, err := s.AddReturnedQuantity(ctx, "s1", "p1", 1); err != nil {
			return err
		}
		if err := r.Create(ctx, &entity.SaleReturn{ID: "r1", SaleID: "s1", ProductID: "p1", Quantity: 1}); err != nil {
			return err
		}
		// Dentro de la transacción se ven los cambios propios.
		prod, err := p.GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 3, prod.AvailableStock)
		return boom
	})
	require.ErrorIs(t, err, boom)

	prod, err := NewProductRepository(store).GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, prod.AvailableStock)
	sale, err := NewSaleRepository(store).GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, sale.Line("p1").ReturnedQuantity)
	n, err := NewReturnRepository(store).CountBySale(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestTxRunner_CommitAndCanceledContext(t *testing.T) {
	store := NewStore()
	seed(t, store)
	ctx := context.Background()
	runner := NewTxRunner(store)

	require.NoError(t, runner.Run(ctx, func(p repository.ProductRepository, _ repository.SaleRepository, _ repository.ReturnRepository) error {
		_, err := p.AdjustStock(ctx, "p1", -1)
		return err
	}))
	prod, _ := NewProductRepository(store).GetByID(ctx, "p1")
	assert.Equal(t, 4, prod.AvailableStock)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err := runner.Run(canceled, func(repository.ProductRepository, repository.SaleRepository, repository.ReturnRepository) error {
		t.Fatal("no debe ejecutarse")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProductRepo_ReturnsCopies(t *testing.T) {
	store := NewStore()
	seed(t, store)
	ctx := context.Background()
	repo := NewProductRepository(store)

	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	p.AvailableStock = 999

	again, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, again.AvailableStock)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductRepo_AdjustStockNeverNegative(t *testing.T) {
	store := NewStore()
	seed(t, store)
	ctx := context.Background()
	repo := NewProductRepository(store)

	_, err := repo.AdjustStock(ctx, "p1", -6)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 6, stockErr.Requested)

	left, err := repo.AdjustStock(ctx, "p1", -5)
	require.NoError(t, err)
	assert.Equal(t, 0, left)

	_, err = repo.AdjustStock(ctx, "nope", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.AdjustStock(ctx, "p1", entity.MaxQuantity+1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSaleRepo_ReturnedQuantityBounds(t *testing.T) {
	store := NewStore()
	seed(t, store)
	ctx := context.Background()
	repo := NewSaleRepository(store)

	n, err := repo.AddReturnedQuantity(ctx, "s1", "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = repo.AddReturnedQuantity(ctx, "s1", "p1", 1)
	var exceeds *domain.ExceedsAvailableError
	require.ErrorAs(t, err, &exceeds)
	assert.Equal(t, 0, exceeds.Remaining)

	_, err = repo.AddReturnedQuantity(ctx, "s1", "p1", -4)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = repo.AddReturnedQuantity(ctx, "s1", "p9", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductRepo_SearchFoldsCase(t *testing.T) {
	store := NewStore()
	seed(t, store)
	ctx := context.Background()

	found, err := NewProductRepository(store).Search(ctx, "ALGODÓN")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "p1", found[0].ID)

	none, err := NewProductRepository(store).Search(ctx, "lana")
	require.NoError(t, err)
	assert.Empty(t, none)
}
