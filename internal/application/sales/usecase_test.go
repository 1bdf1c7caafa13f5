package sales

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/insanjo-pos/internal/application/dto"
	"github.com/jhoicas/insanjo-pos/internal/application/ports"
	"github.com/jhoicas/insanjo-pos/internal/domain"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
	"github.com/jhoicas/insanjo-pos/internal/infrastructure/idempotency"
	"github.com/jhoicas/insanjo-pos/internal/infrastructure/memory"
)

type fakeReceipts struct{ calls int }

func (f *fakeReceipts) GenerateSaleReceipt(_ context.Context, sale *entity.Sale) ([]byte, error) {
	f.calls++
	return []byte("%PDF-" + sale.ID), nil
}

type testEnv struct {
	uc       *SaleUseCase
	products *memory.ProductRepo
	sales    *memory.SaleRepo
	returns  *memory.ReturnRepo
	idem     *idempotency.MemoryStore
	receipts *fakeReceipts
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	env := &testEnv{
		products: memory.NewProductRepository(store),
		sales:    memory.NewSaleRepository(store),
		returns:  memory.NewReturnRepository(store),
		idem:     idempotency.NewMemoryStore(),
		receipts: &fakeReceipts{},
	}
	env.uc = NewSaleUseCase(memory.NewTxRunner(store), env.products, env.sales, env.returns, env.idem, env.receipts, time.Hour)
	return env
}

func (e *testEnv) seedProduct(t *testing.T, id, name string, stock int, price string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, e.products.Create(context.Background(), &entity.Product{
		ID:             id,
		Name:           name,
		AvailableStock: stock,
		PurchasePrice:  decimal.RequireFromString(price).Div(decimal.NewFromInt(2)),
		SellingPrice:   decimal.RequireFromString(price),
		CreatedAt:      now,
		UpdatedAt:      now,
	}))
}

func (e *testEnv) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := e.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.AvailableStock
}

func cartOf(t *testing.T, items ...any) *Cart {
	t.Helper()
	c := NewCart()
	for i := 0; i < len(items); i += 2 {
		require.NoError(t, c.Add(items[i].(string), items[i+1].(int), decimal.Zero, ""))
	}
	return c
}

func TestCreateSale_DecrementsStockAndSnapshotsLine(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Camiseta", 10, "5.00")
	ctx := context.Background()

	out, err := env.uc.CreateSale(ctx, cartOf(t, "p1", 3))
	require.NoError(t, err)

	assert.Equal(t, 7, env.stock(t, "p1"))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Camiseta", out.Items[0].Name)
	assert.True(t, decimal.RequireFromString("15.00").Equal(out.Items[0].TotalAmount))
	assert.True(t, decimal.RequireFromString("15.00").Equal(out.TotalAmount))
	assert.Equal(t, 3, out.TotalQuantity)
	assert.Equal(t, 0, out.TotalReturned)
	assert.Equal(t, 3, out.Items[0].RemainingQuantity)

	got, err := env.uc.GetSale(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, out.ID, got.ID)
	assert.Equal(t, out.Items, got.Items)
}

func TestCreateSale_InsufficientStockLeavesEverythingUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Camiseta", 10, "5.00")
	env.seedProduct(t, "p2", "Gorra", 2, "4.00")
	ctx := context.Background()

	_, err := env.uc.CreateSale(ctx, cartOf(t, "p1", 3, "p2", 5))

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "p2", stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Shortfall())

	assert.Equal(t, 10, env.stock(t, "p1"))
	assert.Equal(t, 2, env.stock(t, "p2"))
	list, err := env.uc.ListSales(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, list.Count)
}

func TestCreateSale_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Camiseta", 1, "5.00")

	// El producto inexistente se reporta aunque otra línea tampoco tenga stock.
	_, err := env.uc.CreateSale(context.Background(), cartOf(t, "p1", 9, "ghost", 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, env.stock(t, "p1"))
}

func TestCreateSale_EmptyCart(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.uc.CreateSale(context.Background(), NewCart())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = env.uc.CreateSale(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateSale_ConcurrentBuyersNeverOversell(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Camiseta", 5, "5.00")

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, short := 0, 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := NewCart()
			_ = c.Add("p1", 1, decimal.Zero, "")
			_, err := env.uc.CreateSale(context.Background(), c)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				short++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 7, short)
	assert.Equal(t, 0, env.stock(t, "p1"))
}

func TestCreateSaleOnce_ReplaysCompletedKey(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Camiseta", 10, "5.00")
	ctx := context.Background()

	first, replayed, err := env.uc.CreateSaleOnce(ctx, "k-1", cartOf(t, "p1", 2))
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := env.uc.CreateSaleOnce(ctx, "k-1", cartOf(t, "p1", 2))
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 8, env.stock(t, "p1"))
}

func TestCreateSaleOnce_InFlightKeyConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Camiseta", 10, "5.00")
	ctx := context.Background()

	state, _, err := env.idem.Reserve(ctx, "sale:k-2", time.Hour)
	require.NoError(t, err)
	require.Equal(t, ports.IdempotencyReserved, state)

	_, _, err = env.uc.CreateSaleOnce(ctx, "k-2", cartOf(t, "p1", 1))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 10, env.stock(t, "p1"))
}

func TestCreateSaleOnce_FailureReleasesKey(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Camiseta", 1, "5.00")
	ctx := context.Background()

	_, _, err := env.uc.CreateSaleOnce(ctx, "k-3", cartOf(t, "p1", 2))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	out, replayed, err := env.uc.CreateSaleOnce(ctx, "k-3", cartOf(t, "p1", 1))
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotEmpty(t, out.ID)
}

func TestUpdateSale_EditsExpensesAndNotesOnly(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Camiseta", 10, "5.00")
	ctx := context.Background()
	sale, err := env.uc.CreateSale(ctx, cartOf(t, "p1", 2))
	require.NoError(t, err)

	exp := decimal.RequireFromString("1.25")
	note := "  entregado  "
	out, err := env.uc.UpdateSale(ctx, sale.ID, dto.UpdateSaleRequest{Items: []dto.UpdateSaleItemRequest{
		{ProductID: "p1", Expenses: &exp, Note: &note},
	}})
	require.NoError(t, err)
	assert.True(t, exp.Equal(out.TotalExpenses))
	assert.Equal(t, "entregado", out.Items[0].Note)
	assert.True(t, decimal.RequireFromString("10").Equal(out.TotalAmount))

	_, err = env.uc.UpdateSale(ctx, sale.ID, dto.UpdateSaleRequest{Items: []dto.UpdateSaleItemRequest{{ProductID: "other"}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	neg := decimal.NewFromInt(-1)
	_, err = env.uc.UpdateSale(ctx, sale.ID, dto.UpdateSaleRequest{Items: []dto.UpdateSaleItemRequest{{ProductID: "p1", Expenses: &neg}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.uc.UpdateSale(ctx, "missing", dto.UpdateSaleRequest{Items: []dto.UpdateSaleItemRequest{{ProductID: "p1"}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListSales_ByDayKeepsSnapshotNames(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Camiseta", 10, "5.00")
	env.seedProduct(t, "p2", "Gorra", 10, "4.00")
	ctx := context.Background()

	_, err := env.uc.CreateSale(ctx, cartOf(t, "p1", 1, "p2", 2))
	require.NoError(t, err)

	p, err := env.products.GetByID(ctx, "p1")
	require.NoError(t, err)
	p.Name = "Camiseta azul"
	require.NoError(t, env.products.Update(ctx, p))

	today, err := env.uc.ListSales(ctx, time.Now().Format("2006-01-02"))
	require.NoError(t, err)
	require.Equal(t, 1, today.Count)
	assert.Equal(t, "Camiseta, Gorra", today.Sales[0].ItemNames)
	assert.Equal(t, "Camiseta", today.Sales[0].Items[0].Name)
	assert.Equal(t, "Camiseta azul", today.Sales[0].Items[0].ProductName)

	other, err := env.uc.ListSales(ctx, "2001-01-01")
	require.NoError(t, err)
	assert.Equal(t, 0, other.Count)
	assert.NotNil(t, other.Sales)

	_, err = env.uc.ListSales(ctx, "01/02/2026")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetSale_RenamedProductKeepsLineName(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Camiseta", 10, "5.00")
	env.seedProduct(t, "p2", "Gorra", 10, "4.00")
	ctx := context.Background()

	created, err := env.uc.CreateSale(ctx, cartOf(t, "p1", 2, "p2", 1))
	require.NoError(t, err)

	p, err := env.products.GetByID(ctx, "p1")
	require.NoError(t, err)
	p.Name = "Camiseta v2"
	require.NoError(t, env.products.Update(ctx, p))
	require.NoError(t, env.products.Delete(ctx, "p2"))

	got, err := env.uc.GetSale(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ItemNames, got.ItemNames)
	require.Len(t, got.Items, 2)
	for i := range got.Items {
		assert.Equal(t, created.Items[i].Name, got.Items[i].Name)
		assert.Equal(t, created.Items[i].Quantity, got.Items[i].Quantity)
		assert.True(t, created.Items[i].TotalAmount.Equal(got.Items[i].TotalAmount))
	}
	byID := map[string]dto.SaleLineResponse{}
	for _, it := range got.Items {
		byID[it.ProductID] = it
	}
	assert.Equal(t, "Camiseta v2", byID["p1"].ProductName)
	assert.Empty(t, byID["p2"].ProductName)
}

func TestListSalesPage(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Camiseta", 10, "5.00")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := env.uc.CreateSale(ctx, cartOf(t, "p1", 1))
		require.NoError(t, err)
	}

	first, err := env.uc.ListSalesPage(ctx, "", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Count)
	assert.Equal(t, 3, first.TotalCount)
	assert.Equal(t, 2, first.TotalPages)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 2, first.PageSize)

	second, err := env.uc.ListSalesPage(ctx, "", 2, 2)
	require.NoError(t, err)
	require.Equal(t, 1, second.Count)
	seen := map[string]bool{first.Sales[0].ID: true, first.Sales[1].ID: true}
	assert.False(t, seen[second.Sales[0].ID])

	beyond, err := env.uc.ListSalesPage(ctx, "", 9, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, beyond.Count)
	assert.NotNil(t, beyond.Sales)

	defaults, err := env.uc.ListSalesPage(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.Page)
	assert.Equal(t, DefaultSalesPageLimit, defaults.PageSize)
	assert.Equal(t, 3, defaults.Count)

	_, err = env.uc.ListSalesPage(ctx, "ayer", 1, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDeleteSale_RestoresStock(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Camiseta", 10, "5.00")
	env.seedProduct(t, "p2", "Gorra", 10, "4.00")
	ctx := context.Background()
	sale, err := env.uc.CreateSale(ctx, cartOf(t, "p1", 3, "p2", 4))
	require.NoError(t, err)

	// Un producto eliminado después de la venta no impide anularla.
	require.NoError(t, env.products.Delete(ctx, "p2"))

	_, err = env.uc.DeleteSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, env.stock(t, "p1"))

	_, err = env.uc.GetSale(ctx, sale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.uc.DeleteSale(ctx, sale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteSale_WithReturnsConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Camiseta", 10, "5.00")
	ctx := context.Background()
	sale, err := env.uc.CreateSale(ctx, cartOf(t, "p1", 3))
	require.NoError(t, err)

	require.NoError(t, env.returns.Create(ctx, &entity.SaleReturn{
		ID: "r1", SaleID: sale.ID, ProductID: "p1", Quantity: 1, ReturnDate: time.Now(),
	}))

	_, err = env.uc.DeleteSale(ctx, sale.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 7, env.stock(t, "p1"))
}

func TestReceipt(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Camiseta", 10, "5.00")
	ctx := context.Background()
	sale, err := env.uc.CreateSale(ctx, cartOf(t, "p1", 1))
	require.NoError(t, err)

	pdf, name, err := env.uc.Receipt(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "venta-"+sale.ID[:8]+".pdf", name)
	assert.Equal(t, "%PDF-"+sale.ID, string(pdf))

	_, _, err = env.uc.Receipt(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, env.receipts.calls)
}
