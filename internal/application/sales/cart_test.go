package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/insanjo-pos/internal/application/dto"
	"github.com/jhoicas/insanjo-pos/internal/domain"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
)

func TestCart_AddMergesSameProduct(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.Add("p1", 2, decimal.NewFromInt(1), "envío"))
	require.NoError(t, c.Add("p2", 1, decimal.Zero, ""))
	require.NoError(t, c.Add("p1", 3, decimal.RequireFromString("0.50"), "bolsa"))

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].ProductID)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("1.50").Equal(lines[0].Expenses))
	assert.Equal(t, "envío; bolsa", lines[0].Note)
	assert.Equal(t, 2, c.Len())
}

func TestCart_AddValidation(t *testing.T) {
	c := NewCart()
	assert.ErrorIs(t, c.Add("", 1, decimal.Zero, ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, c.Add("p1", 0, decimal.Zero, ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, c.Add("p1", 1, decimal.NewFromInt(-1), ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, c.Add("p1", entity.MaxQuantity+1, decimal.Zero, ""), domain.ErrInvalidInput)
	assert.Equal(t, 0, c.Len())

	require.NoError(t, c.Add("p1", entity.MaxQuantity, decimal.Zero, ""))
	assert.ErrorIs(t, c.Add("p1", 1, decimal.Zero, ""), domain.ErrInvalidInput)
	assert.Equal(t, entity.MaxQuantity, c.Lines()[0].Quantity)
}

func TestCart_RemoveAndClear(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.Add("a", 1, decimal.Zero, ""))
	require.NoError(t, c.Add("b", 1, decimal.Zero, ""))
	require.NoError(t, c.Add("c", 1, decimal.Zero, ""))

	assert.True(t, c.Remove("b"))
	assert.False(t, c.Remove("b"))

	// El índice se reubica: agregar "c" de nuevo suma sobre la línea existente.
	require.NoError(t, c.Add("c", 2, decimal.Zero, ""))
	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "c", lines[1].ProductID)
	assert.Equal(t, 3, lines[1].Quantity)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	require.NoError(t, c.Add("a", 1, decimal.Zero, ""))
	assert.Equal(t, 1, c.Len())
}

func TestCart_LinesReturnsCopy(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.Add("a", 1, decimal.Zero, ""))
	lines := c.Lines()
	lines[0].Quantity = 99
	assert.Equal(t, 1, c.Lines()[0].Quantity)
}

func TestCartFromRequest(t *testing.T) {
	exp := decimal.NewFromInt(2)
	cart, err := CartFromRequest(dto.CreateSaleRequest{Items: []dto.SaleItemRequest{
		{ProductID: "a", Quantity: 1, Expenses: &exp},
		{ProductID: "a", Quantity: 2},
	}})
	require.NoError(t, err)
	require.Equal(t, 1, cart.Len())
	assert.Equal(t, 3, cart.Lines()[0].Quantity)

	_, err = CartFromRequest(dto.CreateSaleRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = CartFromRequest(dto.CreateSaleRequest{Items: []dto.SaleItemRequest{
		{ProductID: "a", Quantity: 1},
		{ProductID: "b", Quantity: -1},
	}})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items[1].quantity", verr.Field)
}
