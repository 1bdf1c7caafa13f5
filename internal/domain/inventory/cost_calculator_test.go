package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWeightedAverageCost(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name   string
		stock  int
		cost   string
		inQty  int
		inCost string
		want   string
	}{
		{"sin stock previo", 0, "0", 10, "3.50", "3.5"},
		{"mismo costo", 5, "2.00", 5, "2.00", "2"},
		{"promedio", 10, "3.00", 10, "4.00", "3.5"},
		{"redondeo", 3, "1.00", 1, "2.00", "1.25"},
		{"periódico", 2, "1.00", 1, "1.00", "1"},
		{"stock negativo", -4, "9.00", 2, "5.00", "5"},
		{"sin unidades", 0, "1.00", 0, "2.00", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightedAverageCost(tt.stock, d(tt.cost), tt.inQty, d(tt.inCost))
			assert.True(t, d(tt.want).Equal(got), "got %s", got)
		})
	}
}
