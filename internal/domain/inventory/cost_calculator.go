package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost costo promedio ponderado tras una entrada de mercancía (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// El resultado se redondea a 2 decimales. Stock negativo se trata como 0.
func WeightedAverageCost(stock int, cost decimal.Decimal, inQty int, inCost decimal.Decimal) decimal.Decimal {
	if stock < 0 {
		stock = 0
	}
	sum := stock + inQty
	if sum <= 0 {
		return decimal.Zero
	}
	num := decimal.NewFromInt(int64(stock)).Mul(cost).
		Add(decimal.NewFromInt(int64(inQty)).Mul(inCost))
	return num.Div(decimal.NewFromInt(int64(sum))).Round(2)
}
