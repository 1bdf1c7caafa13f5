package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeedEntryResponse fila del historial combinado de ventas y devoluciones.
type FeedEntryResponse struct {
	Kind          string          `json:"kind"`
	ID            string          `json:"id"`
	Date          time.Time       `json:"date"`
	DisplayName   string          `json:"displayName"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

// FeedPageResponse página del historial combinado.
type FeedPageResponse struct {
	Entries    []FeedEntryResponse `json:"entries"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"pageSize"`
	TotalPages int                 `json:"totalPages"`
	TotalCount int                 `json:"totalCount"`
}

// PeriodMetrics cifras de un periodo: ventas brutas, devoluciones, gastos y neto (ventas - devoluciones - gastos).
type PeriodMetrics struct {
	Sales     int             `json:"sales"`
	UnitsSold int             `json:"unitsSold"`
	Revenue   decimal.Decimal `json:"revenue"`
	Returned  decimal.Decimal `json:"returned"`
	Expenses  decimal.Decimal `json:"expenses"`
	Net       decimal.Decimal `json:"net"`
}

// TopProductResponse producto más vendido del mes (unidades netas de devoluciones).
type TopProductResponse struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Units     int             `json:"units"`
	Amount    decimal.Decimal `json:"amount"`
}

// DashboardSummaryResponse resumen del día y del mes en curso.
type DashboardSummaryResponse struct {
	Today       PeriodMetrics        `json:"today"`
	Month       PeriodMetrics        `json:"month"`
	TopProducts []TopProductResponse `json:"topProducts"`
	DateLabel   string               `json:"dateLabel"`
}
