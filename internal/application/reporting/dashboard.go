package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/insanjo-pos/internal/application/dto"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
	"github.com/jhoicas/insanjo-pos/internal/domain/repository"
)

const dashboardTopProducts = 5

// DashboardUseCase genera el resumen del día y del mes en curso a partir de ventas y devoluciones.
type DashboardUseCase struct {
	saleRepo   repository.SaleRepository
	returnRepo repository.ReturnRepository
	now        func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(saleRepo repository.SaleRepository, returnRepo repository.ReturnRepository) *DashboardUseCase {
	return &DashboardUseCase{saleRepo: saleRepo, returnRepo: returnRepo, now: time.Now}
}

// GetSummary consulta en paralelo las ventas del día, las del mes y las devoluciones.
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardSummaryResponse, error) {
	now := uc.now()

	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	type salesResult struct {
		sales []*entity.Sale
		err   error
	}
	type returnsResult struct {
		returns []*entity.SaleReturn
		err     error
	}

	todayCh := make(chan salesResult, 1)
	monthCh := make(chan salesResult, 1)
	returnsCh := make(chan returnsResult, 1)

	go func() {
		s, err := uc.saleRepo.List(ctx, &todayStart, &todayEnd)
		todayCh <- salesResult{s, err}
	}()
	go func() {
		s, err := uc.saleRepo.List(ctx, &monthStart, &todayEnd)
		monthCh <- salesResult{s, err}
	}()
	go func() {
		r, err := uc.returnRepo.List(ctx)
		returnsCh <- returnsResult{r, err}
	}()

	today := <-todayCh
	month := <-monthCh
	rets := <-returnsCh

	if today.err != nil {
		return nil, fmt.Errorf("dashboard: ventas de hoy: %w", today.err)
	}
	if month.err != nil {
		return nil, fmt.Errorf("dashboard: ventas del mes: %w", month.err)
	}
	if rets.err != nil {
		return nil, fmt.Errorf("dashboard: devoluciones: %w", rets.err)
	}

	return &dto.DashboardSummaryResponse{
		Today:       periodMetrics(today.sales, returnsBetween(rets.returns, todayStart, todayEnd)),
		Month:       periodMetrics(month.sales, returnsBetween(rets.returns, monthStart, todayEnd)),
		TopProducts: topProducts(month.sales, returnsBetween(rets.returns, monthStart, todayEnd), dashboardTopProducts),
		DateLabel:   monthLabel(now),
	}, nil
}

func returnsBetween(returns []*entity.SaleReturn, from, to time.Time) []*entity.SaleReturn {
	var out []*entity.SaleReturn
	for _, r := range returns {
		if !r.ReturnDate.Before(from) && !r.ReturnDate.After(to) {
			out = append(out, r)
		}
	}
	return out
}

func periodMetrics(sales []*entity.Sale, returns []*entity.SaleReturn) dto.PeriodMetrics {
	m := dto.PeriodMetrics{
		Sales:    len(sales),
		Revenue:  decimal.Zero,
		Returned: decimal.Zero,
		Expenses: decimal.Zero,
	}
	for _, s := range sales {
		m.UnitsSold += s.TotalQuantity()
		m.Revenue = m.Revenue.Add(s.TotalAmount())
		m.Expenses = m.Expenses.Add(s.TotalExpenses())
	}
	for _, r := range returns {
		m.Returned = m.Returned.Add(r.TotalAmount)
	}
	m.Revenue = m.Revenue.Round(2)
	m.Returned = m.Returned.Round(2)
	m.Expenses = m.Expenses.Round(2)
	m.Net = m.Revenue.Sub(m.Returned).Sub(m.Expenses)
	return m
}

// topProducts agrupa por producto las unidades vendidas menos las devueltas en el periodo.
// Orden: unidades desc, monto desc, productId asc.
func topProducts(sales []*entity.Sale, returns []*entity.SaleReturn, limit int) []dto.TopProductResponse {
	acc := make(map[string]*dto.TopProductResponse)
	get := func(id, name string) *dto.TopProductResponse {
		t, ok := acc[id]
		if !ok {
			t = &dto.TopProductResponse{ProductID: id, Name: name, Amount: decimal.Zero}
			acc[id] = t
		}
		return t
	}
	for _, s := range sales {
		for _, l := range s.Lines {
			t := get(l.ProductID, l.Name)
			t.Units += l.Quantity
			t.Amount = t.Amount.Add(l.TotalAmount)
		}
	}
	for _, r := range returns {
		t := get(r.ProductID, r.Name)
		t.Units -= r.Quantity
		t.Amount = t.Amount.Sub(r.TotalAmount)
	}

	out := make([]dto.TopProductResponse, 0, len(acc))
	for _, t := range acc {
		if t.Units > 0 {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Units != out[j].Units {
			return out[i].Units > out[j].Units
		}
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
