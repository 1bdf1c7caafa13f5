package reporting

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/insanjo-pos/internal/application/dto"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
	"github.com/jhoicas/insanjo-pos/internal/domain/repository"
)

// Tipos de fila del historial.
const (
	KindSale   = "sale"
	KindReturn = "return"
)

// FeedEntry fila del historial combinado de ventas y devoluciones.
type FeedEntry struct {
	Kind          string
	ID            string
	Date          time.Time
	DisplayName   string
	TotalQuantity int
	TotalAmount   decimal.Decimal
}

// Merge combina ventas y devoluciones en orden descendente por fecha.
// Empates: venta antes que devolución y luego ID ascendente, así el orden es determinista.
func Merge(sales []*entity.Sale, returns []*entity.SaleReturn) []FeedEntry {
	entries := make([]FeedEntry, 0, len(sales)+len(returns))
	for _, s := range sales {
		entries = append(entries, FeedEntry{
			Kind:          KindSale,
			ID:            s.ID,
			Date:          s.SaleDate,
			DisplayName:   s.ItemNames(),
			TotalQuantity: s.TotalQuantity(),
			TotalAmount:   s.TotalAmount(),
		})
	}
	for _, r := range returns {
		entries = append(entries, FeedEntry{
			Kind:          KindReturn,
			ID:            r.ID,
			Date:          r.ReturnDate,
			DisplayName:   r.Name,
			TotalQuantity: r.Quantity,
			TotalAmount:   r.TotalAmount,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.Kind != b.Kind {
			return a.Kind == KindSale
		}
		return a.ID < b.ID
	})
	return entries
}

// FeedUseCase vista de reportes: historial combinado y su paginación de tamaño fijo.
type FeedUseCase struct {
	saleRepo   repository.SaleRepository
	returnRepo repository.ReturnRepository
	pageSize   int
}

// NewFeedUseCase construye el caso de uso. pageSize <= 0 usa 5.
func NewFeedUseCase(saleRepo repository.SaleRepository, returnRepo repository.ReturnRepository, pageSize int) *FeedUseCase {
	if pageSize <= 0 {
		pageSize = 5
	}
	return &FeedUseCase{saleRepo: saleRepo, returnRepo: returnRepo, pageSize: pageSize}
}

// MergedFeed devuelve todas las ventas y devoluciones combinadas y ordenadas.
func (uc *FeedUseCase) MergedFeed(ctx context.Context) ([]FeedEntry, error) {
	sales, err := uc.saleRepo.List(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	returns, err := uc.returnRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return Merge(sales, returns), nil
}

// Page devuelve la página pedida (base 1) del historial combinado. page < 1 se trata como 1;
// una página más allá del final devuelve entries vacío.
func (uc *FeedUseCase) Page(ctx context.Context, page int) (*dto.FeedPageResponse, error) {
	entries, err := uc.MergedFeed(ctx)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	total := len(entries)
	out := &dto.FeedPageResponse{
		Entries:    []dto.FeedEntryResponse{},
		Page:       page,
		PageSize:   uc.pageSize,
		TotalPages: (total + uc.pageSize - 1) / uc.pageSize,
		TotalCount: total,
	}
	start := (page - 1) * uc.pageSize
	if start >= total {
		return out, nil
	}
	end := start + uc.pageSize
	if end > total {
		end = total
	}
	for _, e := range entries[start:end] {
		out.Entries = append(out.Entries, dto.FeedEntryResponse{
			Kind:          e.Kind,
			ID:            e.ID,
			Date:          e.Date,
			DisplayName:   e.DisplayName,
			TotalQuantity: e.TotalQuantity,
			TotalAmount:   e.TotalAmount,
		})
	}
	return out, nil
}
