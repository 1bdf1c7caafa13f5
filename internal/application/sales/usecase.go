package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/insanjo-pos/internal/application/dto"
	"github.com/jhoicas/insanjo-pos/internal/application/ports"
	"github.com/jhoicas/insanjo-pos/internal/domain"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
	"github.com/jhoicas/insanjo-pos/internal/domain/repository"
)

const dateLayout = "2006-01-02"

// DefaultSalesPageLimit ventas por página cuando no se envía limit.
const DefaultSalesPageLimit = 5

// SaleUseCase motor de ventas: crea ventas descontando stock de forma atómica,
// edita gastos/notas, lista, elimina revirtiendo stock y genera el comprobante.
type SaleUseCase struct {
	txRunner    ports.TxRunner
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	returnRepo  repository.ReturnRepository
	idempotency ports.IdempotencyStore
	receipts    ReceiptGenerator
	idemTTL     time.Duration
}

// NewSaleUseCase construye el caso de uso inyectando todas sus dependencias.
// idempotency y receipts pueden ser nil (sin deduplicación / sin comprobante).
func NewSaleUseCase(
	txRunner ports.TxRunner,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	returnRepo repository.ReturnRepository,
	idempotency ports.IdempotencyStore,
	receipts ReceiptGenerator,
	idemTTL time.Duration,
) *SaleUseCase {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &SaleUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		saleRepo:    saleRepo,
		returnRepo:  returnRepo,
		idempotency: idempotency,
		receipts:    receipts,
		idemTTL:     idemTTL,
	}
}

// CreateSale registra la venta del carrito en una sola transacción:
//  1. bloquea los productos (SELECT FOR UPDATE, en orden de ID);
//  2. si falta alguno retorna domain.ErrNotFound antes de revisar stock;
//  3. si alguna cantidad supera el stock retorna *domain.InsufficientStockError;
//  4. descuenta stock, copia nombre y precio de venta a cada línea y guarda la venta.
//
// Cualquier error deja el stock y las ventas sin cambios.
func (uc *SaleUseCase) CreateSale(ctx context.Context, cart *Cart) (*dto.SaleResponse, error) {
	if cart == nil || cart.Len() == 0 {
		return nil, domain.NewValidationError("items", "la venta debe tener al menos un producto")
	}
	lines := cart.Lines()
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, domain.NewValidationError("quantity", "debe ser mayor que 0")
		}
		if l.Expenses.IsNegative() {
			return nil, domain.NewValidationError("expenses", "no puede ser negativo")
		}
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	sort.Strings(ids)

	var sale *entity.Sale
	err := uc.txRunner.Run(ctx, func(productRepo repository.ProductRepository, saleRepo repository.SaleRepository, _ repository.ReturnRepository) error {
		locked := make(map[string]*entity.Product, len(ids))
		var missing []string
		for _, id := range ids {
			p, err := productRepo.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if p == nil {
				missing = append(missing, id)
				continue
			}
			locked[id] = p
		}
		if len(missing) > 0 {
			return fmt.Errorf("producto %s: %w", strings.Join(missing, ", "), domain.ErrNotFound)
		}
		for _, l := range lines {
			p := locked[l.ProductID]
			if l.Quantity > p.AvailableStock {
				return &domain.InsufficientStockError{
					ProductID: p.ID,
					Name:      p.Name,
					Available: p.AvailableStock,
					Requested: l.Quantity,
				}
			}
		}

		s := &entity.Sale{
			ID:       uuid.New().String(),
			SaleDate: time.Now(),
			Lines:    make([]entity.SaleLine, 0, len(lines)),
		}
		for _, l := range lines {
			if _, err := productRepo.AdjustStock(ctx, l.ProductID, -l.Quantity); err != nil {
				return err
			}
			p := locked[l.ProductID]
			s.Lines = append(s.Lines, entity.SaleLine{
				ProductID:   p.ID,
				Name:        p.Name,
				Quantity:    l.Quantity,
				Price:       p.SellingPrice,
				TotalAmount: p.SellingPrice.Mul(decimal.NewFromInt(int64(l.Quantity))),
				Expenses:    l.Expenses,
				Note:        l.Note,
			})
		}
		if err := saleRepo.Create(ctx, s); err != nil {
			return err
		}
		sale = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Recién creada, el nombre actual de cada producto es el mismo de la línea.
	names := make(map[string]string, len(sale.Lines))
	for _, l := range sale.Lines {
		names[l.ProductID] = l.Name
	}
	return ToSaleResponse(sale, names), nil
}

// CreateSaleOnce igual que CreateSale pero deduplicado por llave de idempotencia.
// Devuelve replayed=true si la llave ya había producido una venta (se devuelve esa venta).
// Una llave en curso en otro request retorna domain.ErrConflict.
func (uc *SaleUseCase) CreateSaleOnce(ctx context.Context, key string, cart *Cart) (resp *dto.SaleResponse, replayed bool, err error) {
	key = strings.TrimSpace(key)
	if key == "" || uc.idempotency == nil {
		resp, err = uc.CreateSale(ctx, cart)
		return resp, false, err
	}
	storeKey := "sale:" + key
	state, saleID, err := uc.idempotency.Reserve(ctx, storeKey, uc.idemTTL)
	if err != nil {
		return nil, false, fmt.Errorf("idempotencia: %w", err)
	}
	switch state {
	case ports.IdempotencyCompleted:
		resp, err = uc.GetSale(ctx, saleID)
		return resp, true, err
	case ports.IdempotencyInFlight:
		return nil, false, fmt.Errorf("venta con Idempotency-Key %q en curso: %w", key, domain.ErrConflict)
	}

	resp, err = uc.CreateSale(ctx, cart)
	if err != nil {
		if relErr := uc.idempotency.Release(ctx, storeKey); relErr != nil {
			log.Warn().Err(relErr).Str("key", key).Msg("no se pudo liberar la llave de idempotencia")
		}
		return nil, false, err
	}
	if err := uc.idempotency.Complete(ctx, storeKey, resp.ID, uc.idemTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Str("sale_id", resp.ID).Msg("no se pudo guardar la llave de idempotencia")
	}
	return resp, false, nil
}

// UpdateSale edita gastos y notas de las líneas indicadas. Cantidades, precios y totales
// no se pueden modificar por esta vía.
func (uc *SaleUseCase) UpdateSale(ctx context.Context, id string, in dto.UpdateSaleRequest) (*dto.SaleResponse, error) {
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", "no hay cambios para aplicar")
	}
	for i, item := range in.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].productId", i), "es obligatorio")
		}
		if item.Expenses != nil && item.Expenses.IsNegative() {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].expenses", i), "no puede ser negativo")
		}
	}

	var updated *entity.Sale
	err := uc.txRunner.Run(ctx, func(_ repository.ProductRepository, saleRepo repository.SaleRepository, _ repository.ReturnRepository) error {
		sale, err := saleRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		for i, item := range in.Items {
			line := sale.Line(item.ProductID)
			if line == nil {
				return domain.NewValidationError(fmt.Sprintf("items[%d].productId", i), "el producto no pertenece a la venta")
			}
			if item.Expenses != nil {
				line.Expenses = *item.Expenses
			}
			if item.Note != nil {
				line.Note = strings.TrimSpace(*item.Note)
			}
			if err := saleRepo.UpdateLineDetails(ctx, sale.ID, line.ProductID, line.Expenses, line.Note); err != nil {
				return err
			}
		}
		updated = sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.withNames(ctx, updated)
}

// ListSales lista las ventas; date (YYYY-MM-DD, opcional) restringe a ese día en hora local.
func (uc *SaleUseCase) ListSales(ctx context.Context, date string) (*dto.SaleListResponse, error) {
	list, err := uc.salesOfDay(ctx, date)
	if err != nil {
		return nil, err
	}
	return uc.toListResponse(ctx, list, len(list))
}

// ListSalesPage igual que ListSales pero paginado (page base 1). page < 1 se trata como 1 y
// limit <= 0 usa DefaultSalesPageLimit. Una página más allá del final devuelve sales vacío.
func (uc *SaleUseCase) ListSalesPage(ctx context.Context, date string, page, limit int) (*dto.SaleListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultSalesPageLimit
	}
	list, err := uc.salesOfDay(ctx, date)
	if err != nil {
		return nil, err
	}
	total := len(list)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	out, err := uc.toListResponse(ctx, list[start:end], total)
	if err != nil {
		return nil, err
	}
	out.Page = page
	out.PageSize = limit
	out.TotalPages = (total + limit - 1) / limit
	return out, nil
}

func (uc *SaleUseCase) salesOfDay(ctx context.Context, date string) ([]*entity.Sale, error) {
	var from, to *time.Time
	if date = strings.TrimSpace(date); date != "" {
		day, err := time.ParseInLocation(dateLayout, date, time.Local)
		if err != nil {
			return nil, domain.NewValidationError("date", "formato inválido (use YYYY-MM-DD)")
		}
		end := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		from, to = &day, &end
	}
	return uc.saleRepo.List(ctx, from, to)
}

func (uc *SaleUseCase) toListResponse(ctx context.Context, list []*entity.Sale, total int) (*dto.SaleListResponse, error) {
	names, err := uc.productNames(ctx, list...)
	if err != nil {
		return nil, err
	}
	out := &dto.SaleListResponse{Count: len(list), TotalCount: total, Sales: make([]dto.SaleResponse, 0, len(list))}
	for _, s := range list {
		out.Sales = append(out.Sales, *ToSaleResponse(s, names))
	}
	return out, nil
}

// GetSale obtiene una venta por ID. productName trae el nombre actual de cada producto.
func (uc *SaleUseCase) GetSale(ctx context.Context, id string) (*dto.SaleResponse, error) {
	sale, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	return uc.withNames(ctx, sale)
}

// DeleteSale anula la venta devolviendo al stock las unidades no devueltas de cada línea.
// Si la venta ya tiene devoluciones registradas retorna domain.ErrConflict.
// Los productos eliminados después de la venta se omiten.
func (uc *SaleUseCase) DeleteSale(ctx context.Context, id string) (*dto.SaleResponse, error) {
	var deleted *entity.Sale
	err := uc.txRunner.Run(ctx, func(productRepo repository.ProductRepository, saleRepo repository.SaleRepository, returnRepo repository.ReturnRepository) error {
		sale, err := saleRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		n, err := returnRepo.CountBySale(ctx, sale.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("la venta tiene %d devolución(es) registradas: %w", n, domain.ErrConflict)
		}
		lines := append([]entity.SaleLine(nil), sale.Lines...)
		sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
		for _, l := range lines {
			if l.Remaining() <= 0 {
				continue
			}
			if _, err := productRepo.AdjustStock(ctx, l.ProductID, l.Remaining()); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return err
			}
		}
		if err := saleRepo.Delete(ctx, sale.ID); err != nil {
			return err
		}
		deleted = sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(deleted, nil), nil
}

// Receipt genera el comprobante PDF de la venta. Devuelve los bytes y un nombre de archivo sugerido.
func (uc *SaleUseCase) Receipt(ctx context.Context, id string) ([]byte, string, error) {
	if uc.receipts == nil {
		return nil, "", fmt.Errorf("generador de comprobantes no configurado")
	}
	sale, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("comprobante: obtener venta: %w", err)
	}
	if sale == nil {
		return nil, "", domain.ErrNotFound
	}
	pdf, err := uc.receipts.GenerateSaleReceipt(ctx, sale)
	if err != nil {
		return nil, "", err
	}
	short := sale.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return pdf, fmt.Sprintf("venta-%s.pdf", short), nil
}

func (uc *SaleUseCase) withNames(ctx context.Context, sale *entity.Sale) (*dto.SaleResponse, error) {
	names, err := uc.productNames(ctx, sale)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sale, names), nil
}

// productNames nombres actuales de los productos vendidos que aún existen.
func (uc *SaleUseCase) productNames(ctx context.Context, sales ...*entity.Sale) (map[string]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, s := range sales {
		for _, l := range s.Lines {
			if !seen[l.ProductID] {
				seen[l.ProductID] = true
				ids = append(ids, l.ProductID)
			}
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	products, err := uc.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(products))
	for id, p := range products {
		names[id] = p.Name
	}
	return names, nil
}

// ToSaleResponse mapea la venta al DTO. name e itemNames salen siempre de la copia guardada en la
// línea; names solo completa productName con el nombre actual del producto si todavía existe.
func ToSaleResponse(s *entity.Sale, names map[string]string) *dto.SaleResponse {
	out := &dto.SaleResponse{
		ID:            s.ID,
		SaleDate:      s.SaleDate,
		Items:         make([]dto.SaleLineResponse, 0, len(s.Lines)),
		ItemNames:     s.ItemNames(),
		TotalQuantity: s.TotalQuantity(),
		TotalAmount:   s.TotalAmount(),
		TotalExpenses: s.TotalExpenses(),
		TotalReturned: s.TotalReturned(),
	}
	for _, l := range s.Lines {
		out.Items = append(out.Items, dto.SaleLineResponse{
			ProductID:         l.ProductID,
			Name:              l.Name,
			ProductName:       names[l.ProductID],
			Quantity:          l.Quantity,
			Price:             l.Price,
			TotalAmount:       l.TotalAmount,
			Expenses:          l.Expenses,
			Note:              l.Note,
			ReturnedQuantity:  l.ReturnedQuantity,
			RemainingQuantity: l.Remaining(),
		})
	}
	return out
}
