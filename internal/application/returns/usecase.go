package returns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/insanjo-pos/internal/application/dto"
	"github.com/jhoicas/insanjo-pos/internal/application/ports"
	"github.com/jhoicas/insanjo-pos/internal/domain"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
	"github.com/jhoicas/insanjo-pos/internal/domain/repository"
)

// ReturnUseCase motor de devoluciones: revierte parcial o totalmente una línea de venta
// sin acreditar stock dos veces.
type ReturnUseCase struct {
	txRunner    ports.TxRunner
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	returnRepo  repository.ReturnRepository
}

// NewReturnUseCase construye el caso de uso.
func NewReturnUseCase(
	txRunner ports.TxRunner,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	returnRepo repository.ReturnRepository,
) *ReturnUseCase {
	return &ReturnUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		saleRepo:    saleRepo,
		returnRepo:  returnRepo,
	}
}

// CreateReturn registra una devolución. En una sola transacción: bloquea la venta, verifica que
// la cantidad no supere lo pendiente de la línea (quantity - returnedQuantity), incrementa
// returnedQuantity, devuelve las unidades al stock y guarda el registro.
// Errores: domain.ErrNotFound (venta o producto), *domain.ValidationError (producto fuera de la venta),
// *domain.ExceedsAvailableError (cantidad mayor a la pendiente).
func (uc *ReturnUseCase) CreateReturn(ctx context.Context, in dto.CreateReturnRequest) (*dto.ReturnResponse, error) {
	saleID := strings.TrimSpace(in.SaleID)
	productID := strings.TrimSpace(in.ProductID)
	if saleID == "" {
		return nil, domain.NewValidationError("saleId", "es obligatorio")
	}
	if productID == "" {
		return nil, domain.NewValidationError("productId", "es obligatorio")
	}
	if in.ReturnQuantity <= 0 {
		return nil, domain.NewValidationError("returnQuantity", "debe ser mayor que 0")
	}

	var created *entity.SaleReturn
	var saleDate time.Time
	err := uc.txRunner.Run(ctx, func(productRepo repository.ProductRepository, saleRepo repository.SaleRepository, returnRepo repository.ReturnRepository) error {
		sale, err := saleRepo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return fmt.Errorf("venta %s: %w", saleID, domain.ErrNotFound)
		}
		line := sale.Line(productID)
		if line == nil {
			return domain.NewValidationError("productId", "el producto no pertenece a la venta")
		}
		if in.ReturnQuantity > line.Remaining() {
			return &domain.ExceedsAvailableError{
				SaleID:    sale.ID,
				ProductID: productID,
				Remaining: line.Remaining(),
				Requested: in.ReturnQuantity,
			}
		}
		if _, err := saleRepo.AddReturnedQuantity(ctx, sale.ID, productID, in.ReturnQuantity); err != nil {
			return err
		}
		if _, err := productRepo.AdjustStock(ctx, productID, in.ReturnQuantity); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
			}
			return err
		}
		ret := &entity.SaleReturn{
			ID:          uuid.New().String(),
			SaleID:      sale.ID,
			ProductID:   productID,
			Name:        line.Name,
			Price:       line.Price,
			Quantity:    in.ReturnQuantity,
			TotalAmount: line.Price.Mul(decimal.NewFromInt(int64(in.ReturnQuantity))),
			ReturnDate:  time.Now(),
			Note:        strings.TrimSpace(in.Notes),
		}
		if err := returnRepo.Create(ctx, ret); err != nil {
			return err
		}
		created = ret
		saleDate = sale.SaleDate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToReturnResponse(created, "", &saleDate), nil
}

// ListReturns lista todas las devoluciones (más recientes primero) con nombre de producto y fecha de venta.
func (uc *ReturnUseCase) ListReturns(ctx context.Context) (*dto.ReturnListResponse, error) {
	list, err := uc.returnRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	names, saleDates, err := uc.resolve(ctx, list)
	if err != nil {
		return nil, err
	}
	out := &dto.ReturnListResponse{Count: len(list), Returns: make([]dto.ReturnResponse, 0, len(list))}
	for _, r := range list {
		out.Returns = append(out.Returns, *ToReturnResponse(r, names[r.ProductID], saleDates[r.SaleID]))
	}
	return out, nil
}

// GetReturn obtiene una devolución por ID.
func (uc *ReturnUseCase) GetReturn(ctx context.Context, id string) (*dto.ReturnResponse, error) {
	r, err := uc.returnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	names, saleDates, err := uc.resolve(ctx, []*entity.SaleReturn{r})
	if err != nil {
		return nil, err
	}
	return ToReturnResponse(r, names[r.ProductID], saleDates[r.SaleID]), nil
}

// DeleteReturn anula una devolución: resta la cantidad de returnedQuantity de la línea y retira
// esas unidades del stock. Si ya se vendieron (stock insuficiente) retorna *domain.InsufficientStockError
// y no cambia nada. Si el producto fue eliminado, solo se corrige la venta.
func (uc *ReturnUseCase) DeleteReturn(ctx context.Context, id string) (*dto.ReturnResponse, error) {
	var deleted *entity.SaleReturn
	err := uc.txRunner.Run(ctx, func(productRepo repository.ProductRepository, saleRepo repository.SaleRepository, returnRepo repository.ReturnRepository) error {
		r, err := returnRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if r == nil {
			return domain.ErrNotFound
		}
		sale, err := saleRepo.GetForUpdate(ctx, r.SaleID)
		if err != nil {
			return err
		}
		// Borrar primero: una anulación concurrente de la misma devolución falla aquí con ErrNotFound.
		if err := returnRepo.Delete(ctx, r.ID); err != nil {
			return err
		}
		if sale != nil && sale.Line(r.ProductID) != nil {
			if _, err := saleRepo.AddReturnedQuantity(ctx, r.SaleID, r.ProductID, -r.Quantity); err != nil {
				return err
			}
		}
		if _, err := productRepo.AdjustStock(ctx, r.ProductID, -r.Quantity); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		deleted = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToReturnResponse(deleted, "", nil), nil
}

// resolve nombres actuales de producto y fechas de venta para un conjunto de devoluciones.
func (uc *ReturnUseCase) resolve(ctx context.Context, list []*entity.SaleReturn) (map[string]string, map[string]*time.Time, error) {
	var productIDs []string
	seen := make(map[string]bool)
	saleDates := make(map[string]*time.Time)
	for _, r := range list {
		if !seen[r.ProductID] {
			seen[r.ProductID] = true
			productIDs = append(productIDs, r.ProductID)
		}
		if _, ok := saleDates[r.SaleID]; ok {
			continue
		}
		sale, err := uc.saleRepo.GetByID(ctx, r.SaleID)
		if err != nil {
			return nil, nil, err
		}
		saleDates[r.SaleID] = nil
		if sale != nil {
			d := sale.SaleDate
			saleDates[r.SaleID] = &d
		}
	}
	names := make(map[string]string)
	if len(productIDs) > 0 {
		products, err := uc.productRepo.GetByIDs(ctx, productIDs)
		if err != nil {
			return nil, nil, err
		}
		for id, p := range products {
			names[id] = p.Name
		}
	}
	return names, saleDates, nil
}

// ToReturnResponse mapea la devolución al DTO. name vacío usa el nombre copiado de la venta.
func ToReturnResponse(r *entity.SaleReturn, name string, saleDate *time.Time) *dto.ReturnResponse {
	if name == "" {
		name = r.Name
	}
	return &dto.ReturnResponse{
		ID:             r.ID,
		SaleID:         r.SaleID,
		ProductID:      r.ProductID,
		ProductName:    name,
		Price:          r.Price,
		ReturnQuantity: r.Quantity,
		TotalAmount:    r.TotalAmount,
		ReturnDate:     r.ReturnDate,
		Notes:          r.Note,
		SaleDate:       saleDate,
	}
}
