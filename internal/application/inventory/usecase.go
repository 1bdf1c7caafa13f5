package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/insanjo-pos/internal/application/dto"
	"github.com/jhoicas/insanjo-pos/internal/application/ports"
	"github.com/jhoicas/insanjo-pos/internal/domain"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
	costing "github.com/jhoicas/insanjo-pos/internal/domain/inventory"
	"github.com/jhoicas/insanjo-pos/internal/domain/repository"
)

const stockDateLayout = "2006-01-02"

// ProductUseCase casos de uso del inventario: CRUD de productos, ajuste de stock e imágenes.
type ProductUseCase struct {
	txRunner     ports.TxRunner
	repo         repository.ProductRepository
	images       ports.ImageStore
	defaultLimit int
}

// NewProductUseCase construye el caso de uso. defaultLimit se aplica a listados sin limit.
func NewProductUseCase(txRunner ports.TxRunner, repo repository.ProductRepository, images ports.ImageStore, defaultLimit int) *ProductUseCase {
	if defaultLimit <= 0 {
		defaultLimit = 7
	}
	return &ProductUseCase{txRunner: txRunner, repo: repo, images: images, defaultLimit: defaultLimit}
}

// Create valida y crea un producto; si viene imagen la guarda en el ImageStore.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest, img *ImageUpload) (*dto.ProductResponse, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, domain.NewValidationError("name", "es obligatorio")
	}
	if in.SellingPrice == nil {
		return nil, domain.NewValidationError("sellingPrice", "es obligatorio")
	}
	if in.PurchasePrice == nil {
		return nil, domain.NewValidationError("purchasePrice", "es obligatorio")
	}
	if in.AvailableStock == nil {
		return nil, domain.NewValidationError("availableStock", "es obligatorio")
	}
	if err := validatePrices(in.PurchasePrice, in.SellingPrice); err != nil {
		return nil, err
	}
	if err := validateStock(*in.AvailableStock); err != nil {
		return nil, err
	}
	stockDate, err := parseStockDate(in.StockDate)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	product := &entity.Product{
		ID:             uuid.New().String(),
		Name:           strings.TrimSpace(*in.Name),
		Description:    in.Description,
		AvailableStock: *in.AvailableStock,
		PurchasePrice:  *in.PurchasePrice,
		SellingPrice:   *in.SellingPrice,
		StockDate:      stockDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if img != nil {
		ref, err := uc.storeImage(ctx, product.ID, img)
		if err != nil {
			return nil, err
		}
		product.ImageRef = ref
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		uc.discardImage(ctx, product.ImageRef)
		return nil, err
	}
	return ToProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return ToProductResponse(product), nil
}

// List lista productos con filtro opcional (search en nombre/descripción, stock exacto) y paginación.
func (uc *ProductUseCase) List(ctx context.Context, filter entity.ProductFilter, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage(uc.defaultLimit)
	list, total, err := uc.repo.List(ctx, filter, page.Limit, page.Skip)
	if err != nil {
		return nil, err
	}
	out := &dto.ProductListResponse{
		Count:      len(list),
		Products:   make([]dto.ProductResponse, 0, len(list)),
		TotalCount: total,
	}
	for _, p := range list {
		out.Products = append(out.Products, *ToProductResponse(p))
	}
	return out, nil
}

// Search devuelve todos los productos cuyo nombre o descripción contiene query (sin paginar).
func (uc *ProductUseCase) Search(ctx context.Context, query string) (*dto.ProductListResponse, error) {
	list, err := uc.repo.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	out := &dto.ProductListResponse{
		Count:      len(list),
		Products:   make([]dto.ProductResponse, 0, len(list)),
		TotalCount: len(list),
	}
	for _, p := range list {
		out.Products = append(out.Products, *ToProductResponse(p))
	}
	return out, nil
}

// Update aplica solo los campos presentes en in. El producto se bloquea durante la actualización
// para no pisar decrementos de stock concurrentes.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest, img *ImageUpload) (*dto.ProductResponse, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, domain.NewValidationError("name", "no puede estar vacío")
	}
	if err := validatePrices(in.PurchasePrice, in.SellingPrice); err != nil {
		return nil, err
	}
	if in.AvailableStock != nil {
		if err := validateStock(*in.AvailableStock); err != nil {
			return nil, err
		}
	}
	var stockDate *time.Time
	if in.StockDate != nil {
		var err error
		if stockDate, err = parseStockDate(in.StockDate); err != nil {
			return nil, err
		}
	}

	newRef := ""
	if img != nil {
		// Se valida y sube antes de abrir la transacción; si algo falla se descarta.
		if _, err := uc.GetByID(ctx, id); err != nil {
			return nil, err
		}
		ref, err := uc.storeImage(ctx, id, img)
		if err != nil {
			return nil, err
		}
		newRef = ref
	}

	var updated *entity.Product
	var oldRef string
	err := uc.txRunner.Run(ctx, func(productRepo repository.ProductRepository, _ repository.SaleRepository, _ repository.ReturnRepository) error {
		product, err := productRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		if in.Name != nil {
			product.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			product.Description = *in.Description
		}
		if in.AvailableStock != nil {
			product.AvailableStock = *in.AvailableStock
		}
		if in.PurchasePrice != nil {
			product.PurchasePrice = *in.PurchasePrice
		}
		if in.SellingPrice != nil {
			product.SellingPrice = *in.SellingPrice
		}
		if in.StockDate != nil {
			product.StockDate = stockDate
		}
		if newRef != "" {
			oldRef = product.ImageRef
			product.ImageRef = newRef
		}
		product.UpdatedAt = time.Now()
		if err := productRepo.Update(ctx, product); err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		uc.discardImage(ctx, newRef)
		return nil, err
	}
	uc.discardImage(ctx, oldRef)
	return ToProductResponse(updated), nil
}

// AdjustStock suma delta al stock disponible de forma atómica.
// Retorna *domain.InsufficientStockError si el resultado quedaría negativo.
// Con UnitCost en una entrada, el precio de compra pasa a ser el costo promedio ponderado.
func (uc *ProductUseCase) AdjustStock(ctx context.Context, id string, in dto.AdjustStockRequest) (*dto.ProductResponse, error) {
	if in.Delta == 0 {
		return nil, domain.NewValidationError("delta", "debe ser distinto de cero")
	}
	if in.Delta > entity.MaxQuantity || in.Delta < -entity.MaxQuantity {
		return nil, domain.NewValidationError("delta", fmt.Sprintf("debe estar entre %d y %d", -entity.MaxQuantity, entity.MaxQuantity))
	}
	if in.UnitCost == nil {
		if _, err := uc.repo.AdjustStock(ctx, id, in.Delta); err != nil {
			return nil, err
		}
		return uc.GetByID(ctx, id)
	}
	if in.Delta < 0 {
		return nil, domain.NewValidationError("unitCost", "solo aplica a entradas de mercancía")
	}
	if in.UnitCost.IsNegative() {
		return nil, domain.NewValidationError("unitCost", "no puede ser negativo")
	}

	var updated *entity.Product
	err := uc.txRunner.Run(ctx, func(productRepo repository.ProductRepository, _ repository.SaleRepository, _ repository.ReturnRepository) error {
		product, err := productRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		if product.AvailableStock+in.Delta > entity.MaxQuantity {
			return domain.NewValidationError("delta", "el stock resultante supera el máximo permitido")
		}
		product.PurchasePrice = costing.WeightedAverageCost(product.AvailableStock, product.PurchasePrice, in.Delta, *in.UnitCost)
		product.AvailableStock += in.Delta
		product.UpdatedAt = time.Now()
		if err := productRepo.Update(ctx, product); err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToProductResponse(updated), nil
}

// Delete elimina el producto y, si tenía, su imagen. Las ventas conservan su copia de nombre y precio.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	uc.discardImage(ctx, product.ImageRef)
	return ToProductResponse(product), nil
}

// Image devuelve el contenido de la imagen del producto y su Content-Type.
func (uc *ProductUseCase) Image(ctx context.Context, id string) ([]byte, string, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if product == nil || product.ImageRef == "" {
		return nil, "", domain.ErrNotFound
	}
	data, contentType, err := uc.images.Get(ctx, product.ImageRef)
	if err != nil {
		if errors.Is(err, ports.ErrImageNotFound) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", err
	}
	return data, contentType, nil
}

func (uc *ProductUseCase) storeImage(ctx context.Context, productID string, img *ImageUpload) (string, error) {
	if uc.images == nil {
		return "", fmt.Errorf("almacén de imágenes no configurado")
	}
	data, contentType, err := img.read()
	if err != nil {
		return "", err
	}
	ref := fmt.Sprintf("product-%s-%s", productID, uuid.New().String()[:8])
	if err := uc.images.Put(ctx, ref, contentType, imageReader(data)); err != nil {
		return "", fmt.Errorf("guardar imagen: %w", err)
	}
	return ref, nil
}

// discardImage borra una imagen sin propagar el error (solo se registra).
func (uc *ProductUseCase) discardImage(ctx context.Context, ref string) {
	if ref == "" || uc.images == nil {
		return
	}
	if err := uc.images.Delete(ctx, ref); err != nil && !errors.Is(err, ports.ErrImageNotFound) {
		log.Warn().Err(err).Str("image", ref).Msg("no se pudo eliminar la imagen")
	}
}

func validateStock(n int) error {
	if n < 0 {
		return domain.NewValidationError("availableStock", "no puede ser negativo")
	}
	if n > entity.MaxQuantity {
		return domain.NewValidationError("availableStock", fmt.Sprintf("no puede superar %d", entity.MaxQuantity))
	}
	return nil
}

func validatePrices(purchase, selling *decimal.Decimal) error {
	if purchase != nil && purchase.IsNegative() {
		return domain.NewValidationError("purchasePrice", "no puede ser negativo")
	}
	if selling != nil && selling.IsNegative() {
		return domain.NewValidationError("sellingPrice", "no puede ser negativo")
	}
	return nil
}

// parseStockDate acepta YYYY-MM-DD (hora local) o RFC3339. nil o vacío = sin fecha.
func parseStockDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	raw := strings.TrimSpace(*s)
	if t, err := time.ParseInLocation(stockDateLayout, raw, time.Local); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	return nil, domain.NewValidationError("stockDate", "formato inválido (use YYYY-MM-DD)")
}

// ToProductResponse mapea la entidad al DTO de salida.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	out := &dto.ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		AvailableStock: p.AvailableStock,
		PurchasePrice:  p.PurchasePrice,
		SellingPrice:   p.SellingPrice,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.StockDate != nil {
		d := p.StockDate.Format(stockDateLayout)
		out.StockDate = &d
	}
	if p.ImageRef != "" {
		out.ImageURL = "/product/" + p.ID + "/image"
	}
	return out
}
