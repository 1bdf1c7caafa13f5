package http

import (
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/insanjo-pos/internal/application/dto"
	"github.com/jhoicas/insanjo-pos/internal/application/inventory"
	"github.com/jhoicas/insanjo-pos/internal/domain"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
)

const productImageField = "productImage"

// ProductHandler maneja las peticiones HTTP para Product.
type ProductHandler struct {
	uc *inventory.ProductUseCase
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *inventory.ProductUseCase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// Create godoc
// @Summary      Crear producto
// @Description  Acepta JSON o multipart/form-data (campo productImage: png/jpeg, máx. 1 MB).
// @Tags         products
// @Accept       json,mpfd
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /product [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.UpdateProductRequest
	var img *inventory.ImageUpload
	if isMultipart(c) {
		var closeFn func()
		var err error
		in, img, closeFn, err = parseProductForm(c)
		if err != nil {
			return writeError(c, err)
		}
		defer closeFn()
	} else if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	create := dto.CreateProductRequest{
		Name:           in.Name,
		AvailableStock: in.AvailableStock,
		PurchasePrice:  in.PurchasePrice,
		SellingPrice:   in.SellingPrice,
		StockDate:      in.StockDate,
	}
	if in.Description != nil {
		create.Description = *in.Description
	}
	out, err := h.uc.Create(c.UserContext(), create, img)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /product/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar productos
// @Tags         products
// @Produce      json
// @Param        limit   query  int     false  "Límite"                      default(7)
// @Param        skip    query  int     false  "Registros a omitir"          default(0)
// @Param        search  query  string  false  "Texto en nombre o descripción"
// @Param        filter  query  int     false  "Stock disponible exacto"
// @Success      200     {object}  dto.ProductListResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /product [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 0), Skip: c.QueryInt("skip", 0)}
	filter := entity.ProductFilter{Search: c.Query("search")}
	if raw := strings.TrimSpace(c.Query("filter")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return writeError(c, domain.NewValidationError("filter", "debe ser un número entero"))
		}
		filter.Stock = &n
	}
	out, err := h.uc.List(c.UserContext(), filter, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Search godoc
// @Summary      Buscar productos
// @Description  Devuelve todos los productos cuyo nombre o descripción contiene el texto (sin paginar).
// @Tags         products
// @Produce      json
// @Param        search  query  string  false  "Texto a buscar"
// @Success      200     {object}  dto.ProductListResponse
// @Router       /product/search [get]
func (h *ProductHandler) Search(c *fiber.Ctx) error {
	out, err := h.uc.Search(c.UserContext(), c.Query("search"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar producto
// @Description  Solo se modifican los campos enviados. Acepta JSON o multipart/form-data.
// @Tags         products
// @Accept       json,mpfd
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.UpdateProductRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /product/{id} [patch]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateProductRequest
	var img *inventory.ImageUpload
	if isMultipart(c) {
		var closeFn func()
		var err error
		in, img, closeFn, err = parseProductForm(c)
		if err != nil {
			return writeError(c, err)
		}
		defer closeFn()
	} else if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in, img)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AdjustStock godoc
// @Summary      Ajustar stock
// @Description  Suma delta al stock disponible (negativo resta). Nunca deja el stock negativo.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.AdjustStockRequest  true  "Delta"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /product/{id}/stock [post]
func (h *ProductHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.AdjustStock(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar producto
// @Tags         products
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /product/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	out, err := h.uc.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Image godoc
// @Summary      Imagen del producto
// @Tags         products
// @Produce      png,jpeg
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /product/{id}/image [get]
func (h *ProductHandler) Image(c *fiber.Ctx) error {
	data, contentType, err := h.uc.Image(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.Send(data)
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// parseProductForm lee los campos del formulario multipart. Solo se asignan los campos presentes.
// closeFn cierra el archivo de imagen (si lo hay) y debe llamarse al terminar.
func parseProductForm(c *fiber.Ctx) (dto.UpdateProductRequest, *inventory.ImageUpload, func(), error) {
	var in dto.UpdateProductRequest
	noop := func() {}
	form, err := c.MultipartForm()
	if err != nil {
		return in, nil, noop, domain.NewValidationError("", "formulario multipart inválido")
	}
	value := func(key string) (string, bool) {
		v, ok := form.Value[key]
		if !ok || len(v) == 0 {
			return "", false
		}
		return strings.TrimSpace(v[0]), true
	}

	if v, ok := value("name"); ok {
		in.Name = &v
	}
	if v, ok := value("description"); ok {
		in.Description = &v
	}
	if v, ok := value("stockDate"); ok {
		in.StockDate = &v
	}
	if v, ok := value("availableStock"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return in, nil, noop, domain.NewValidationError("availableStock", "debe ser un número entero")
		}
		in.AvailableStock = &n
	}
	for _, f := range []struct {
		key string
		dst **decimal.Decimal
	}{{"purchasePrice", &in.PurchasePrice}, {"sellingPrice", &in.SellingPrice}} {
		v, ok := value(f.key)
		if !ok {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return in, nil, noop, domain.NewValidationError(f.key, "debe ser un número")
		}
		*f.dst = &d
	}

	files := form.File[productImageField]
	if len(files) == 0 {
		return in, nil, noop, nil
	}
	img, file, err := openImage(files[0])
	if err != nil {
		return in, nil, noop, err
	}
	return in, img, func() { _ = file.Close() }, nil
}

func openImage(fh *multipart.FileHeader) (*inventory.ImageUpload, multipart.File, error) {
	if fh.Size > inventory.MaxImageSize {
		return nil, nil, domain.NewValidationError(productImageField, "la imagen supera 1 MB")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, domain.NewValidationError(productImageField, "no se pudo leer la imagen")
	}
	return &inventory.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Content:     f,
	}, f, nil
}
