package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/insanjo-pos/internal/application/dto"
	"github.com/jhoicas/insanjo-pos/internal/application/inventory"
	"github.com/jhoicas/insanjo-pos/internal/application/reporting"
	"github.com/jhoicas/insanjo-pos/internal/application/returns"
	"github.com/jhoicas/insanjo-pos/internal/application/sales"
	"github.com/jhoicas/insanjo-pos/internal/infrastructure/blob"
	"github.com/jhoicas/insanjo-pos/internal/infrastructure/idempotency"
	"github.com/jhoicas/insanjo-pos/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/insanjo-pos/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/insanjo-pos/internal/interfaces/http"
	"github.com/jhoicas/insanjo-pos/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// buildTestApp arma la API completa sobre el almacenamiento en memoria.
func buildTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	txRunner := memory.NewTxRunner(store)
	products := memory.NewProductRepository(store)
	salesRepo := memory.NewSaleRepository(store)
	returnsRepo := memory.NewReturnRepository(store)
	images := blob.NewMemoryStore()

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ProductUC: inventory.NewProductUseCase(txRunner, products, images, 7),
		SaleUC: sales.NewSaleUseCase(txRunner, products, salesRepo, returnsRepo,
			idempotency.NewMemoryStore(), infrapdf.NewMarotoReceiptGenerator("Insanjo"), time.Hour),
		ReturnUC:    returns.NewReturnUseCase(txRunner, products, salesRepo, returnsRepo),
		FeedUC:      reporting.NewFeedUseCase(salesRepo, returnsRepo, 5),
		DashboardUC: reporting.NewDashboardUseCase(salesRepo, returnsRepo),
		Logger:      logger.Nop(),
		Storage:     "memory",
		Images:      images,
	})
	return app
}

// doRequest envía body como JSON (si no es nil) y devuelve la respuesta.
func doRequest(t *testing.T, app *fiber.App, method, path string, body any, headers ...string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createProduct(t *testing.T, app *fiber.App, name string, stock int, price string) dto.ProductResponse {
	t.Helper()
	resp := doRequest(t, app, http.MethodPost, "/product", map[string]any{
		"name":           name,
		"availableStock": stock,
		"purchasePrice":  "1.00",
		"sellingPrice":   price,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode[dto.ProductResponse](t, resp)
}

func createSale(t *testing.T, app *fiber.App, productID string, qty int) dto.SaleResponse {
	t.Helper()
	resp := doRequest(t, app, http.MethodPost, "/sales", map[string]any{
		"items": []map[string]any{{"productId": productID, "quantity": qty}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode[dto.SaleResponse](t, resp)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	app := buildTestApp(t)
	resp := doRequest(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode[dto.HealthResponse](t, resp)
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, "memory", out.Storage)
	assert.Equal(t, "ok", out.Images)
}

// offlineImages simula un store remoto que perdió la conexión.
type offlineImages struct{ *blob.MemoryStore }

func (offlineImages) Connected() bool { return false }

func TestHealth_ImagesDisconnected(t *testing.T) {
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Storage: "postgres",
		Images:  offlineImages{blob.NewMemoryStore()},
	})

	resp := doRequest(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode[dto.HealthResponse](t, resp)
	assert.Equal(t, "degraded", out.Status)
	assert.Equal(t, "disconnected", out.Images)
}

func TestProducts_CRUD(t *testing.T) {
	app := buildTestApp(t)
	p := createProduct(t, app, "Camiseta", 10, "5.00")

	resp := doRequest(t, app, http.MethodGet, "/product/"+p.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	got := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, "Camiseta", got.Name)

	resp = doRequest(t, app, http.MethodPatch, "/product/"+p.ID, map[string]any{"description": "Algodón"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	updated := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, "Algodón", updated.Description)
	assert.Equal(t, 10, updated.AvailableStock)

	resp = doRequest(t, app, http.MethodGet, "/product?search=algod&limit=10", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := decode[dto.ProductListResponse](t, resp)
	assert.Equal(t, 1, list.TotalCount)

	resp = doRequest(t, app, http.MethodGet, "/product/search?search=CAMI", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[dto.ProductListResponse](t, resp).Count)

	resp = doRequest(t, app, http.MethodPost, "/product/"+p.ID+"/stock", map[string]any{"delta": -3})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 7, decode[dto.ProductResponse](t, resp).AvailableStock)

	resp = doRequest(t, app, http.MethodDelete, "/product/"+p.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = doRequest(t, app, http.MethodGet, "/product/"+p.ID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestProducts_ValidationErrors(t *testing.T) {
	app := buildTestApp(t)

	resp := doRequest(t, app, http.MethodPost, "/product", map[string]any{"name": "Sin precio", "availableStock": 1})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, apphttp.CodeValidation, errResp.Code)
	assert.Equal(t, "sellingPrice", errResp.Details["field"])

	req := httptest.NewRequest(http.MethodPost, "/product", bytes.NewBufferString("{no json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeInvalidBody, decode[dto.ErrorResponse](t, resp).Code)

	resp = doRequest(t, app, http.MethodGet, "/product?filter=abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/product", map[string]any{
		"name": "Enorme", "availableStock": 3000000000, "purchasePrice": "1", "sellingPrice": "2",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "availableStock", decode[dto.ErrorResponse](t, resp).Details["field"])

	p := createProduct(t, app, "Camiseta", 1, "5.00")
	resp = doRequest(t, app, http.MethodPost, "/sales", map[string]any{
		"items": []map[string]any{{"productId": p.ID, "quantity": 3000000000}},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, decode[dto.ErrorResponse](t, resp).Code)
}

func TestProducts_MultipartWithImage(t *testing.T) {
	app := buildTestApp(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", "Gorra"))
	require.NoError(t, w.WriteField("availableStock", "4"))
	require.NoError(t, w.WriteField("purchasePrice", "2.00"))
	require.NoError(t, w.WriteField("sellingPrice", "4.50"))
	part, err := w.CreateFormFile("productImage", "gorra.png")
	require.NoError(t, err)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{1}, 100)...)
	_, err = part.Write(png)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/product", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, "/product/"+created.ID+"/image", created.ImageURL)
	assert.True(t, decimal.RequireFromString("4.5").Equal(created.SellingPrice))

	resp = doRequest(t, app, http.MethodGet, created.ImageURL, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, png, body)
}

func TestSales_CreateAndOversell(t *testing.T) {
	app := buildTestApp(t)
	p := createProduct(t, app, "Camiseta", 10, "5.00")

	sale := createSale(t, app, p.ID, 3)
	assert.True(t, decimal.RequireFromString("15").Equal(sale.TotalAmount))

	resp := doRequest(t, app, http.MethodGet, "/product/"+p.ID, nil)
	assert.Equal(t, 7, decode[dto.ProductResponse](t, resp).AvailableStock)

	resp = doRequest(t, app, http.MethodPost, "/sales", map[string]any{
		"items": []map[string]any{{"productId": p.ID, "quantity": 8}},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, apphttp.CodeInsufficientStock, errResp.Code)
	assert.Equal(t, p.ID, errResp.Details["productId"])
	assert.EqualValues(t, 7, errResp.Details["available"])

	resp = doRequest(t, app, http.MethodPost, "/sales", map[string]any{
		"items": []map[string]any{{"productId": "ghost", "quantity": 1}},
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/sales", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[dto.SaleListResponse](t, resp).Count)

	resp = doRequest(t, app, http.MethodGet, "/sales?date=1999-12-31", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decode[dto.SaleListResponse](t, resp).Count)
}

func TestSales_IdempotencyKey(t *testing.T) {
	app := buildTestApp(t)
	p := createProduct(t, app, "Camiseta", 10, "5.00")
	body := map[string]any{"items": []map[string]any{{"productId": p.ID, "quantity": 1}}}

	resp := doRequest(t, app, http.MethodPost, "/sales", body, apphttp.HeaderIdempotencyKey, "abc")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	first := decode[dto.SaleResponse](t, resp)

	resp = doRequest(t, app, http.MethodPost, "/sales", body, apphttp.HeaderIdempotencyKey, "abc")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("Idempotent-Replayed"))
	assert.Equal(t, first.ID, decode[dto.SaleResponse](t, resp).ID)

	resp = doRequest(t, app, http.MethodGet, "/product/"+p.ID, nil)
	assert.Equal(t, 9, decode[dto.ProductResponse](t, resp).AvailableStock)
}

func TestSales_ListPaged(t *testing.T) {
	app := buildTestApp(t)
	p := createProduct(t, app, "Camiseta", 10, "5.00")
	for i := 0; i < 3; i++ {
		createSale(t, app, p.ID, 1)
	}

	resp := doRequest(t, app, http.MethodGet, "/sales?page=2&limit=2", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode[dto.SaleListResponse](t, resp)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, 3, out.TotalCount)
	assert.Equal(t, 2, out.Page)
	assert.Equal(t, 2, out.TotalPages)

	resp = doRequest(t, app, http.MethodGet, "/sales", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	all := decode[dto.SaleListResponse](t, resp)
	assert.Equal(t, 3, all.Count)
	assert.Zero(t, all.Page)
}

func TestSales_UpdateReceiptDelete(t *testing.T) {
	app := buildTestApp(t)
	p := createProduct(t, app, "Camiseta", 10, "5.00")
	sale := createSale(t, app, p.ID, 2)

	resp := doRequest(t, app, http.MethodPatch, "/sales/"+sale.ID, map[string]any{
		"items": []map[string]any{{"productId": p.ID, "expenses": "0.75", "note": "domicilio"}},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	updated := decode[dto.SaleResponse](t, resp)
	assert.True(t, decimal.RequireFromString("0.75").Equal(updated.TotalExpenses))

	resp = doRequest(t, app, http.MethodGet, "/sales/"+sale.ID+"/receipt", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	pdf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	resp = doRequest(t, app, http.MethodDelete, "/sales/"+sale.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = doRequest(t, app, http.MethodGet, "/product/"+p.ID, nil)
	assert.Equal(t, 10, decode[dto.ProductResponse](t, resp).AvailableStock)
	resp = doRequest(t, app, http.MethodGet, "/sales/"+sale.ID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestReturns_Flow(t *testing.T) {
	app := buildTestApp(t)
	p := createProduct(t, app, "Camiseta", 10, "5.00")
	sale := createSale(t, app, p.ID, 3)

	resp := doRequest(t, app, http.MethodPost, "/returnSales", map[string]any{
		"saleId": sale.ID, "productId": p.ID, "returnQuantity": 2, "notes": "talla",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	ret := decode[dto.ReturnResponse](t, resp)
	assert.True(t, decimal.RequireFromString("10").Equal(ret.TotalAmount))

	resp = doRequest(t, app, http.MethodPost, "/returnSales", map[string]any{
		"saleId": sale.ID, "productId": p.ID, "returnQuantity": 2,
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, apphttp.CodeExceedsAvailable, errResp.Code)
	assert.EqualValues(t, 1, errResp.Details["remaining"])

	resp = doRequest(t, app, http.MethodGet, "/sales/"+sale.ID, nil)
	s := decode[dto.SaleResponse](t, resp)
	assert.Equal(t, 2, s.TotalReturned)

	// Con devoluciones la venta no se puede anular.
	resp = doRequest(t, app, http.MethodDelete, "/sales/"+sale.ID, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/returnSales", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[dto.ReturnListResponse](t, resp).Count)

	resp = doRequest(t, app, http.MethodDelete, "/returnSales/"+ret.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = doRequest(t, app, http.MethodGet, "/product/"+p.ID, nil)
	assert.Equal(t, 7, decode[dto.ProductResponse](t, resp).AvailableStock)
	resp = doRequest(t, app, http.MethodGet, "/returnSales/"+ret.ID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestFeedAndSummary(t *testing.T) {
	app := buildTestApp(t)
	p := createProduct(t, app, "Camiseta", 50, "5.00")
	for i := 0; i < 6; i++ {
		createSale(t, app, p.ID, 1)
	}

	resp := doRequest(t, app, http.MethodGet, "/feed", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	page := decode[dto.FeedPageResponse](t, resp)
	assert.Len(t, page.Entries, 5)
	assert.Equal(t, 6, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)

	resp = doRequest(t, app, http.MethodGet, "/feed?page=2", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.FeedPageResponse](t, resp).Entries, 1)

	resp = doRequest(t, app, http.MethodGet, "/reports/summary", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	summary := decode[dto.DashboardSummaryResponse](t, resp)
	assert.Equal(t, 6, summary.Today.UnitsSold)
	assert.True(t, decimal.RequireFromString("30").Equal(summary.Today.Revenue))
}
