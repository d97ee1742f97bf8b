package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"erpledger/internal/domain/consistency"
	"erpledger/internal/domain/masterdata"
	"erpledger/internal/domain/reports"
	"erpledger/internal/domain/workflow"
	"erpledger/internal/infrastructure/export"
	"erpledger/internal/infrastructure/storage/memory"
	"erpledger/pkg/logger"
)

var testNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db := memory.NewDB()
	stores := memory.NewStores(db)
	log := memory.NewAuditLog(db)
	now := func() time.Time { return testNow }

	m := consistency.New(consistency.Config{Stores: stores, TxManager: db, Audit: log, Now: now})
	wf := workflow.Config{Maintainer: m, Numerator: memory.NewNumerator(), Audit: log, Now: now}
	core, _ := observer.New(zapcore.DebugLevel)

	return NewRouter(RouterConfig{
		Logger: logger.FromCore(core),
		MasterData: masterdata.New(masterdata.Config{
			Stores:    stores,
			TxManager: db,
			Locker:    m.Locker(),
			Audit:     log,
		}),
		Maintainer: m,
		Orders:     workflow.NewOrderService(wf),
		Invoices:   workflow.NewInvoiceService(wf),
		Reports:    reports.NewService(reports.NewStoreRepository(stores)).WithClock(now),
	})
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func create(t *testing.T, r http.Handler, path string, body any) map[string]any {
	t.Helper()
	w := do(t, r, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	envelope, ok := body["error"].(map[string]any)
	require.True(t, ok, w.Body.String())
	return envelope["code"].(string)
}

func amount(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	s, ok := v.(string)
	require.True(t, ok, "amount %v is not a string", v)
	return decimal.RequireFromString(s)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(t, r, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSalesOrderLineUpdatesTotal(t *testing.T) {
	r := newTestRouter(t)

	customer := create(t, r, "/api/v1/customers", map[string]any{"name": "Acme", "email": "ap@acme.test"})
	product := create(t, r, "/api/v1/products", map[string]any{
		"name": "Widget", "sku": "W-1", "stockQuantity": 50, "unitPrice": "29.99",
	})
	order := create(t, r, "/api/v1/sales-orders", map[string]any{"customerId": customer["id"]})
	assert.Equal(t, "SO-000001", order["number"])

	item := create(t, r, "/api/v1/sales-order-items", map[string]any{
		"salesOrderId": order["id"], "productId": product["id"], "quantity": 5, "unitPrice": "29.99",
	})
	assert.True(t, amount(t, item["subtotal"]).Equal(decimal.RequireFromString("149.95")))

	w := do(t, r, http.MethodGet, "/api/v1/sales-orders/"+order["id"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode(t, w)
	assert.True(t, amount(t, detail["order"].(map[string]any)["totalAmount"]).Equal(decimal.RequireFromString("149.95")))
	assert.Len(t, detail["items"], 1)

	w = do(t, r, http.MethodPatch, "/api/v1/sales-order-items/"+item["id"].(string), map[string]any{"quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, amount(t, decode(t, w)["subtotal"]).Equal(decimal.RequireFromString("59.98")))

	w = do(t, r, http.MethodDelete, "/api/v1/sales-order-items/"+item["id"].(string), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/sales-orders/"+order["id"].(string), nil)
	assert.True(t, amount(t, decode(t, w)["order"].(map[string]any)["totalAmount"]).IsZero())
}

func TestErrorEnvelope(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/invoices/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = do(t, r, http.MethodGet, "/api/v1/invoices/0190f0a2-3c4d-7e5f-8a9b-0c1d2e3f4a5b", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))

	w = do(t, r, http.MethodPost, "/api/v1/accounts", map[string]any{"code": "1000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestAccountWithTransactionCannotBeDeleted(t *testing.T) {
	r := newTestRouter(t)

	account := create(t, r, "/api/v1/accounts", map[string]any{"name": "Cash", "code": "1000", "type": "asset"})
	tr := create(t, r, "/api/v1/transactions", map[string]any{
		"accountId": account["id"], "amount": "100", "description": "opening",
	})

	w := do(t, r, http.MethodGet, "/api/v1/accounts/"+account["id"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, amount(t, decode(t, w)["balance"]).Equal(decimal.NewFromInt(100)))

	w = do(t, r, http.MethodDelete, "/api/v1/accounts/"+account["id"].(string), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_STATE", errorCode(t, w))

	w = do(t, r, http.MethodDelete, "/api/v1/transactions/"+tr["id"].(string), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodDelete, "/api/v1/accounts/"+account["id"].(string), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDeleteAdjustmentReturnsWarning(t *testing.T) {
	r := newTestRouter(t)

	product := create(t, r, "/api/v1/products", map[string]any{
		"name": "Bolt", "sku": "B-1", "stockQuantity": 10, "unitPrice": "1.00",
	})
	mv := create(t, r, "/api/v1/stock-movements", map[string]any{
		"productId": product["id"], "type": "adjustment", "quantity": 4,
	})

	w := do(t, r, http.MethodDelete, "/api/v1/stock-movements/"+mv["id"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.EqualValues(t, 4, body["stockQuantity"])
	warning := body["warning"].(map[string]any)
	assert.Equal(t, "UNSUPPORTED_OPERATION", warning["code"])
	assert.EqualValues(t, 10, warning["details"].(map[string]any)["previous_stock"])
}

func TestIncomeStatementFormats(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/reports/income-statement", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "netIncome")

	w = do(t, r, http.MethodGet, "/api/v1/reports/income-statement?format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "income-statement.xlsx")
	assert.NotZero(t, w.Body.Len())

	w = do(t, r, http.MethodGet, "/api/v1/reports/income-statement?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecompute(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/maintenance/recompute", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["changed"])
}
