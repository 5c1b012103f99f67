package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"order-fulfillment-command/internal/eventstore"
	"order-fulfillment-command/internal/handlers"
	"order-fulfillment-command/shared/config"
	"order-fulfillment-command/shared/events"
	"order-fulfillment-command/shared/logx"
)

func newTestServer(t *testing.T, readyProblems []config.Problem, readyCheck func(context.Context) error) http.Handler {
	t.Helper()
	log := logx.Discard()
	orderSt := eventstore.NewOrderStore(eventstore.NewMemoryStream(), eventstore.NopPublisher{}, events.TopicOrderEvents, log)
	invSt := eventstore.NewInventoryStore(eventstore.NewMemoryStream(), eventstore.NopPublisher{}, events.TopicInventoryEvents, eventstore.NewMemoryProductIndex(), log)
	inventory := handlers.NewInventoryHandler(invSt, log)
	orders := handlers.NewOrderHandler(orderSt, inventory, nil, log)
	cfg := config.Config{ServiceName: "order-command-api", Env: "test"}
	return NewServer(orders, inventory, log, cfg, "test", readyProblems, readyCheck).Router()
}

func doJSON(t *testing.T, h http.Handler, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func seedStock(t *testing.T, h http.Handler, productID string, quantity int) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPut, "/api/v1/inventory/"+productID, map[string]any{"quantity": quantity})
	require.Equal(t, http.StatusOK, rec.Code)
}

func createOrder(t *testing.T, h http.Handler, items []map[string]any) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_id": "customer-1",
		"items":       items,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeMap(t, rec)
	require.Equal(t, true, body["success"])
	orderID, _ := body["order_id"].(string)
	require.NotEmpty(t, orderID)
	return orderID
}

func TestHealthAndReady(t *testing.T) {
	h := newTestServer(t, nil, nil)

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeMap(t, rec)["status"])

	rec = doJSON(t, h, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ready", decodeMap(t, rec)["status"])
}

func TestReadyReportsConfigProblems(t *testing.T) {
	problems := []config.Problem{{Field: "KAFKA_BROKERS", Message: "KAFKA_BROKERS is required"}}
	h := newTestServer(t, problems, nil)

	rec := doJSON(t, h, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyReportsDependencyFailure(t *testing.T) {
	h := newTestServer(t, nil, func(context.Context) error { return errors.New("db down") })

	rec := doJSON(t, h, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateOrderEndpoint(t *testing.T) {
	h := newTestServer(t, nil, nil)
	seedStock(t, h, "sku-1", 10)

	orderID := createOrder(t, h, []map[string]any{
		{"product_id": "sku-1", "quantity": 2, "unit_price_cents": 500},
	})
	require.NotEmpty(t, orderID)

	// The line was allocated.
	rec := doJSON(t, h, http.MethodPut, "/api/v1/inventory/sku-1", map[string]any{"quantity": 10})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	require.Equal(t, float64(2), body["allocated_quantity"])
}

func TestCreateOrderValidation(t *testing.T) {
	h := newTestServer(t, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_id": "",
		"items":       []map[string]any{{"product_id": "", "quantity": 0}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeMap(t, rec)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "INVALID_ARGUMENT", errBody["code"])
	details, ok := errBody["details"].(map[string]any)
	require.True(t, ok)
	fields, ok := details["fields"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 2)
}

func TestCreateOrderMalformedBody(t *testing.T) {
	h := newTestServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderStatusLifecycle(t *testing.T) {
	h := newTestServer(t, nil, nil)
	seedStock(t, h, "sku-1", 10)
	orderID := createOrder(t, h, []map[string]any{
		{"product_id": "sku-1", "quantity": 1, "unit_price_cents": 100},
	})

	rec := doJSON(t, h, http.MethodPut, "/api/v1/orders/"+orderID+"/status", map[string]any{"status": "shipped"})
	require.Equal(t, http.StatusOK, rec.Code)

	// REGISTERED is not reachable from SHIPPED.
	rec = doJSON(t, h, http.MethodPut, "/api/v1/orders/"+orderID+"/status", map[string]any{"status": "REGISTERED"})
	require.Equal(t, http.StatusConflict, rec.Code)
	errBody := decodeMap(t, rec)["error"].(map[string]any)
	require.Equal(t, "INVALID_TRANSITION", errBody["code"])

	rec = doJSON(t, h, http.MethodPut, "/api/v1/orders/"+orderID+"/status", map[string]any{"status": "BOGUS"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	h := newTestServer(t, nil, nil)
	rec := doJSON(t, h, http.MethodPut, "/api/v1/orders/nope/status", map[string]any{"status": "SHIPPED"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelOrderEndpoint(t *testing.T) {
	h := newTestServer(t, nil, nil)
	seedStock(t, h, "sku-1", 10)
	orderID := createOrder(t, h, []map[string]any{
		{"product_id": "sku-1", "quantity": 3, "unit_price_cents": 100},
	})

	rec := doJSON(t, h, http.MethodDelete, "/api/v1/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Cancelling a shipped order is rejected.
	orderID = createOrder(t, h, []map[string]any{
		{"product_id": "sku-1", "quantity": 1, "unit_price_cents": 100},
	})
	rec = doJSON(t, h, http.MethodPut, "/api/v1/orders/"+orderID+"/status", map[string]any{"status": "SHIPPED"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, h, http.MethodDelete, "/api/v1/orders/"+orderID, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	errBody := decodeMap(t, rec)["error"].(map[string]any)
	require.Equal(t, "NOT_CANCELLABLE", errBody["code"])
}

func TestInventoryEndpoints(t *testing.T) {
	h := newTestServer(t, nil, nil)

	// Upsert creates the product.
	rec := doJSON(t, h, http.MethodPut, "/api/v1/inventory/sku-9", map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	require.Equal(t, "sku-9", body["product_id"])
	require.Equal(t, float64(5), body["available_quantity"])

	rec = doJSON(t, h, http.MethodPost, "/api/v1/inventory/sku-9/allocate", map[string]any{"order_id": "order-1", "quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)

	// Over capacity.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/inventory/sku-9/allocate", map[string]any{"order_id": "order-1", "quantity": 6})
	require.Equal(t, http.StatusConflict, rec.Code)
	errBody := decodeMap(t, rec)["error"].(map[string]any)
	require.Equal(t, "INSUFFICIENT_INVENTORY", errBody["code"])

	rec = doJSON(t, h, http.MethodPost, "/api/v1/inventory/sku-9/return", map[string]any{"order_id": "order-1", "quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)

	// Unknown product.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/inventory/sku-none/allocate", map[string]any{"order_id": "order-1", "quantity": 1})
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Missing order id.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/inventory/sku-9/allocate", map[string]any{"quantity": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	h := newTestServer(t, nil, nil)
	rec := doJSON(t, h, http.MethodGet, "/api/v1/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
