package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogstore/internal/core/apperror"
	"catalogstore/internal/core/fetchplan"
	"catalogstore/internal/domain/catalogs/stock"
	"catalogstore/internal/domain/catalogs/warehouse"
	v1 "catalogstore/internal/infrastructure/http/v1"
	"catalogstore/internal/infrastructure/http/v1/handlers"
	"catalogstore/internal/infrastructure/storage/memory"
	"catalogstore/pkg/logger"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	plans := fetchplan.NewRegistry()
	require.NoError(t, warehouse.RegisterPlans(plans))
	require.NoError(t, stock.RegisterPlans(plans))

	store := memory.NewCatalogStore()
	uow := memory.NewUnitOfWork(store)
	return v1.NewRouter(v1.RouterConfig{
		Logger:           logger.Nop(),
		WarehouseService: warehouse.NewService(uow, plans),
		StockService:     stock.NewService(uow, plans),
		Store:            store,
		Backend:          "memory",
	})
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
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

func create(t *testing.T, r http.Handler, path string, body any) string {
	t.Helper()
	w := do(t, r, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	require.NotEmpty(t, created["id"])
	return created["id"].(string)
}

func TestWarehouseCRUD(t *testing.T) {
	r := newRouter(t)

	whID := create(t, r, "/api/v1/warehouses", map[string]any{"code": "W1", "name": "Main"})

	w := do(t, r, http.MethodGet, "/api/v1/warehouses/"+whID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, "W1", got["code"])
	assert.Equal(t, "Main", got["name"])
	assert.Equal(t, "default", got["fetchPlan"])

	w = do(t, r, http.MethodGet, "/api/v1/warehouses/by-code/W1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, whID, decode(t, w)["id"])

	w = do(t, r, http.MethodPut, "/api/v1/warehouses/"+whID, map[string]any{"name": "Renamed", "city": "Lyon"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode(t, w)
	assert.Equal(t, "Renamed", updated["name"])
	assert.Equal(t, "Lyon", updated["city"])
	assert.Equal(t, "W1", updated["code"], "blank code keeps the stored one")

	w = do(t, r, http.MethodDelete, "/api/v1/warehouses/"+whID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/warehouses/"+whID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, decode(t, w)["code"])
}

func TestWarehouse_GeneratedCode(t *testing.T) {
	r := newRouter(t)

	whID := create(t, r, "/api/v1/warehouses", map[string]any{"name": "No code"})

	got := decode(t, do(t, r, http.MethodGet, "/api/v1/warehouses/"+whID, nil))
	code, _ := got["code"].(string)
	require.NotEmpty(t, code)

	w := do(t, r, http.MethodGet, "/api/v1/warehouses/by-code/"+code, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, whID, decode(t, w)["id"])
}

func TestWarehouse_FetchPlanShapesResponse(t *testing.T) {
	r := newRouter(t)
	whID := create(t, r, "/api/v1/warehouses", map[string]any{"code": "W1", "name": "Main"})

	tests := []struct {
		fetch   string
		plan    string
		present []string
		absent  []string
	}{
		{"", "default", []string{"marketAreas", "deliveryMethodIds"}, []string{"stocks"}},
		{"basic", "basic", nil, []string{"marketAreas", "deliveryMethodIds", "stocks"}},
		{"full", "full", []string{"marketAreas", "deliveryMethodIds", "stocks"}, nil},
		{"bogus", "default", []string{"marketAreas"}, []string{"stocks"}},
	}
	for _, tt := range tests {
		t.Run(tt.plan+"/"+tt.fetch, func(t *testing.T) {
			path := "/api/v1/warehouses/" + whID
			if tt.fetch != "" {
				path += "?fetch=" + tt.fetch
			}
			w := do(t, r, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, w.Code)
			got := decode(t, w)

			assert.Equal(t, tt.plan, got["fetchPlan"])
			for _, key := range tt.present {
				assert.Equal(t, []any{}, got[key], key)
			}
			for _, key := range tt.absent {
				assert.NotContains(t, got, key)
			}
		})
	}
}

func TestWarehouse_LinksAndFilters(t *testing.T) {
	r := newRouter(t)
	w1 := create(t, r, "/api/v1/warehouses", map[string]any{"code": "B", "name": "B"})
	w2 := create(t, r, "/api/v1/warehouses", map[string]any{"code": "A", "name": "A"})
	create(t, r, "/api/v1/warehouses", map[string]any{"code": "C", "name": "C"})

	for _, whID := range []string{w1, w2} {
		w := do(t, r, http.MethodPut, "/api/v1/warehouses/"+whID+"/market-areas/5",
			map[string]any{"ordering": 1, "isDefault": true})
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	}
	w := do(t, r, http.MethodPut, "/api/v1/warehouses/"+w1+"/delivery-methods/7", nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	list := decode(t, do(t, r, http.MethodGet, "/api/v1/warehouses?marketAreaId=5", nil))
	assert.EqualValues(t, 2, list["totalCount"])
	items := list["items"].([]any)
	assert.Equal(t, "A", items[0].(map[string]any)["code"])
	assert.Equal(t, "B", items[1].(map[string]any)["code"])

	list = decode(t, do(t, r, http.MethodGet, "/api/v1/warehouses?deliveryMethodId=7", nil))
	assert.EqualValues(t, 1, list["totalCount"])

	got := decode(t, do(t, r, http.MethodGet, "/api/v1/warehouses/"+w1, nil))
	areas := got["marketAreas"].([]any)
	require.Len(t, areas, 1)
	assert.Equal(t, true, areas[0].(map[string]any)["isDefault"])
	assert.Equal(t, []any{float64(7)}, got["deliveryMethodIds"])

	w = do(t, r, http.MethodDelete, "/api/v1/warehouses/"+w1+"/market-areas/5", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	list = decode(t, do(t, r, http.MethodGet, "/api/v1/warehouses?marketAreaId=5", nil))
	assert.EqualValues(t, 1, list["totalCount"])

	all := decode(t, do(t, r, http.MethodGet, "/api/v1/warehouses", nil))
	assert.EqualValues(t, 3, all["totalCount"])
}

func TestWarehouse_Errors(t *testing.T) {
	r := newRouter(t)
	create(t, r, "/api/v1/warehouses", map[string]any{"code": "W1", "name": "Main"})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"duplicate code", http.MethodPost, "/api/v1/warehouses", map[string]any{"code": "W1", "name": "Other"}, http.StatusConflict, apperror.CodeDuplicate},
		{"missing name", http.MethodPost, "/api/v1/warehouses", map[string]any{"code": "W2"}, http.StatusBadRequest, apperror.CodeValidation},
		{"bad latitude", http.MethodPost, "/api/v1/warehouses", map[string]any{"name": "X", "latitude": 91}, http.StatusBadRequest, apperror.CodeValidation},
		{"bad id", http.MethodGet, "/api/v1/warehouses/not-a-uuid", nil, http.StatusBadRequest, apperror.CodeValidation},
		{"unknown code", http.MethodGet, "/api/v1/warehouses/by-code/nope", nil, http.StatusNotFound, apperror.CodeNotFound},
		{"bad filter", http.MethodGet, "/api/v1/warehouses?marketAreaId=x", nil, http.StatusBadRequest, apperror.CodeValidation},
		{"bad market area", http.MethodPut, "/api/v1/warehouses/0190a8a4-0000-7000-8000-000000000000/market-areas/0", nil, http.StatusBadRequest, apperror.CodeValidation},
		{"link unknown warehouse", http.MethodPut, "/api/v1/warehouses/0190a8a4-0000-7000-8000-000000000000/market-areas/1", nil, http.StatusNotFound, apperror.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode(t, w)["code"])
		})
	}
}

func TestStockLifecycle(t *testing.T) {
	r := newRouter(t)
	whID := create(t, r, "/api/v1/warehouses", map[string]any{"code": "W1", "name": "Main"})

	stockID := create(t, r, "/api/v1/stocks", map[string]any{
		"productSkuId": 42,
		"warehouseId":  whID,
		"stockRegular": "3",
		"stockAlert":   "5",
	})

	got := decode(t, do(t, r, http.MethodGet, "/api/v1/stocks/"+stockID, nil))
	assert.Equal(t, "3.0000", got["stockRegular"])
	assert.Equal(t, "0.0000", got["stockOnOrder"])
	assert.Equal(t, true, got["needsReplenishment"])

	w := do(t, r, http.MethodPut, "/api/v1/stocks/"+stockID, map[string]any{
		"stockRegular": "10.123456",
		"stockAlert":   "5",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode(t, w)
	assert.Equal(t, "10.1235", updated["stockRegular"])
	assert.Equal(t, false, updated["needsReplenishment"])

	full := decode(t, do(t, r, http.MethodGet, "/api/v1/warehouses/"+whID+"?fetch=full", nil))
	assert.Len(t, full["stocks"], 1)

	list := decode(t, do(t, r, http.MethodGet, "/api/v1/warehouses/"+whID+"/stocks", nil))
	assert.EqualValues(t, 1, list["totalCount"])

	w = do(t, r, http.MethodDelete, "/api/v1/warehouses/"+whID, nil)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, apperror.CodeConflict, decode(t, w)["code"])

	require.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/api/v1/stocks/"+stockID, nil).Code)
	require.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/api/v1/warehouses/"+whID, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/v1/stocks/"+stockID, nil).Code)
}

func TestStock_Errors(t *testing.T) {
	r := newRouter(t)
	whID := create(t, r, "/api/v1/warehouses", map[string]any{"code": "W1", "name": "Main"})
	create(t, r, "/api/v1/stocks", map[string]any{"productSkuId": 1, "warehouseId": whID})

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"exponent quantity", map[string]any{"productSkuId": 2, "warehouseId": whID, "stockRegular": "1e3"}, http.StatusBadRequest, apperror.CodeValidation},
		{"negative quantity", map[string]any{"productSkuId": 2, "warehouseId": whID, "stockAlert": "-1"}, http.StatusBadRequest, apperror.CodeValidation},
		{"bad warehouse id", map[string]any{"productSkuId": 2, "warehouseId": "x"}, http.StatusBadRequest, apperror.CodeValidation},
		{"unknown warehouse", map[string]any{"productSkuId": 2, "warehouseId": "0190a8a4-0000-7000-8000-000000000000"}, http.StatusConflict, apperror.CodeConflict},
		{"duplicate sku", map[string]any{"productSkuId": 1, "warehouseId": whID}, http.StatusConflict, apperror.CodeDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/stocks", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode(t, w)["code"])
		})
	}
}

func TestHealth(t *testing.T) {
	r := newRouter(t)

	for _, path := range []string{"/health", "/health/ready", "/health/live"} {
		w := do(t, r, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "ok", decode(t, w)["status"])
	}
}

func TestTraceHeaders(t *testing.T) {
	r := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

type panickingWarehouses struct {
	handlers.WarehouseService
}

func (panickingWarehouses) List(context.Context, warehouse.ListFilter, ...fetchplan.Selector) ([]*warehouse.Warehouse, error) {
	panic("boom")
}

func TestRecoveryRendersInternalError(t *testing.T) {
	r := v1.NewRouter(v1.RouterConfig{
		Logger:           logger.Nop(),
		WarehouseService: panickingWarehouses{},
		Store:            memory.NewStore(),
		Backend:          "memory",
	})

	w := do(t, r, http.MethodGet, "/api/v1/warehouses", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	got := decode(t, w)
	assert.Equal(t, apperror.CodeInternal, got["code"])
	assert.NotContains(t, w.Body.String(), "boom")
}
