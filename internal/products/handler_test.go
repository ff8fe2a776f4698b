package products

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

func TestHandlerListFiltersByQuery(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(nil), logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/products?exclude_brand=apple&limit=20", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListProductsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 8, resp.Count)
	for _, p := range resp.Products {
		assert.NotEqual(t, "Apple", p.Brand)
	}
}

func TestHandlerGet(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository([]Product{{ID: "p-1", Name: "Test"}}), logging.Default())

	get := func(id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("productID", id)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		rec := httptest.NewRecorder()
		handler.Get(rec, req)
		return rec
	}

	rec := get("p-1")
	require.Equal(t, http.StatusOK, rec.Code)
	var p Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, "Test", p.Name)

	assert.Equal(t, http.StatusNotFound, get("nope").Code)
}
