package customers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/storefront-ai-assistant/internal/profile"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

func withCustomerID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("customerID", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func seededHandler(t *testing.T) (*Handler, *Customer) {
	t.Helper()
	repo := NewInMemoryRepository()
	c, err := repo.Create(context.Background(), profile.Profile{Name: "Sara", Email: "sara@mail.com"})
	require.NoError(t, err)
	return NewHandler(repo, logging.Default()), c
}

func TestListCustomers(t *testing.T) {
	handler, c := seededHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/customers?status=new&limit=10", nil)
	rec := httptest.NewRecorder()
	handler.ListCustomers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListCustomersResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, c.ID, resp.Customers[0].ID)
	assert.Equal(t, 10, resp.Limit)
}

func TestListCustomersRejectsUnknownStatus(t *testing.T) {
	handler, _ := seededHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/customers?status=vip", nil)
	rec := httptest.NewRecorder()
	handler.ListCustomers(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCustomer(t *testing.T) {
	handler, c := seededHandler(t)

	rec := httptest.NewRecorder()
	handler.GetCustomer(rec, withCustomerID(httptest.NewRequest(http.MethodGet, "/", nil), c.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var got Customer
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "Sara", got.Profile.Name)

	rec = httptest.NewRecorder()
	handler.GetCustomer(rec, withCustomerID(httptest.NewRequest(http.MethodGet, "/", nil), "not-a-uuid"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatus(t *testing.T) {
	handler, c := seededHandler(t)

	body, _ := json.Marshal(UpdateStatusRequest{Status: "converted"})
	rec := httptest.NewRecorder()
	handler.UpdateStatus(rec, withCustomerID(httptest.NewRequest(http.MethodPatch, "/", bytes.NewReader(body)), c.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var got Customer
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, StatusConverted, got.Status)

	body, _ = json.Marshal(UpdateStatusRequest{Status: "vip"})
	rec = httptest.NewRecorder()
	handler.UpdateStatus(rec, withCustomerID(httptest.NewRequest(http.MethodPatch, "/", bytes.NewReader(body)), c.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
