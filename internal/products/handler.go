package products

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

// Handler serves read-only catalog endpoints.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a catalog handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("products: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListProductsResponse is returned by GET /api/products.
type ListProductsResponse struct {
	Products []Product `json:"products"`
	Count    int       `json:"count"`
}

// List handles GET /api/products?category=&brand=&exclude_brand=&limit=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{Category: q.Get("category"), Limit: 50}
	if brand := q.Get("brand"); brand != "" {
		filter.Brand = &BrandFilter{Pattern: brand}
	}
	if excluded := q.Get("exclude_brand"); excluded != "" {
		filter.Brand = &BrandFilter{Pattern: excluded, Negate: true}
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}

	items, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		http.Error(w, "failed to list products", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []Product{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListProductsResponse{Products: items, Count: len(items)})
}

// Get handles GET /api/products/{productID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	item, err := h.repo.GetByID(r.Context(), id)
	if errors.Is(err, ErrProductNotFound) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", id)
		http.Error(w, "failed to get product", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}
