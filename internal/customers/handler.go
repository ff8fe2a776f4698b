package customers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

// Handler exposes customer records to administrators.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new customers handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// ListCustomersResponse is the response for listing customers
type ListCustomersResponse struct {
	Customers []*Customer `json:"customers"`
	Count     int         `json:"count"`
	Offset    int         `json:"offset"`
	Limit     int         `json:"limit"`
}

// ListCustomers handles GET /admin/customers
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Limit:  50,
		Offset: 0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status, err := ParseStatus(statusStr)
		if err != nil {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		filter.Status = status
	}

	items, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list customers", "error", err)
		http.Error(w, "failed to list customers", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*Customer{}
	}

	writeJSON(w, http.StatusOK, ListCustomersResponse{
		Customers: items,
		Count:     len(items),
		Offset:    filter.Offset,
		Limit:     filter.Limit,
	})
}

// GetCustomer handles GET /admin/customers/{customerID}
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customerID")
	c, err := h.repo.GetByID(r.Context(), id)
	if IsNotFound(err) {
		http.Error(w, "customer not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get customer", "error", err, "customer_id", id)
		http.Error(w, "failed to get customer", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateStatusRequest is the body of PATCH /admin/customers/{customerID}/status
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /admin/customers/{customerID}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customerID")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	c, err := h.repo.UpdateStatus(r.Context(), id, status)
	switch {
	case IsNotFound(err):
		http.Error(w, "customer not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrInvalidStatus):
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("failed to update customer status", "error", err, "customer_id", id)
		http.Error(w, "failed to update status", http.StatusInternalServerError)
		return
	}

	h.logger.Info("customer status updated", "customer_id", id, "status", status)
	writeJSON(w, http.StatusOK, c)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
