package products

import (
	"context"
	"errors"
	"sync"
)

// ErrProductNotFound is returned when a product id is unknown.
var ErrProductNotFound = errors.New("products: not found")

// Repository lists catalog entries. The catalog is read-only here.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
}

// InMemoryRepository serves a fixed catalog from memory.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items []Product
}

// NewInMemoryRepository creates a repository over items. A nil slice loads
// the bundled catalog.
func NewInMemoryRepository(items []Product) *InMemoryRepository {
	if items == nil {
		items = DefaultCatalog()
	}
	return &InMemoryRepository{items: append([]Product(nil), items...)}
}

// List returns entries passing filter in catalog order.
func (r *InMemoryRepository) List(ctx context.Context, filter Filter) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, len(r.items))
	for _, item := range r.items {
		if filter.Matches(item) {
			out = append(out, item)
		}
	}
	return capProducts(out, filter.Limit), nil
}

// GetByID returns a single entry.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.ID == id {
			p := item
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}
