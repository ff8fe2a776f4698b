package customers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/storefront-ai-assistant/internal/profile"
)

// Repository stores customers. Lookups by email are case-insensitive.
type Repository interface {
	Create(ctx context.Context, p profile.Profile) (*Customer, error)
	Update(ctx context.Context, id string, p profile.Profile) (*Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Customer, error)
	List(ctx context.Context, filter ListFilter) ([]*Customer, error)
}

// InMemoryRepository implements Repository for tests and the CLI.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*Customer
	byEmail map[string]string
	now     func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]*Customer),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new customer with status new.
func (r *InMemoryRepository) Create(ctx context.Context, p profile.Profile) (*Customer, error) {
	if err := ValidateNew(p); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(p.Email)
	if _, exists := r.byEmail[key]; exists {
		return nil, ErrDuplicateEmail
	}
	now := r.now()
	c := &Customer{
		ID:        uuid.New().String(),
		Profile:   p,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.byID[c.ID] = c
	r.byEmail[key] = c.ID
	return clone(c), nil
}

// Update replaces the stored profile.
func (r *InMemoryRepository) Update(ctx context.Context, id string, p profile.Profile) (*Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	oldKey, newKey := emailKey(c.Profile.Email), emailKey(p.Email)
	if newKey != "" && newKey != oldKey {
		if other, taken := r.byEmail[newKey]; taken && other != id {
			return nil, ErrDuplicateEmail
		}
		delete(r.byEmail, oldKey)
		r.byEmail[newKey] = id
	}
	c.Profile = p
	c.UpdatedAt = r.now()
	return clone(c), nil
}

// GetByID retrieves a customer by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return clone(c), nil
}

// GetByEmail retrieves a customer by email
func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return clone(r.byID[id]), nil
}

// UpdateStatus moves the customer to a new funnel status.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Customer, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	c.Status = status
	c.UpdatedAt = r.now()
	return clone(c), nil
}

// List returns customers newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Customer, 0, len(r.byID))
	for _, c := range r.byID {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*Customer{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func clone(c *Customer) *Customer {
	cp := *c
	return &cp
}
