package product

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Repository is the catalog side of the remote store.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, f Fields) (string, error)
	Update(ctx context.Context, id string, f Fields) error
	Delete(ctx context.Context, id string) error
	GetStock(ctx context.Context, id string) (int, error)
	SetStock(ctx context.Context, id string, stock int) error
}

// InMemoryRepository is a simple in-memory implementation useful for tests and
// local runs. Insertion order is preserved.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Product
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{storage: make([]Product, 0, len(seed))}
	for _, p := range seed {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		r.storage = append(r.storage, p)
	}
	return r
}

func (r *InMemoryRepository) List(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, len(r.storage))
	copy(out, r.storage)
	return out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		return r.storage[i], nil
	}
	return Product{}, fmt.Errorf("%s: %w", id, ErrNotFound)
}

func (r *InMemoryRepository) Create(ctx context.Context, f Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.NewString()
	r.storage = append(r.storage, f.withID(id))
	return id, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id string, f Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	r.storage[i] = f.withID(id)
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	r.storage = append(r.storage[:i], r.storage[i+1:]...)
	return nil
}

func (r *InMemoryRepository) GetStock(ctx context.Context, id string) (int, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.Stock, nil
}

func (r *InMemoryRepository) SetStock(ctx context.Context, id string, stock int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	r.storage[i].Stock = stock
	return nil
}

func (r *InMemoryRepository) indexOf(id string) int {
	for i := range r.storage {
		if r.storage[i].ID == id {
			return i
		}
	}
	return -1
}
