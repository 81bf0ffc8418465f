package order

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Repository defines persistence operations for orders.
type Repository interface {
	// Create stores ord and returns the id assigned by the store. ord.ID is
	// ignored.
	Create(ctx context.Context, ord Order) (string, error)
	// ListForUser returns the user's orders in no particular order.
	ListForUser(ctx context.Context, userID string) ([]Order, error)
}

type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Order
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

func (r *InMemoryRepository) Create(ctx context.Context, ord Order) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ord.ID = uuid.NewString()
	ord.Lines = append([]LineSnapshot(nil), ord.Lines...)
	r.storage = append(r.storage, ord)
	return ord.ID, nil
}

func (r *InMemoryRepository) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Order, 0)
	for _, o := range r.storage {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}
