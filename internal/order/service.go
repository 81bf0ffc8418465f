package order

import (
	"context"
	"slices"
	"time"

	"github.com/wichananm65/storefront-backend/internal/apperr"
)

// Service provides read access to a user's order history.
type Service struct {
	repo    Repository
	timeout time.Duration
}

func NewService(r Repository, timeout time.Duration) *Service {
	return &Service{repo: r, timeout: timeout}
}

// ListForUser returns the user's orders, newest first. The store's own order
// is never relied on.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	orders, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("list orders", err)
	}
	slices.SortStableFunc(orders, func(a, b Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return orders, nil
}
