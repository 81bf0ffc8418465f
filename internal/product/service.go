package product

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/wichananm65/storefront-backend/internal/apperr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	repo    Repository
	cache   CatalogCache
	log     *zap.Logger
	timeout time.Duration
	sfg     singleflight.Group
	// gen is bumped by every catalog write. A list read that saw an older
	// generation must not leave its result in the cache.
	gen atomic.Uint64
}

type Option func(*Service)

func WithCache(c CatalogCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithTimeout bounds every store round trip made by the service.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		cache:   NopCache{},
		log:     zap.NewNop(),
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// List returns the whole catalog. Concurrent callers share one store read,
// which is not cancelled when the caller that started it goes away.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	v, err, _ := s.sfg.Do("catalog", func() (interface{}, error) {
		rctx, cancel := s.bound(context.WithoutCancel(ctx))
		defer cancel()

		cached, err := s.cache.Get(rctx)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn("catalog cache read failed", zap.Error(err))
		}

		gen := s.gen.Load()
		products, err := s.repo.List(rctx)
		if err != nil {
			return nil, apperr.Persistence("list products", err)
		}
		s.fill(rctx, gen, products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}

	shared := v.([]Product)
	out := make([]Product, len(shared))
	copy(out, shared)
	return out, nil
}

// fill caches products read at generation gen. If a write landed meanwhile,
// the entry is dropped again, whichever of the two reached the cache first.
func (s *Service) fill(ctx context.Context, gen uint64, products []Product) {
	if s.gen.Load() != gen {
		return
	}
	if err := s.cache.Set(ctx, products); err != nil {
		s.log.Warn("catalog cache write failed", zap.Error(err))
		return
	}
	if s.gen.Load() != gen {
		s.invalidate(ctx)
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (Product, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, apperr.Persistence("get product", err)
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, f Fields) (Product, error) {
	f = f.Normalize()
	if err := validationError(f); err != nil {
		return Product{}, err
	}
	rctx, cancel := s.bound(ctx)
	defer cancel()
	id, err := s.repo.Create(rctx, f)
	if err != nil {
		return Product{}, apperr.Persistence("create product", err)
	}
	s.invalidate(ctx)
	return f.withID(id), nil
}

func (s *Service) Update(ctx context.Context, id string, f Fields) (Product, error) {
	f = f.Normalize()
	if err := validationError(f); err != nil {
		return Product{}, err
	}
	rctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.repo.Update(rctx, id, f); err != nil {
		return Product{}, apperr.Persistence("update product", err)
	}
	s.invalidate(ctx)
	return f.withID(id), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	rctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.repo.Delete(rctx, id); err != nil {
		return apperr.Persistence("delete product", err)
	}
	s.invalidate(ctx)
	return nil
}

// ProductStock reads the current stock of one product straight from the store.
func (s *Service) ProductStock(ctx context.Context, id string) (int, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	stock, err := s.repo.GetStock(ctx, id)
	if err != nil {
		return 0, apperr.Persistence("read stock", err)
	}
	return stock, nil
}

// SetProductStock overwrites the stock of one product.
func (s *Service) SetProductStock(ctx context.Context, id string, stock int) error {
	rctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.repo.SetStock(rctx, id, stock); err != nil {
		return apperr.Persistence("write stock", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	s.gen.Add(1)
	if err := s.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func validationError(f Fields) error {
	ves := f.Validate()
	for _, field := range []string{"nombre", "descripcion", "precio", "stock"} {
		if msg, ok := ves[field]; ok {
			return apperr.Validation(field, msg)
		}
	}
	return nil
}
