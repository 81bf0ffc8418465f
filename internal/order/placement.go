package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wichananm65/storefront-backend/internal/apperr"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/events"
	"go.uber.org/zap"
)

// StockStore reads and overwrites product stock.
type StockStore interface {
	ProductStock(ctx context.Context, productID string) (int, error)
	SetProductStock(ctx context.Context, productID string, stock int) error
}

type Recorder interface {
	OrderPlaced()
	OrderFailed(reason string)
	StockWarnings(n int)
}

type nopRecorder struct{}

func (nopRecorder) OrderPlaced()       {}
func (nopRecorder) OrderFailed(string) {}
func (nopRecorder) StockWarnings(int)  {}

const (
	ReasonProductMissing   = "product_missing"
	ReasonStockReadFailed  = "stock_read_failed"
	ReasonStockWriteFailed = "stock_write_failed"
	ReasonStockNegative    = "stock_negative"
)

// LineWarning describes an order line whose stock could not be reconciled.
// The order itself was still created.
type LineWarning struct {
	ProductID string
	Reason    string
	Err       error
}

func (w LineWarning) String() string {
	if w.Err == nil {
		return fmt.Sprintf("%s: %s", w.ProductID, w.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", w.ProductID, w.Reason, w.Err)
}

type PlacementResult struct {
	OrderID  string
	Order    Order
	Warnings []LineWarning
}

// Placer turns a cart into a persisted order and decrements stock for each
// line.
//
// Stock is adjusted with a plain read followed by a write, one line at a
// time. Two placements racing on the same product can both read the same
// value, and the later write wins. Stock is never checked for sufficiency,
// and a created order is never rolled back.
type Placer struct {
	orders    Repository
	stock     StockStore
	publisher events.Publisher
	metrics   Recorder
	log       *zap.Logger
	timeout   time.Duration
	now       func() time.Time
}

type PlacerOption func(*Placer)

func WithPublisher(p events.Publisher) PlacerOption {
	return func(pl *Placer) { pl.publisher = p }
}

func WithRecorder(r Recorder) PlacerOption {
	return func(pl *Placer) { pl.metrics = r }
}

func WithLogger(l *zap.Logger) PlacerOption {
	return func(pl *Placer) { pl.log = l }
}

// WithStoreTimeout bounds the order insert.
func WithStoreTimeout(d time.Duration) PlacerOption {
	return func(pl *Placer) { pl.timeout = d }
}

func WithClock(now func() time.Time) PlacerOption {
	return func(pl *Placer) { pl.now = now }
}

func NewPlacer(orders Repository, stock StockStore, opts ...PlacerOption) *Placer {
	p := &Placer{
		orders:    orders,
		stock:     stock,
		publisher: events.Nop{},
		metrics:   nopRecorder{},
		log:       zap.NewNop(),
		timeout:   5 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Place persists an order for the lines in c, decrements stock and publishes
// the order event. Clearing the cart is left to the caller.
func (p *Placer) Place(ctx context.Context, userID string, c cart.State) (PlacementResult, error) {
	res, err := p.Persist(ctx, userID, c)
	if err != nil {
		return PlacementResult{}, err
	}
	p.Publish(ctx, res)
	return res, nil
}

// Persist is Place without the event. An empty cart fails with a validation
// error before any store call. A failed insert is returned as a persistence
// error and nothing else happens. Stock failures after the insert are
// returned as warnings.
func (p *Placer) Persist(ctx context.Context, userID string, c cart.State) (PlacementResult, error) {
	if c.IsEmpty() {
		p.metrics.OrderFailed("empty_cart")
		return PlacementResult{}, &apperr.ValidationError{
			Field:   "cart",
			Message: apperr.ErrEmptyCart.Error(),
			Err:     apperr.ErrEmptyCart,
		}
	}

	lines := make([]LineSnapshot, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, LineSnapshot{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			UnitPrice:   l.Product.Price,
			Quantity:    l.Quantity,
		})
	}
	ord := Order{
		UserID:    userID,
		CreatedAt: p.now().UTC(),
		Status:    StatusPending,
		Total:     totalOf(lines),
		Lines:     lines,
	}

	id, err := p.create(ctx, ord)
	if err != nil {
		p.metrics.OrderFailed("persistence")
		p.log.Error("order creation failed", zap.String("user_id", userID), zap.Error(err))
		return PlacementResult{}, apperr.Persistence("create order", err)
	}
	ord.ID = id
	p.metrics.OrderPlaced()

	var warnings []LineWarning
	for _, l := range lines {
		if w, ok := p.decrement(ctx, l); ok {
			p.log.Warn("stock update failed",
				zap.String("order_id", id),
				zap.String("product_id", w.ProductID),
				zap.String("reason", w.Reason),
				zap.Error(w.Err),
			)
			warnings = append(warnings, w)
		}
	}
	if len(warnings) > 0 {
		p.metrics.StockWarnings(len(warnings))
	}

	p.log.Info("order placed",
		zap.String("order_id", id),
		zap.String("user_id", userID),
		zap.String("total", ord.Total.StringFixed(2)),
		zap.Int("lines", len(lines)),
		zap.Int("warnings", len(warnings)),
	)
	return PlacementResult{OrderID: id, Order: ord, Warnings: warnings}, nil
}

func (p *Placer) create(ctx context.Context, ord Order) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.orders.Create(ctx, ord)
}

// decrement re-reads the line's stock and writes back stock - quantity.
func (p *Placer) decrement(ctx context.Context, l LineSnapshot) (LineWarning, bool) {
	stock, err := p.stock.ProductStock(ctx, l.ProductID)
	if errors.Is(err, apperr.ErrNotFound) {
		return LineWarning{ProductID: l.ProductID, Reason: ReasonProductMissing, Err: err}, true
	}
	if err != nil {
		return LineWarning{ProductID: l.ProductID, Reason: ReasonStockReadFailed, Err: err}, true
	}

	next := stock - l.Quantity
	if err := p.stock.SetProductStock(ctx, l.ProductID, next); err != nil {
		return LineWarning{ProductID: l.ProductID, Reason: ReasonStockWriteFailed, Err: err}, true
	}
	if next < 0 {
		return LineWarning{
			ProductID: l.ProductID,
			Reason:    ReasonStockNegative,
			Err:       fmt.Errorf("stock is now %d", next),
		}, true
	}
	return LineWarning{}, false
}

// Publish announces a placed order. Failures are logged only.
func (p *Placer) Publish(ctx context.Context, res PlacementResult) {
	ord := res.Order
	ev := events.OrderPlaced{
		OrderID:  ord.ID,
		UserID:   ord.UserID,
		Total:    ord.Total.StringFixed(2),
		PlacedAt: ord.CreatedAt,
	}
	for _, l := range ord.Lines {
		ev.Lines = append(ev.Lines, events.OrderLine{
			ProductID: l.ProductID,
			Name:      l.ProductName,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Quantity:  l.Quantity,
		})
	}
	for _, w := range res.Warnings {
		ev.Warnings = append(ev.Warnings, w.String())
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.publisher.PublishOrderPlaced(pctx, ev); err != nil {
		p.log.Warn("order event not published", zap.String("order_id", ord.ID), zap.Error(err))
	}
}
