package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/events"
	"github.com/wichananm65/storefront-backend/internal/product"
)

func makeAppWithOrderHandler(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": v}})
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app.Group("/api/v1"))
	return app
}

type orderFixture struct {
	app      *fiber.App
	sessions *cart.Sessions
	catalog  *product.Service
	orders   *countingOrders
}

func newOrderFixture(opts ...PlacerOption) orderFixture {
	return newOrderFixtureWithSessions(cart.NewSessions(), opts...)
}

func newOrderFixtureWithSessions(sessions *cart.Sessions, opts ...PlacerOption) orderFixture {
	catalog := product.NewService(product.NewInMemoryRepository([]product.Product{p1}))
	orders := &countingOrders{Repository: NewInMemoryRepository()}
	h := NewHandler(NewPlacer(orders, catalog, opts...), NewService(orders, time.Second), sessions)
	return orderFixture{app: makeAppWithOrderHandler(h), sessions: sessions, catalog: catalog, orders: orders}
}

func request(t *testing.T, app *fiber.App, method, path string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-User-ID", "u1")
	res, err := app.Test(req)
	require.NoError(t, err)
	var raw json.RawMessage
	_ = json.NewDecoder(res.Body).Decode(&raw)
	return res.StatusCode, raw
}

func TestCreateOrder_ClearsCart(t *testing.T) {
	f := newOrderFixture()
	f.sessions.Get("u1").Apply(cart.AddProduct{Product: p1})
	f.sessions.Get("u1").Apply(cart.AddProduct{Product: p1})

	status, body := request(t, f.app, "POST", "/api/v1/orders")
	require.Equal(t, fiber.StatusCreated, status)

	var resp struct {
		OrderID  string            `json:"orderId"`
		Order    Order             `json:"order"`
		Warnings []json.RawMessage `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.NotEmpty(t, resp.OrderID)
	assert.Equal(t, StatusPending, resp.Order.Status)
	assert.Equal(t, "20", resp.Order.Total.String())
	assert.Empty(t, resp.Warnings)

	assert.True(t, f.sessions.Get("u1").Snapshot().IsEmpty())
	stock, err := f.catalog.ProductStock(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, 3, stock)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture()

	status, _ := request(t, f.app, "POST", "/api/v1/orders")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Zero(t, f.orders.calls)
	assert.Zero(t, f.sessions.Len())
}

// lockCheckingPublisher checks, while an event is being published, whether the
// shopper's cart can be read without waiting on the placement.
type lockCheckingPublisher struct {
	events.Nop
	sessions *cart.Sessions
	userID   string
	unlocked bool
	cleared  bool
}

func (p *lockCheckingPublisher) PublishOrderPlaced(context.Context, events.OrderPlaced) error {
	got := make(chan cart.State, 1)
	go func() { got <- p.sessions.Peek(p.userID) }()
	select {
	case st := <-got:
		p.unlocked = true
		p.cleared = st.IsEmpty()
	case <-time.After(time.Second):
	}
	return nil
}

func TestCreateOrder_PublishesAfterCartIsReleased(t *testing.T) {
	sessions := cart.NewSessions()
	pub := &lockCheckingPublisher{sessions: sessions, userID: "u1"}
	f := newOrderFixtureWithSessions(sessions, WithPublisher(pub))
	sessions.Get("u1").Apply(cart.AddProduct{Product: p1})

	status, _ := request(t, f.app, "POST", "/api/v1/orders")
	require.Equal(t, fiber.StatusCreated, status)
	assert.True(t, pub.unlocked)
	assert.True(t, pub.cleared)
}

func TestCreateOrder_StoreFailureKeepsCart(t *testing.T) {
	f := newOrderFixture()
	f.orders.err = errors.New("store unavailable")
	f.sessions.Get("u1").Apply(cart.AddProduct{Product: p1})

	status, _ := request(t, f.app, "POST", "/api/v1/orders")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, 1, f.sessions.Get("u1").Snapshot().ItemCount())
}

func TestCreateOrder_WarningsReported(t *testing.T) {
	f := newOrderFixture()
	ghost := product.Product{ID: "ghost", Name: "Ghost", Price: p1.Price, Stock: 1}
	f.sessions.Get("u1").Apply(cart.AddProduct{Product: ghost})

	status, body := request(t, f.app, "POST", "/api/v1/orders")
	require.Equal(t, fiber.StatusCreated, status)

	var resp struct {
		Warnings []warningView `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, "ghost", resp.Warnings[0].ProductID)
	assert.Equal(t, ReasonProductMissing, resp.Warnings[0].Reason)
}

func TestGetOrders(t *testing.T) {
	f := newOrderFixture()
	f.sessions.Get("u1").Apply(cart.AddProduct{Product: p1})
	status, _ := request(t, f.app, "POST", "/api/v1/orders")
	require.Equal(t, fiber.StatusCreated, status)

	status, body := request(t, f.app, "GET", "/api/v1/orders")
	require.Equal(t, fiber.StatusOK, status)
	var orders []Order
	require.NoError(t, json.Unmarshal(body, &orders))
	assert.Len(t, orders, 1)
}

func TestOrderRoutes_RequireUser(t *testing.T) {
	f := newOrderFixture()

	res, err := f.app.Test(httptest.NewRequest("GET", "/api/v1/orders", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}
