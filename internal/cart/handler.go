package cart

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-backend/internal/apperr"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/product"
)

var ErrOutOfStock = errors.New("not enough stock")

// ProductSource resolves the product a cart intent refers to.
type ProductSource interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

// Handler exposes a shopper's session cart over HTTP and enforces the stock
// bound before handing intents to the reducer.
type Handler struct {
	sessions *Sessions
	products ProductSource
}

func NewHandler(sessions *Sessions, products ProductSource) *Handler {
	return &Handler{sessions: sessions, products: products}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/cart", h.getCart)
	r.Delete("/cart", h.clearCart)
	r.Post("/cart/items", h.addItem)
	r.Put("/cart/items/:productId", h.setQuantity)
	r.Delete("/cart/items/:productId", h.removeItem)
}

type LineView struct {
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal string          `json:"subtotal"`
}

type StateView struct {
	Items     []LineView `json:"items"`
	Total     string     `json:"total"`
	ItemCount int        `json:"itemCount"`
}

// View renders s with prices fixed to two decimals.
func View(s State) StateView {
	items := make([]LineView, 0, len(s.Lines))
	for _, l := range s.Lines {
		items = append(items, LineView{
			Product:  l.Product,
			Quantity: l.Quantity,
			Subtotal: l.Subtotal().StringFixed(2),
		})
	}
	return StateView{Items: items, Total: s.Total.StringFixed(2), ItemCount: s.ItemCount()}
}

// apply runs a on the user's cart if one exists. Actions that can only shrink
// a cart never need to create it.
func (h *Handler) apply(userID string, a Action) State {
	s, ok := h.sessions.Lookup(userID)
	if !ok {
		return Empty()
	}
	return s.Apply(a)
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	return c.JSON(View(h.sessions.Peek(userID)))
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	h.apply(userID, Clear{})
	return c.SendStatus(fiber.StatusNoContent)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	payload := new(addItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "productId is required"})
	}

	p, err := h.products.GetByID(c.UserContext(), payload.ProductID)
	if err != nil {
		return errorResponse(c, err)
	}

	state, err := h.sessions.Get(userID).Update(func(cur State) (Action, error) {
		if cur.Quantity(p.ID) >= p.Stock {
			return nil, ErrOutOfStock
		}
		return AddProduct{Product: p}, nil
	})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(View(state))
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) setQuantity(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	payload := new(setQuantityRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Quantity == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "quantity is required"})
	}
	id := c.Params("productId")
	qty := *payload.Quantity

	if qty > 0 {
		p, err := h.products.GetByID(c.UserContext(), id)
		if err != nil {
			return errorResponse(c, err)
		}
		if qty > p.Stock {
			return errorResponse(c, ErrOutOfStock)
		}
	}
	// SetQuantity never adds a line, so a missing cart stays missing
	return c.JSON(View(h.apply(userID, SetQuantity{ProductID: id, Quantity: qty})))
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	return c.JSON(View(h.apply(userID, RemoveProduct{ProductID: c.Params("productId")})))
}

func errorResponse(c *fiber.Ctx, err error) error {
	status := apperr.StatusCode(err)
	if errors.Is(err, ErrOutOfStock) {
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{"message": err.Error()})
}
