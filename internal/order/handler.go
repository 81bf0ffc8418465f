package order

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-backend/internal/apperr"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/cart"
)

// Handler places orders from the caller's session cart and lists the
// caller's past orders.
type Handler struct {
	placer   *Placer
	service  *Service
	sessions *cart.Sessions
}

func NewHandler(placer *Placer, service *Service, sessions *cart.Sessions) *Handler {
	return &Handler{placer: placer, service: service, sessions: sessions}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.getOrders)
}

type warningView struct {
	ProductID string `json:"productId"`
	Reason    string `json:"reason"`
	Message   string `json:"message,omitempty"`
}

func (h *Handler) createOrder(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	// the session stays locked until the cart is cleared, so no intent can
	// land between the snapshot and the clear
	var result PlacementResult
	session, ok := h.sessions.Lookup(userID)
	if !ok {
		_, err = h.placer.Persist(c.UserContext(), userID, cart.Empty())
	} else {
		_, err = session.Update(func(cur cart.State) (cart.Action, error) {
			r, err := h.placer.Persist(c.UserContext(), userID, cur)
			if err != nil {
				return nil, err
			}
			result = r
			return cart.Clear{}, nil
		})
	}
	if err != nil {
		return c.Status(apperr.StatusCode(err)).JSON(fiber.Map{"message": err.Error()})
	}
	h.placer.Publish(c.UserContext(), result)

	warnings := make([]warningView, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		v := warningView{ProductID: w.ProductID, Reason: w.Reason}
		if w.Err != nil {
			v.Message = w.Err.Error()
		}
		warnings = append(warnings, v)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"orderId":  result.OrderID,
		"order":    result.Order,
		"warnings": warnings,
	})
}

// getOrders returns all orders belonging to the currently authenticated user.
func (h *Handler) getOrders(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	orders, err := h.service.ListForUser(c.UserContext(), userID)
	if err != nil {
		return c.Status(apperr.StatusCode(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(orders)
}
