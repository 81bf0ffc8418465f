package auth

import (
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	issuer     *Issuer
	adminEmail string
	adminHash  string
}

func NewHandler(issuer *Issuer, adminEmail, adminPasswordHash string) *Handler {
	return &Handler{issuer: issuer, adminEmail: adminEmail, adminHash: adminPasswordHash}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Post("/session", h.newSession)
	r.Post("/admin/sign-in", h.adminSignIn)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) newSession(c *fiber.Ctx) error {
	token, userID, err := h.issuer.Guest()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"userId": userID,
		"token":  token,
	})
}

func (h *Handler) adminSignIn(c *fiber.Ctx) error {
	payload := new(signInRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	if err := CheckAdmin(payload.Email, payload.Password, h.adminEmail, h.adminHash); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid email or password"})
	}

	token, err := h.issuer.Admin(payload.Email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}
