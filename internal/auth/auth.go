// Package auth issues and checks the bearer tokens that tie a request to a
// cart session, and guards the catalog admin routes.
package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 72 * time.Hour

var ErrInvalidCredentials = errors.New("invalid email or password")

type Issuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

// Guest issues a token for a fresh anonymous shopper.
func (i *Issuer) Guest() (token, userID string, err error) {
	userID = uuid.NewString()
	token, err = i.sign(jwt.MapClaims{"user_id": userID})
	return token, userID, err
}

// Admin issues a token that passes RequireAdmin.
func (i *Issuer) Admin(email string) (string, error) {
	return i.sign(jwt.MapClaims{
		"user_id": "admin:" + email,
		"email":   email,
		"admin":   true,
	})
}

func (i *Issuer) sign(claims jwt.MapClaims) (string, error) {
	claims["exp"] = i.now().Add(tokenTTL).Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Middleware validates the bearer token and stores it in c.Locals("user").
func Middleware(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		},
	})
}

// RequireAdmin rejects tokens without the admin claim.
func RequireAdmin(c *fiber.Ctx) error {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	if admin, _ := claims["admin"].(bool); !admin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "admin only"})
	}
	return c.Next()
}

// UserIDFromCtx extracts the user_id claim from the token in c.Locals("user").
func UserIDFromCtx(c *fiber.Ctx) (string, error) {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return "", err
	}
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return "", fiber.ErrUnauthorized
	}
	return id, nil
}

func claimsFromCtx(c *fiber.Ctx) (jwt.MapClaims, error) {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// CheckAdmin compares the given credentials with the configured admin account.
func CheckAdmin(email, password, wantEmail, passwordHash string) error {
	if wantEmail == "" || passwordHash == "" || email != wantEmail {
		return ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}
