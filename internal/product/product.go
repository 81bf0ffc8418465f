package product

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/apperr"
)

var ErrNotFound = fmt.Errorf("product %w", apperr.ErrNotFound)

// Product is a catalog entry. JSON tags keep the field names the mobile
// client already uses.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"nombre"`
	Description string          `json:"descripcion"`
	Price       decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	ImageURL    *string         `json:"imagenUrl,omitempty"`
}

// Fields is the writable part of a Product.
type Fields struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	ImageURL    *string
}

func (p Product) Fields() Fields {
	return Fields{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
	}
}

func (f Fields) withID(id string) Product {
	return Product{
		ID:          id,
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price,
		Stock:       f.Stock,
		ImageURL:    f.ImageURL,
	}
}

// Normalize trims text fields and drops an empty image URL.
func (f Fields) Normalize() Fields {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	if f.ImageURL != nil {
		trimmed := strings.TrimSpace(*f.ImageURL)
		if trimmed == "" {
			f.ImageURL = nil
		} else {
			f.ImageURL = &trimmed
		}
	}
	return f
}

// Validate returns every rejected field keyed by its wire name.
func (f Fields) Validate() map[string]string {
	errs := map[string]string{}
	if f.Name == "" {
		errs["nombre"] = "nombre is required"
	}
	if f.Description == "" {
		errs["descripcion"] = "descripcion is required"
	}
	switch {
	case !f.Price.IsPositive():
		errs["precio"] = "precio must be greater than 0"
	case !f.Price.Equal(f.Price.Round(2)):
		errs["precio"] = "precio must have at most 2 decimal places"
	}
	if f.Stock < 0 {
		errs["stock"] = "stock must be >= 0"
	}
	return errs
}
