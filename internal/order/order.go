package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/apperr"
)

var ErrNotFound = fmt.Errorf("order %w", apperr.ErrNotFound)

// Status values are persisted verbatim.
type Status string

const (
	StatusPending    Status = "pendiente"
	StatusProcessing Status = "procesando"
	StatusShipped    Status = "enviado"
	StatusDelivered  Status = "entregado"
	StatusCancelled  Status = "cancelado"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// LineSnapshot is a copy of a cart line taken when the order was placed.
// Later catalog edits do not touch it.
type LineSnapshot struct {
	ProductID   string          `json:"productoId"`
	ProductName string          `json:"nombreProducto"`
	UnitPrice   decimal.Decimal `json:"precioUnitario"`
	Quantity    int             `json:"cantidad"`
}

func (l LineSnapshot) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order represents a purchase made by a user. Total is computed once at
// creation and never recomputed.
type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"usuarioId"`
	CreatedAt time.Time       `json:"fecha"`
	Status    Status          `json:"estado"`
	Total     decimal.Decimal `json:"total"`
	Lines     []LineSnapshot  `json:"productos"`
}

func totalOf(lines []LineSnapshot) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
