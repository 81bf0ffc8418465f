// Package cart holds a shopper's cart as an immutable State and the pure
// Reduce function that moves it from one State to the next.
//
// Reduce never checks stock. Keeping a line's quantity within the product's
// stock is the caller's job; the reducer stores whatever quantity it is given.
package cart

import (
	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/product"
)

type Line struct {
	Product  product.Product
	Quantity int
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// State is a cart snapshot. Lines keep insertion order and hold at most one
// line per product. Total is always derived from Lines.
type State struct {
	Lines []Line
	Total decimal.Decimal
}

func Empty() State {
	return State{Lines: []Line{}, Total: decimal.Zero}
}

// ItemCount is the sum of all line quantities.
func (s State) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

// Quantity returns the quantity held for productID, or 0.
func (s State) Quantity(productID string) int {
	if i := s.indexOf(productID); i >= 0 {
		return s.Lines[i].Quantity
	}
	return 0
}

func (s State) IsEmpty() bool { return len(s.Lines) == 0 }

func (s State) indexOf(productID string) int {
	for i, l := range s.Lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Action is one cart intent.
type Action interface {
	apply(lines []Line) []Line
}

// AddProduct increments the product's line, appending one with quantity 1 if
// the cart does not hold it yet.
type AddProduct struct {
	Product product.Product
}

func (a AddProduct) apply(lines []Line) []Line {
	for i := range lines {
		if lines[i].Product.ID == a.Product.ID {
			lines[i].Quantity++
			return lines
		}
	}
	return append(lines, Line{Product: a.Product, Quantity: 1})
}

type RemoveProduct struct {
	ProductID string
}

func (a RemoveProduct) apply(lines []Line) []Line {
	out := lines[:0]
	for _, l := range lines {
		if l.Product.ID != a.ProductID {
			out = append(out, l)
		}
	}
	return out
}

// SetQuantity overwrites a line's quantity. Zero or less removes the line.
// Unknown products are ignored.
type SetQuantity struct {
	ProductID string
	Quantity  int
}

func (a SetQuantity) apply(lines []Line) []Line {
	if a.Quantity <= 0 {
		return RemoveProduct{ProductID: a.ProductID}.apply(lines)
	}
	for i := range lines {
		if lines[i].Product.ID == a.ProductID {
			lines[i].Quantity = a.Quantity
		}
	}
	return lines
}

type Clear struct{}

func (Clear) apply([]Line) []Line { return []Line{} }

// Reduce returns the state that results from applying a to s. s is not
// modified.
func Reduce(s State, a Action) State {
	lines := make([]Line, len(s.Lines))
	copy(lines, s.Lines)
	return withLines(a.apply(lines))
}

func withLines(lines []Line) State {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return State{Lines: lines, Total: total}
}
