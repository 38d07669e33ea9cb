// Package cart maintains quantity-by-product state for a shopping identity.
// Authenticated users get persisted rows, anonymous visitors get a
// session-scoped snapshot; both sit behind the same Store interface so
// handlers never branch on authentication state.
package cart

import (
	"context"
	"errors"
)

const ProductImageDir = "ecommerce/products"

// ErrNotFound is returned when an add references a product that does not exist.
var ErrNotFound = errors.New("product not found")

// Line is one product entry in a cart with its computed subtotal.
type Line struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  uint    `json:"quantity"`
	Image     string  `json:"image"`
	Total     float64 `json:"total"`
}

// Store is a cart bound to one identity. Add and Remove return the number
// of distinct lines left after the mutation.
type Store interface {
	Add(ctx context.Context, productID, qty uint) (int, error)
	Remove(ctx context.Context, productID, qty uint) (int, error)
	Lines(ctx context.Context) ([]Line, error)
	Clear(ctx context.Context) error
}
