// Package sale finalizes carts into persisted sales: the checkout step of
// the POS flow.
package sale

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/farmapos/pos-api/internal/domain/cart"
	"github.com/farmapos/pos-api/internal/domain/pricing"
)

var (
	// ErrEmptyCart is returned when checking out a cart with no items.
	ErrEmptyCart = errors.New("cannot check out an empty cart")
	// ErrPrescriptionNotVerified is returned when a cart contains
	// prescription items that a pharmacist has not verified.
	ErrPrescriptionNotVerified = errors.New("prescription items require verification before checkout")
)

// Sale is a completed transaction.
type Sale struct {
	ID     string          `json:"id"`
	Items  []cart.LineItem `json:"items"`
	Policy pricing.Policy  `json:"policy"`
	Totals pricing.Totals  `json:"totals"`

	StarPointsID     string `json:"star_points_id,omitempty"`
	StarPointsEarned int64  `json:"star_points_earned"`

	CreatedAt time.Time `json:"created_at"`
}

// Repository persists completed sales. Create decrements stock for every
// line and writes the sale row atomically: when any line exceeds available
// stock it returns *catalog.InsufficientStockError and nothing is persisted.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
}
