// Package hold manages suspended transactions: a cashier parks the active
// cart, serves other customers, and recalls it later. Held transactions are
// durable and have no expiry.
package hold

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/farmapos/pos-api/internal/domain/cart"
	"github.com/farmapos/pos-api/internal/domain/pricing"
)

var (
	// ErrEmptyCart is returned when holding a cart with no items.
	ErrEmptyCart = errors.New("cannot hold an empty cart")
	// ErrNotFound is returned when recalling an unknown or already-recalled ID.
	ErrNotFound = errors.New("held transaction not found")
)

// HeldTransaction is a suspended cart snapshot.
type HeldTransaction struct {
	ID    string          `json:"id"`
	Items []cart.LineItem `json:"items"`

	Policy               pricing.Policy  `json:"policy"`
	Total                decimal.Decimal `json:"total"`
	PrescriptionRequired bool            `json:"prescription_required"`
	PrescriptionVerified bool            `json:"prescription_verified"`

	CustomerID   string `json:"customer_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	StarPointsID string `json:"star_points_id,omitempty"`
	Note         string `json:"note,omitempty"`

	HeldAt time.Time `json:"held_at"`
}

// Repository persists held transactions.
type Repository interface {
	Insert(ctx context.Context, ht *HeldTransaction) error

	// List returns all held transactions in hold order.
	List(ctx context.Context) ([]HeldTransaction, error)

	// Remove atomically removes and returns the record for id, or ErrNotFound.
	Remove(ctx context.Context, id string) (*HeldTransaction, error)

	// Clear wipes the held list. Administrative use only.
	Clear(ctx context.Context) error
}
