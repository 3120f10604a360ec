// Package catalog defines the product inventory as seen by the POS: pricing,
// stock levels, and prescription requirements.
package catalog

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// SKUKind enumerates how a product is sold.
type SKUKind string

const (
	// SKUPiece is sold per piece (tablet, capsule, sachet).
	SKUPiece SKUKind = "piece"
	// SKUBox is sold per box.
	SKUBox SKUKind = "box"
)

// InsufficientStockError indicates a requested quantity exceeds what is on
// hand for a product.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Product is a catalog item available for sale.
type Product struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Category             string          `json:"category"`
	DosageAmount         decimal.Decimal `json:"dosage_amount"`
	DosageUnit           string          `json:"dosage_unit"`
	Price                decimal.Decimal `json:"price"`
	Stock                int             `json:"stock"`
	RequiresPrescription bool            `json:"requires_prescription"`
	SKUKind              SKUKind         `json:"sku_kind"`
}

// Repository defines catalog access for the POS. It is read-only: stock
// movements happen at checkout, inside the sale repository's transaction.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
}
