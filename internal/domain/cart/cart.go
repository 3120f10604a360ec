// Package cart holds the active cart for a POS terminal session: an ordered
// list of line items plus the cart-level discount policy and prescription
// flags. Totals are always derived from the current items, never cached.
package cart

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/farmapos/pos-api/internal/domain/catalog"
	"github.com/farmapos/pos-api/internal/domain/pricing"
)

var (
	// ErrInvalidQuantity is returned when a quantity is zero or negative.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	// ErrCartNotFound is returned by a Store when no cart exists for an ID.
	ErrCartNotFound = errors.New("cart not found")
)

// LineNotFoundError indicates the cart holds no line for a product.
type LineNotFoundError struct {
	ProductID string
}

func (e *LineNotFoundError) Error() string {
	return fmt.Sprintf("no line item for product %s", e.ProductID)
}

// LineItem is one product entry in a cart. Price is snapshotted from the
// catalog at add time and not refreshed afterwards.
type LineItem struct {
	ProductID            string          `json:"product_id"`
	Name                 string          `json:"name"`
	Category             string          `json:"category"`
	DosageAmount         decimal.Decimal `json:"dosage_amount"`
	DosageUnit           string          `json:"dosage_unit"`
	Price                decimal.Decimal `json:"price"`
	Quantity             int             `json:"quantity"`
	RequiresPrescription bool            `json:"requires_prescription"`
	SKUKind              catalog.SKUKind `json:"sku_kind"`
}

// Cart is the mutable state of one terminal session. Items keep insertion
// order; a product appears in at most one line.
type Cart struct {
	ID     string         `json:"id"`
	Items  []LineItem     `json:"items"`
	Policy pricing.Policy `json:"policy"`

	// PrescriptionRequired is true iff any line requires a prescription.
	// PrescriptionVerified resets to false whenever PrescriptionRequired
	// transitions from false to true, and clears when the cart becomes
	// prescription-free.
	PrescriptionRequired bool `json:"prescription_required"`
	PrescriptionVerified bool `json:"prescription_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// line returns a pointer to the line for productID, or nil.
func (c *Cart) line(productID string) *LineItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// Quantity returns the current quantity of productID in the cart, zero when
// absent.
func (c *Cart) Quantity(productID string) int {
	if l := c.line(productID); l != nil {
		return l.Quantity
	}
	return 0
}

// addLine merges qty into an existing line for the same product or appends a
// new one, then refreshes the prescription flags.
func (c *Cart) addLine(item LineItem, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if l := c.line(item.ProductID); l != nil {
		l.Quantity += qty
	} else {
		item.Quantity = qty
		c.Items = append(c.Items, item)
	}
	c.refreshPrescriptionFlags()
	return nil
}

// removeLine deletes the line for productID, keeping item order.
func (c *Cart) removeLine(productID string) error {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.refreshPrescriptionFlags()
			return nil
		}
	}
	return &LineNotFoundError{ProductID: productID}
}

// setQuantity replaces the quantity of an existing line. Zero or negative
// quantities are rejected; callers remove the line instead.
func (c *Cart) setQuantity(productID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	l := c.line(productID)
	if l == nil {
		return &LineNotFoundError{ProductID: productID}
	}
	l.Quantity = qty
	return nil
}

// refreshPrescriptionFlags recomputes PrescriptionRequired and applies the
// verification transition rules.
func (c *Cart) refreshPrescriptionFlags() {
	required := false
	for i := range c.Items {
		if c.Items[i].RequiresPrescription {
			required = true
			break
		}
	}

	if required && !c.PrescriptionRequired {
		// Newly requiring a prescription: any earlier verification is void.
		c.PrescriptionVerified = false
	}
	if !required {
		c.PrescriptionVerified = false
	}
	c.PrescriptionRequired = required
}

// clear empties the cart and resets derived state to its initial values.
func (c *Cart) clear() {
	c.Items = nil
	c.Policy = pricing.Policy{Kind: pricing.PolicyNone}
	c.PrescriptionRequired = false
	c.PrescriptionVerified = false
}

// Totals computes the cart's totals from its current items and policy.
func (c *Cart) Totals() (pricing.Totals, error) {
	items := make([]pricing.Item, len(c.Items))
	for i, l := range c.Items {
		items[i] = pricing.Item{Price: l.Price, Quantity: l.Quantity}
	}
	return pricing.ComputeTotals(items, c.Policy)
}

// Snapshot returns a deep copy of the cart safe to hand to other stores.
func (c *Cart) Snapshot() Cart {
	cp := *c
	cp.Items = make([]LineItem, len(c.Items))
	copy(cp.Items, c.Items)
	return cp
}
