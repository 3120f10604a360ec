package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/farmapos/pos-api/internal/domain/catalog"
	"github.com/farmapos/pos-api/internal/domain/pricing"
)

// Store persists active carts by ID. Get returns ErrCartNotFound for an
// unknown ID.
type Store interface {
	Get(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
}

// Service owns cart session lifecycle and mutations. Every mutation loads the
// cart from the store, applies the change, and saves it back, so reads always
// observe recomputed totals.
type Service struct {
	carts    Store
	products catalog.Repository
	now      func() time.Time
}

// NewService creates a cart Service over the given store and catalog.
func NewService(carts Store, products catalog.Repository) *Service {
	return &Service{
		carts:    carts,
		products: products,
		now:      time.Now,
	}
}

// Create starts an empty cart for a new terminal session.
func (s *Service) Create(ctx context.Context) (*Cart, error) {
	now := s.now()
	c := &Cart{
		ID:        uuid.New().String(),
		Policy:    pricing.Policy{Kind: pricing.PolicyNone},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// Get returns the cart for id.
func (s *Service) Get(ctx context.Context, id string) (*Cart, error) {
	return s.carts.Get(ctx, id)
}

// AddItem adds qty units of a product to the cart, merging into an existing
// line for the same product. The unit price is snapshotted from the catalog
// at add time. The merged quantity is checked against available stock.
func (s *Service) AddItem(ctx context.Context, cartID, productID string, qty int) (*Cart, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	merged := c.Quantity(productID) + qty
	if merged > p.Stock {
		return nil, &catalog.InsufficientStockError{
			ProductID: productID,
			Requested: merged,
			Available: p.Stock,
		}
	}

	item := LineItem{
		ProductID:            p.ID,
		Name:                 p.Name,
		Category:             p.Category,
		DosageAmount:         p.DosageAmount,
		DosageUnit:           p.DosageUnit,
		Price:                p.Price,
		RequiresPrescription: p.RequiresPrescription,
		SKUKind:              p.SKUKind,
	}
	if err := c.addLine(item, qty); err != nil {
		return nil, err
	}

	return s.save(ctx, c)
}

// RemoveItem deletes the line for productID from the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, productID string) (*Cart, error) {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := c.removeLine(productID); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

// UpdateQuantity sets the quantity of an existing line. Non-positive
// quantities are rejected and leave the cart unchanged.
func (s *Service) UpdateQuantity(ctx context.Context, cartID, productID string, qty int) (*Cart, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if qty > p.Stock {
		return nil, &catalog.InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: p.Stock,
		}
	}

	if err := c.setQuantity(productID, qty); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

// SetDiscount applies a cart-level discount policy.
func (s *Service) SetDiscount(ctx context.Context, cartID string, policy pricing.Policy) (*Cart, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	c.Policy = policy
	return s.save(ctx, c)
}

// VerifyPrescription records the pharmacist's verification. It is a no-op
// when the cart has no prescription items.
func (s *Service) VerifyPrescription(ctx context.Context, cartID string, verified bool) (*Cart, error) {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if c.PrescriptionRequired {
		c.PrescriptionVerified = verified
	}
	return s.save(ctx, c)
}

// Clear empties the cart and resets its derived state.
func (s *Service) Clear(ctx context.Context, cartID string) (*Cart, error) {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	c.clear()
	return s.save(ctx, c)
}

func (s *Service) save(ctx context.Context, c *Cart) (*Cart, error) {
	c.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}
