package hold

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/farmapos/pos-api/internal/domain/cart"
)

// Options carries optional metadata attached to a hold.
type Options struct {
	CustomerID   string
	CustomerName string
	StarPointsID string
	Note         string
}

// Service suspends and resumes carts. Holding snapshots the active cart into
// the repository and deletes the cart; recalling removes the record and
// restores its snapshot into a fresh cart.
type Service struct {
	repo  Repository
	carts cart.Store
	now   func() time.Time
}

// NewService creates a hold Service.
func NewService(repo Repository, carts cart.Store) *Service {
	return &Service{
		repo:  repo,
		carts: carts,
		now:   time.Now,
	}
}

// Hold suspends the cart with cartID. An empty cart cannot be held; the held
// list is left untouched in that case.
func (s *Service) Hold(ctx context.Context, cartID string, opts Options) (*HeldTransaction, error) {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	totals, err := c.Totals()
	if err != nil {
		return nil, errors.Wrap(err, "compute totals")
	}

	snap := c.Snapshot()
	ht := &HeldTransaction{
		ID:                   "HOLD-" + uuid.New().String(),
		Items:                snap.Items,
		Policy:               snap.Policy,
		Total:                totals.Total,
		PrescriptionRequired: snap.PrescriptionRequired,
		PrescriptionVerified: snap.PrescriptionVerified,
		CustomerID:           opts.CustomerID,
		CustomerName:         opts.CustomerName,
		StarPointsID:         opts.StarPointsID,
		Note:                 opts.Note,
		HeldAt:               s.now(),
	}

	if err := s.repo.Insert(ctx, ht); err != nil {
		return nil, errors.Wrap(err, "insert held transaction")
	}

	// The active cart is gone once held. A failed delete leaves a stray cart
	// session behind, which expires with its TTL; the hold itself stands.
	if err := s.carts.Delete(ctx, cartID); err != nil {
		return nil, errors.Wrap(err, "delete cart")
	}

	return ht, nil
}

// List returns all held transactions in hold order.
func (s *Service) List(ctx context.Context) ([]HeldTransaction, error) {
	return s.repo.List(ctx)
}

// Recall removes the held transaction with id and restores its snapshot into
// a new active cart. Of two concurrent recalls for one id, exactly one wins;
// the other gets ErrNotFound.
func (s *Service) Recall(ctx context.Context, id string) (*HeldTransaction, *cart.Cart, error) {
	ht, err := s.repo.Remove(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	restored := &cart.Cart{
		ID:                   uuid.New().String(),
		Items:                ht.Items,
		Policy:               ht.Policy,
		PrescriptionRequired: ht.PrescriptionRequired,
		PrescriptionVerified: ht.PrescriptionVerified,
		CreatedAt:            s.now(),
		UpdatedAt:            s.now(),
	}
	if err := s.carts.Save(ctx, restored); err != nil {
		return nil, nil, errors.Wrap(err, "restore cart")
	}

	return ht, restored, nil
}

// Clear wipes all held transactions.
func (s *Service) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
