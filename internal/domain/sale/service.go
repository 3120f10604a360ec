package sale

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/farmapos/pos-api/internal/domain/cart"
	"github.com/farmapos/pos-api/internal/domain/loyalty"
)

// CheckoutRequest carries the checkout inputs beyond the cart itself.
type CheckoutRequest struct {
	// StarPointsID, when set, accrues the earned points to that member.
	StarPointsID string
}

// Service performs checkout: validates the cart, prices it, persists the
// sale with its stock movements, accrues loyalty points, and retires the
// cart.
type Service struct {
	sales   Repository
	carts   cart.Store
	members *loyalty.Service
	now     func() time.Time
}

// NewService creates a checkout Service. members may be nil when loyalty is
// disabled; checkout then rejects any StarPointsID.
func NewService(sales Repository, carts cart.Store, members *loyalty.Service) *Service {
	return &Service{
		sales:   sales,
		carts:   carts,
		members: members,
		now:     time.Now,
	}
}

// Checkout finalizes the cart with cartID.
//
// The member lookup happens before any write so a bad card number aborts the
// sale cleanly. The repository then commits the stock decrements and the
// sale row in one transaction: a cart that cannot be fully served leaves
// stock untouched and the cart intact for the cashier to fix up. Point
// accrual and the cart delete run after that commit; their failures are
// logged and reconciled from the sale record rather than voiding a
// completed sale.
func (s *Service) Checkout(ctx context.Context, cartID string, req CheckoutRequest) (*Sale, error) {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if c.PrescriptionRequired && !c.PrescriptionVerified {
		return nil, ErrPrescriptionNotVerified
	}

	totals, err := c.Totals()
	if err != nil {
		return nil, errors.Wrap(err, "compute totals")
	}

	if req.StarPointsID != "" {
		if s.members == nil {
			return nil, loyalty.ErrMemberNotFound
		}
		if _, err := s.members.Lookup(ctx, req.StarPointsID); err != nil {
			return nil, err
		}
	}

	snap := c.Snapshot()
	sl := &Sale{
		ID:               uuid.New().String(),
		Items:            snap.Items,
		Policy:           snap.Policy,
		Totals:           totals,
		StarPointsID:     req.StarPointsID,
		StarPointsEarned: totals.StarPoints,
		CreatedAt:        s.now(),
	}
	if sl.StarPointsID == "" {
		sl.StarPointsEarned = 0
	}

	if err := s.sales.Create(ctx, sl); err != nil {
		return nil, errors.Wrap(err, "create sale")
	}

	lg := zctx.From(ctx)
	if sl.StarPointsID != "" && sl.StarPointsEarned > 0 {
		if _, err := s.members.Accrue(ctx, sl.StarPointsID, sl.StarPointsEarned); err != nil {
			lg.Error("Star points accrual failed after sale commit",
				zap.String("sale_id", sl.ID),
				zap.String("card_id", sl.StarPointsID),
				zap.Error(err))
		}
	}

	// A stray session expires with its TTL; the sale stands either way.
	if err := s.carts.Delete(ctx, cartID); err != nil {
		lg.Warn("Cart delete failed after sale commit",
			zap.String("cart_id", cartID),
			zap.Error(err))
	}

	return sl, nil
}
