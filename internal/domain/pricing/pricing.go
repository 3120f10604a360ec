// Package pricing computes cart totals: subtotal, cart-level discount,
// VAT, grand total, and StarPoints accrual. It is pure — no I/O, no state.
package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// PolicyKind enumerates the supported cart-level discount policies.
type PolicyKind string

const (
	// PolicyNone applies no discount.
	PolicyNone PolicyKind = "none"
	// PolicySenior applies the statutory 20% senior citizen discount.
	PolicySenior PolicyKind = "senior"
	// PolicyPWD applies the statutory 20% PWD discount.
	PolicyPWD PolicyKind = "pwd"
	// PolicyEmployee applies the 10% employee discount.
	PolicyEmployee PolicyKind = "employee"
	// PolicyCustom applies an arbitrary percentage carried in CustomPercent.
	PolicyCustom PolicyKind = "custom"
)

var (
	// ErrInvalidDiscountValue is returned when a custom discount percent is
	// outside the [0, 100] range.
	ErrInvalidDiscountValue = errors.New("discount percent must be between 0 and 100")
	// ErrUnknownPolicy is returned for a policy kind this engine does not know.
	ErrUnknownPolicy = errors.New("unknown discount policy")
)

var (
	hundred = decimal.NewFromInt(100)

	seniorRate   = decimal.NewFromInt(20).Div(hundred)
	employeeRate = decimal.NewFromInt(10).Div(hundred)

	// VAT is charged at a fixed 12% of the discounted subtotal.
	vatRate = decimal.NewFromInt(12).Div(hundred)

	// One StarPoint accrues per 200 of undiscounted subtotal.
	starPointsPer = decimal.NewFromInt(200)
)

// Policy is a cart-level discount policy. CustomPercent is only meaningful
// for PolicyCustom.
type Policy struct {
	Kind          PolicyKind      `json:"kind"`
	CustomPercent decimal.Decimal `json:"custom_percent"`
}

// Rate resolves the policy to a discount rate in [0, 1].
func (p Policy) Rate() (decimal.Decimal, error) {
	switch p.Kind {
	case PolicyNone, "":
		return decimal.Zero, nil
	case PolicySenior, PolicyPWD:
		return seniorRate, nil
	case PolicyEmployee:
		return employeeRate, nil
	case PolicyCustom:
		if p.CustomPercent.IsNegative() || p.CustomPercent.GreaterThan(hundred) {
			return decimal.Zero, ErrInvalidDiscountValue
		}
		return p.CustomPercent.Div(hundred), nil
	default:
		return decimal.Zero, errors.Wrapf(ErrUnknownPolicy, "%q", p.Kind)
	}
}

// Validate reports whether the policy is well formed.
func (p Policy) Validate() error {
	_, err := p.Rate()
	return err
}

// Item is a line item as seen by the pricing engine.
type Item struct {
	Price    decimal.Decimal
	Quantity int
}

// Totals holds every derived amount for a cart. Amounts are rounded to two
// decimal places at the discount and VAT steps only; Total is the exact sum
// of DiscountedSubtotal and VAT so the two always reconcile.
type Totals struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	DiscountedSubtotal decimal.Decimal `json:"discounted_subtotal"`
	VAT                decimal.Decimal `json:"vat"`
	Total              decimal.Decimal `json:"total"`

	// StarPoints is floor(Subtotal / 200), accrued off the undiscounted
	// subtotal.
	StarPoints int64 `json:"star_points"`
}

// ComputeTotals maps items and a discount policy to Totals. An empty item
// list yields all-zero totals.
func ComputeTotals(items []Item, policy Policy) (Totals, error) {
	rate, err := policy.Rate()
	if err != nil {
		return Totals{}, err
	}

	subtotal := decimal.Zero
	for _, item := range items {
		line := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}

	discount := subtotal.Mul(rate).Round(2)
	discounted := subtotal.Sub(discount)
	vat := discounted.Mul(vatRate).Round(2)

	return Totals{
		Subtotal:           subtotal,
		DiscountAmount:     discount,
		DiscountedSubtotal: discounted,
		VAT:                vat,
		Total:              discounted.Add(vat),
		StarPoints:         subtotal.Div(starPointsPer).Floor().IntPart(),
	}, nil
}
