package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/farmapos/pos-api/internal/domain/cart"
	"github.com/farmapos/pos-api/internal/domain/pricing"
)

// cartResponse is a cart plus its recomputed totals. Totals are derived on
// every read so they always reflect the current items and policy.
type cartResponse struct {
	cart.Cart
	Totals pricing.Totals `json:"totals"`
}

func newCartResponse(c *cart.Cart) (cartResponse, error) {
	totals, err := c.Totals()
	if err != nil {
		return cartResponse{}, err
	}
	return cartResponse{Cart: c.Snapshot(), Totals: totals}, nil
}

// respondCart writes a cart with its totals, or maps the error.
func respondCart(w http.ResponseWriter, r *http.Request, status int, c *cart.Cart, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := newCartResponse(c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, status, resp)
}

// CreateCart starts an empty cart session.
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Create(r.Context())
	respondCart(w, r, http.StatusCreated, c, err)
}

// GetCart returns a cart with its current totals.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), chi.URLParam(r, "id"))
	respondCart(w, r, http.StatusOK, c, err)
}

// ClearCart empties a cart and resets its discount and prescription state.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Clear(r.Context(), chi.URLParam(r, "id"))
	respondCart(w, r, http.StatusOK, c, err)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddItem adds a product to the cart, merging with an existing line for the
// same product.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.carts.AddItem(r.Context(), chi.URLParam(r, "id"), req.ProductID, req.Quantity)
	respondCart(w, r, http.StatusOK, c, err)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateQuantity replaces the quantity of an existing line.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.carts.UpdateQuantity(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "productID"), req.Quantity)
	respondCart(w, r, http.StatusOK, c, err)
}

// RemoveItem deletes a line from the cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveItem(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "productID"))
	respondCart(w, r, http.StatusOK, c, err)
}

type discountRequest struct {
	Kind          string          `json:"kind"`
	CustomPercent decimal.Decimal `json:"custom_percent"`
}

// SetDiscount applies a cart-level discount policy.
func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	policy := pricing.Policy{
		Kind:          pricing.PolicyKind(req.Kind),
		CustomPercent: req.CustomPercent,
	}
	c, err := h.carts.SetDiscount(r.Context(), chi.URLParam(r, "id"), policy)
	respondCart(w, r, http.StatusOK, c, err)
}

type prescriptionRequest struct {
	Verified bool `json:"verified"`
}

// VerifyPrescription records the pharmacist's verification decision.
func (h *Handler) VerifyPrescription(w http.ResponseWriter, r *http.Request) {
	var req prescriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.carts.VerifyPrescription(r.Context(), chi.URLParam(r, "id"), req.Verified)
	respondCart(w, r, http.StatusOK, c, err)
}
