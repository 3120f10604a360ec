package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farmapos/pos-api/internal/domain/sale"
)

type checkoutRequest struct {
	StarPointsID string `json:"star_points_id"`
}

// Checkout finalizes the cart into a persisted sale. The body is optional;
// a StarPoints card ID accrues earned points to that member.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	s, err := h.sales.Checkout(r.Context(), chi.URLParam(r, "id"), sale.CheckoutRequest{
		StarPointsID: req.StarPointsID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, s)
}
