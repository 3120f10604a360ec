package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farmapos/pos-api/internal/domain/hold"
)

type holdRequest struct {
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	StarPointsID string `json:"star_points_id"`
	Note         string `json:"note"`
}

// HoldCart suspends the cart into the held transaction list. The body is
// optional metadata; an absent body holds with no metadata.
func (h *Handler) HoldCart(w http.ResponseWriter, r *http.Request) {
	var req holdRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	ht, err := h.holds.Hold(r.Context(), chi.URLParam(r, "id"), hold.Options{
		CustomerID:   req.CustomerID,
		CustomerName: req.CustomerName,
		StarPointsID: req.StarPointsID,
		Note:         req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, ht)
}

// ListHolds returns all held transactions in hold order.
func (h *Handler) ListHolds(w http.ResponseWriter, r *http.Request) {
	holds, err := h.holds.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if holds == nil {
		holds = []hold.HeldTransaction{}
	}
	writeJSON(w, r, http.StatusOK, holds)
}

// recallResponse pairs the recalled record with the restored cart.
type recallResponse struct {
	Held *hold.HeldTransaction `json:"held"`
	Cart cartResponse          `json:"cart"`
}

// RecallHold removes a held transaction and restores it into a new cart.
func (h *Handler) RecallHold(w http.ResponseWriter, r *http.Request) {
	ht, c, err := h.holds.Recall(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	cr, err := newCartResponse(c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, recallResponse{Held: ht, Cart: cr})
}

// ClearHolds wipes the held transaction list.
func (h *Handler) ClearHolds(w http.ResponseWriter, r *http.Request) {
	if err := h.holds.Clear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
