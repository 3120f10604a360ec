// Package handler exposes the POS domain over HTTP. Routes are registered on
// a chi router; request and response bodies are JSON.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farmapos/pos-api/internal/domain/cart"
	"github.com/farmapos/pos-api/internal/domain/catalog"
	"github.com/farmapos/pos-api/internal/domain/hold"
	"github.com/farmapos/pos-api/internal/domain/sale"
)

// Handler delegates HTTP requests to the domain services.
type Handler struct {
	products catalog.Repository
	carts    *cart.Service
	holds    *hold.Service
	sales    *sale.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products catalog.Repository,
	carts *cart.Service,
	holds *hold.Service,
	sales *sale.Service,
) *Handler {
	return &Handler{
		products: products,
		carts:    carts,
		holds:    holds,
		sales:    sales,
	}
}

// Routes returns the API router. Read-only routes are open; everything that
// mutates state goes through the auth middleware.
func (h *Handler) Routes(auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)
	r.Get("/carts/{id}", h.GetCart)
	r.Get("/holds", h.ListHolds)

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Post("/carts", h.CreateCart)
		r.Delete("/carts/{id}", h.ClearCart)
		r.Post("/carts/{id}/items", h.AddItem)
		r.Put("/carts/{id}/items/{productID}", h.UpdateQuantity)
		r.Delete("/carts/{id}/items/{productID}", h.RemoveItem)
		r.Put("/carts/{id}/discount", h.SetDiscount)
		r.Put("/carts/{id}/prescription", h.VerifyPrescription)
		r.Post("/carts/{id}/hold", h.HoldCart)
		r.Post("/carts/{id}/checkout", h.Checkout)

		r.Post("/holds/{id}/recall", h.RecallHold)
		r.Delete("/holds", h.ClearHolds)
	})

	return r
}
