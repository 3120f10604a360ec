package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/farmapos/pos-api/internal/domain/cart"
	"github.com/farmapos/pos-api/internal/domain/catalog"
	"github.com/farmapos/pos-api/internal/domain/hold"
	"github.com/farmapos/pos-api/internal/domain/loyalty"
	"github.com/farmapos/pos-api/internal/domain/pricing"
	"github.com/farmapos/pos-api/internal/domain/sale"
)

// writeError maps a domain error to an HTTP error response. Unrecognized
// errors are logged and surfaced as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, hold.ErrNotFound):
		writeErrorJSON(w, http.StatusNotFound, err.Error())
		return

	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrInvalidDiscountValue),
		errors.Is(err, pricing.ErrUnknownPolicy),
		errors.Is(err, sale.ErrEmptyCart),
		errors.Is(err, hold.ErrEmptyCart),
		errors.Is(err, loyalty.ErrMemberNotFound):
		writeErrorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return

	case errors.Is(err, sale.ErrPrescriptionNotVerified):
		writeErrorJSON(w, http.StatusConflict, err.Error())
		return
	}

	var lineErr *cart.LineNotFoundError
	if errors.As(err, &lineErr) {
		writeErrorJSON(w, http.StatusNotFound, lineErr.Error())
		return
	}

	var stockErr *catalog.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeErrorJSON(w, http.StatusConflict, stockErr.Error())
		return
	}

	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	writeErrorJSON(w, http.StatusInternalServerError, "internal server error")
}
