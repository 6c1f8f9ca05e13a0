package controllers

import (
	"net/http"

	"github.com/mercato-dev/mercato-backend/api/responses"
	"github.com/mercato-dev/mercato-backend/api/validators"
	"github.com/mercato-dev/mercato-backend/internal/checkout"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
)

type checkoutRequest struct {
	Address string `json:"address" validate:"required,max=255"`
	City    string `json:"city" validate:"required,max=120"`
}

// Checkout converts the buyer's cart into one order per seller.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("checkout service"))
			return
		}
		buyerID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), buyerID, checkout.Input{Address: payload.Address, City: payload.City})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
