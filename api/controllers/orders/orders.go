package orders

import (
	"net/http"
	"strings"

	"github.com/mercato-dev/mercato-backend/api/middleware"
	"github.com/mercato-dev/mercato-backend/api/responses"
	"github.com/mercato-dev/mercato-backend/api/validators"
	internalorders "github.com/mercato-dev/mercato-backend/internal/orders"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
	"github.com/mercato-dev/mercato-backend/pkg/pagination"
)

// BuyerList returns the caller's orders, newest first.
func BuyerList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return list(svc, logg, func(r *http.Request, userID uint64, params pagination.Params) (*internalorders.ListResult, error) {
		return svc.ListBuyerOrders(r.Context(), userID, params)
	})
}

// SellerList returns the orders placed with the calling seller.
func SellerList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return list(svc, logg, func(r *http.Request, userID uint64, params pagination.Params) (*internalorders.ListResult, error) {
		return svc.ListSellerOrders(r.Context(), userID, params)
	})
}

type listFunc func(r *http.Request, userID uint64, params pagination.Params) (*internalorders.ListResult, error)

func list(svc internalorders.Service, logg *logger.Logger, fetch listFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		userID := middleware.UserIDFromContext(r.Context())
		if userID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		result, err := fetch(r, userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Detail returns a single order to its buyer, its seller or an admin.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		userID := middleware.UserIDFromContext(r.Context())
		if userID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), userID, middleware.RoleFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Confirm moves a pending order to confirmed on behalf of its seller.
func Confirm(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		sellerID := middleware.UserIDFromContext(r.Context())
		if sellerID == 0 || middleware.RoleFromContext(r.Context()) != enums.UserRoleSeller {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "seller role required"))
			return
		}
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Confirm(r.Context(), sellerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminRefreshStatuses runs the time-based status sweep on demand.
func AdminRefreshStatuses(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		result, err := svc.RefreshStatuses(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
