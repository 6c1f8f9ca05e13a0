package controllers

import (
	"net/http"

	"github.com/mercato-dev/mercato-backend/api/responses"
	"github.com/mercato-dev/mercato-backend/api/validators"
	"github.com/mercato-dev/mercato-backend/internal/catalog"
	"github.com/mercato-dev/mercato-backend/internal/sellers"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
)

// CatalogList returns brands or categories, optionally filtered by ?q=.
func CatalogList(svc catalog.Service, kind enums.CatalogKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog service"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.List(r.Context(), kind, validators.SanitizeString(r.URL.Query().Get("q"), 200), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// SellerProfile returns a seller's public profile and rating.
func SellerProfile(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("sellers service"))
			return
		}
		sellerID, err := validators.ParsePathID(r, "sellerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.GetProfile(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
