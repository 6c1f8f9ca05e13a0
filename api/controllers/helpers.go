package controllers

import (
	"net/http"

	"github.com/mercato-dev/mercato-backend/api/middleware"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
)

func requireUser(r *http.Request) (uint64, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return userID, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable")
}
