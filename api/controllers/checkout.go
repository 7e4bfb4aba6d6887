package controllers

import (
	"net/http"

	"github.com/neumaticos/tirestore/api/responses"
	"github.com/neumaticos/tirestore/api/validators"
	"github.com/neumaticos/tirestore/internal/checkout"
	"github.com/neumaticos/tirestore/internal/users"
	"github.com/neumaticos/tirestore/pkg/logger"
)

// Checkout turns the caller's cart into an order. The profile supplies the
// name and email used when the shipping address leaves them blank.
func Checkout(svc checkout.Service, profiles users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input checkout.Input
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := profiles.Profile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), checkout.Identity{
			UserID: userID,
			Email:  profile.Email,
			Name:   profile.Name,
		}, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
