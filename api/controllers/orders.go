package controllers

import (
	"net/http"

	"github.com/neumaticos/tirestore/api/responses"
	"github.com/neumaticos/tirestore/internal/orders"
	"github.com/neumaticos/tirestore/pkg/logger"
	"github.com/neumaticos/tirestore/pkg/pagination"
)

// OrdersList returns the caller's orders, newest first.
func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListByUser(r.Context(), userID, pagination.ParamsFromQuery(r.URL.Query()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetByID(r.Context(), orders.Actor{UserID: userID, Role: requestRole(r)}, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
