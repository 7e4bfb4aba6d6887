package controllers

import (
	"net/http"

	"github.com/neumaticos/tirestore/api/responses"
	"github.com/neumaticos/tirestore/api/validators"
	"github.com/neumaticos/tirestore/internal/orders"
	"github.com/neumaticos/tirestore/pkg/enums"
	pkgerrors "github.com/neumaticos/tirestore/pkg/errors"
	"github.com/neumaticos/tirestore/pkg/logger"
	"github.com/neumaticos/tirestore/pkg/pagination"
)

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrdersList returns every order, optionally filtered by ?status=.
func AdminOrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *enums.OrderStatus
		if raw := validators.SanitizeString(r.URL.Query().Get("status"), 32); raw != "" {
			parsed, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			status = &parsed
		}
		list, err := svc.ListAll(r.Context(), pagination.ParamsFromQuery(r.URL.Query()), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminOrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		order, err := svc.UpdateStatus(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
