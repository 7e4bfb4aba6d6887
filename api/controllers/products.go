package controllers

import (
	"net/http"
	"strconv"

	"github.com/neumaticos/tirestore/api/responses"
	"github.com/neumaticos/tirestore/api/validators"
	"github.com/neumaticos/tirestore/internal/catalog"
	"github.com/neumaticos/tirestore/pkg/enums"
	pkgerrors "github.com/neumaticos/tirestore/pkg/errors"
	"github.com/neumaticos/tirestore/pkg/logger"
)

// ProductsList serves the public catalog, optionally narrowed by
// ?category= and ?on_sale=true.
func ProductsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		var filter catalog.ListFilter

		if raw := validators.SanitizeString(query.Get("category"), 32); raw != "" {
			category, err := enums.ParseProductCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			filter.Category = &category
		}
		if raw := validators.SanitizeString(query.Get("on_sale"), 5); raw != "" {
			onSale, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "on_sale must be a boolean"))
				return
			}
			filter.OnSale = onSale
		}

		products, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func ProductGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.FetchByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
