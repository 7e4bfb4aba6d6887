package controllers

import (
	"net/http"

	"github.com/neumaticos/tirestore/api/responses"
	"github.com/neumaticos/tirestore/internal/adminstats"
	"github.com/neumaticos/tirestore/pkg/logger"
)

func AdminStats(svc adminstats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Compute(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
