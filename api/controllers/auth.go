package controllers

import (
	"net/http"

	"github.com/neumaticos/tirestore/api/middleware"
	"github.com/neumaticos/tirestore/api/responses"
	"github.com/neumaticos/tirestore/api/validators"
	"github.com/neumaticos/tirestore/internal/auth"
	pkgerrors "github.com/neumaticos/tirestore/pkg/errors"
	"github.com/neumaticos/tirestore/pkg/logger"
)

func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp, err := svc.Register(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp, err := svc.Login(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RefreshRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp, err := svc.Refresh(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// AuthLogout must run behind middleware.Auth so the access id is known.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessID := middleware.AccessIDFromContext(r.Context())
		if accessID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing"))
			return
		}
		if err := svc.Logout(r.Context(), accessID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
