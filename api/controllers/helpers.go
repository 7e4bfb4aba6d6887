package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/neumaticos/tirestore/api/middleware"
	"github.com/neumaticos/tirestore/pkg/enums"
	pkgerrors "github.com/neumaticos/tirestore/pkg/errors"
)

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func requestUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return id, nil
}

func requestRole(r *http.Request) enums.UserRole {
	return enums.UserRole(middleware.RoleFromContext(r.Context()))
}
