package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/neumaticos/tirestore/api/middleware"
	"github.com/neumaticos/tirestore/pkg/enums"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func asUser(req *http.Request, userID uuid.UUID, role enums.UserRole) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func serve(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}
