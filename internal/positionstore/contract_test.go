// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package positionstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/stretchr/testify/require"
)

const openapiPath = "../../api/openapi.yaml"

var (
	openapiOnce sync.Once
	openapiDoc  *openapi3.T
	openapiErr  error
)

func loadOpenAPIDoc(t *testing.T) *openapi3.T {
	t.Helper()
	openapiOnce.Do(func() {
		doc, err := openapi3.NewLoader().LoadFromFile(openapiPath)
		if err != nil {
			openapiErr = err
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			openapiErr = err
			return
		}
		openapiDoc = doc
	})
	if openapiErr != nil {
		t.Fatalf("openapi load failed: %v", openapiErr)
	}
	return openapiDoc
}

func validateExchange(t *testing.T, doc *openapi3.T, req *http.Request, rr *httptest.ResponseRecorder) {
	t.Helper()
	router, err := legacy.NewRouter(doc)
	require.NoError(t, err, "openapi router init")

	route, pathParams, err := router.FindRoute(req)
	require.NoError(t, err, "openapi route lookup %s %s", req.Method, req.URL.Path)

	reqInput := &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: pathParams,
		Route:      route,
	}
	require.NoError(t, openapi3filter.ValidateRequest(context.Background(), reqInput), "openapi request validation")

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: reqInput,
		Status:                 rr.Code,
		Header:                 rr.Header(),
	}
	input.SetBodyBytes(rr.Body.Bytes())
	require.NoError(t, openapi3filter.ValidateResponse(context.Background(), input), "openapi response validation")
}

func TestContract_WireFormat(t *testing.T) {
	doc := loadOpenAPIDoc(t)
	h := NewHandler(NewMemoryStore(), Config{RateLimit: 4, RateWindow: time.Minute})

	steps := []struct {
		method, target string
		status         int
	}{
		{http.MethodGet, "/userId/u1/videoId/v1/", http.StatusOK},
		{http.MethodPost, "/userId/u1/videoId/v1/position/120.75", http.StatusNoContent},
		{http.MethodGet, "/userId/u1/videoId/v1/", http.StatusOK},
		{http.MethodDelete, "/userId/u1/videoId/v1/", http.StatusNoContent},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/userId/u1/videoId/v1/", http.StatusTooManyRequests},
	}
	for _, step := range steps {
		req := httptest.NewRequest(step.method, step.target, nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, step.status, rr.Code, "%s %s", step.method, step.target)

		// Re-create the request so the validator sees an unread body.
		validateExchange(t, doc, httptest.NewRequest(step.method, step.target, nil), rr)
	}
}

func TestContract_BadRequestDocumented(t *testing.T) {
	doc := loadOpenAPIDoc(t)
	h := NewHandler(NewMemoryStore(), Config{})

	req := httptest.NewRequest(http.MethodPost, "/userId/u/videoId/v/position/abc", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	router, err := legacy.NewRouter(doc)
	require.NoError(t, err)
	route, _, err := router.FindRoute(req)
	require.NoError(t, err)
	require.NotNil(t, route.Operation.Responses.Status(http.StatusBadRequest))
}
