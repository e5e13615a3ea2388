package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEcho(handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/test", handler)
	return e
}

func TestMiddleware_StructuredError(t *testing.T) {
	e := newTestEcho(func(c echo.Context) error {
		return ValidationError("title is required")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "title is required", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
}

func TestMiddleware_UnavailableError(t *testing.T) {
	e := newTestEcho(func(c echo.Context) error {
		return UnavailableError("store unreachable", nil)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMiddleware_PlainErrorBecomesInternal(t *testing.T) {
	e := newTestEcho(func(c echo.Context) error {
		return assert.AnError
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, TypeInternal, resp.Type)
}

func TestMiddleware_EchoHTTPErrorPassesThrough(t *testing.T) {
	e := newTestEcho(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "no such route")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMiddleware_NoErrorPassesThrough(t *testing.T) {
	e := newTestEcho(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestWrapHTTPError(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{http.StatusBadRequest, TypeValidation},
		{http.StatusNotFound, TypeNotFound},
		{http.StatusUnauthorized, TypeAuthRequired},
		{http.StatusServiceUnavailable, TypeUnavailable},
		{http.StatusBadGateway, TypeInternal},
	}

	for _, tt := range tests {
		err := WrapHTTPError(echo.NewHTTPError(tt.code, "msg"))
		assert.Equal(t, tt.want, err.Type)
		assert.Equal(t, "msg", err.Message)
	}
}
