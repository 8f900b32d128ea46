package errors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, (&Error{Type: TypeValidation}).HTTPStatus())
	assert.Equal(t, http.StatusServiceUnavailable, UnavailableError("busy", nil).HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, InternalError("boom", nil).HTTPStatus())
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "unavailable: busy", UnavailableError("busy", nil).Error())

	cause := errors.New("closed")
	err := UnavailableError("busy", cause)
	assert.Equal(t, "unavailable: busy: closed", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestWithContext(t *testing.T) {
	err := UnavailableError("busy", nil).WithContext("transport", "sse").WithContext("n", 1)
	assert.Equal(t, map[string]any{"transport": "sse", "n": 1}, err.ToResponse().Context)
}

func TestAsStructuredError(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))

	original := UnavailableError("busy", nil)
	wrapped := fmt.Errorf("subscribe: %w", original)
	assert.Same(t, original, AsStructuredError(wrapped))

	plain := AsStructuredError(errors.New("disk on fire"))
	assert.Equal(t, TypeInternal, plain.Type)
	assert.Equal(t, "internal server error", plain.Message)
}

func runMiddleware(t *testing.T, handler echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, Middleware()(handler)(c)
}

func TestMiddlewareWritesStructuredError(t *testing.T) {
	rec, err := runMiddleware(t, func(c echo.Context) error {
		return UnavailableError("too many subscribers", nil)
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"too many subscribers","type":"unavailable"}`, rec.Body.String())
}

func TestMiddlewareHidesPlainErrors(t *testing.T) {
	rec, err := runMiddleware(t, func(c echo.Context) error {
		return errors.New("secret detail")
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret detail")
}

func TestMiddlewarePassesEchoErrors(t *testing.T) {
	_, err := runMiddleware(t, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTooManyRequests, "slow down")
	})
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.Code)
}

func TestTypeForStatus(t *testing.T) {
	assert.Equal(t, TypeValidation, typeForStatus(http.StatusTooManyRequests))
	assert.Equal(t, TypeUnavailable, typeForStatus(http.StatusServiceUnavailable))
	assert.Equal(t, TypeInternal, typeForStatus(http.StatusBadGateway))
}

func TestMiddlewareNoError(t *testing.T) {
	rec, err := runMiddleware(t, func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", rec.Body.String())
}
