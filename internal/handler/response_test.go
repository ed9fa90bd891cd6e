package handler

import (
    "bytes"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/car-marketplace/internal/apperr"
)

func renderError(t *testing.T, err error, dev bool) (*httptest.ResponseRecorder, string) {
    t.Helper()
    var logs bytes.Buffer
    e := echo.New()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/cars", nil), httptest.NewRecorder())
    rec := c.Response().Writer.(*httptest.ResponseRecorder)
    ErrorHandler(zerolog.New(&logs), dev)(err, c)
    return rec, logs.String()
}

func TestErrorHandlerApplicationErrors(t *testing.T) {
    rec, logs := renderError(t, apperr.NotFound("Car"), false)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.JSONEq(t, `{"success":false,"error":{"message":"Car not found","code":"NOT_FOUND"}}`, rec.Body.String())
    assert.Contains(t, logs, `"level":"warn"`)

    rec, _ = renderError(t, apperr.RateLimited("slow down"), false)
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestErrorHandlerHidesInternalsOutsideDevelopment(t *testing.T) {
    boom := errors.New("dial tcp 10.0.0.5:3306: connection refused")

    rec, logs := renderError(t, boom, false)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.JSONEq(t, `{"success":false,"error":{"message":"Internal server error","code":"INTERNAL_ERROR"}}`, rec.Body.String())
    assert.Contains(t, logs, `"level":"error"`)
    assert.Contains(t, logs, "connection refused")
    assert.Contains(t, logs, `"stack"`, "unclassified failures log a stack in every environment")

    rec, _ = renderError(t, apperr.Internal("database error", boom), false)
    assert.NotContains(t, rec.Body.String(), "database error")

    rec, logs = renderError(t, boom, true)
    assert.Contains(t, rec.Body.String(), "connection refused")
    assert.Contains(t, logs, `"stack"`)
}

func TestErrorHandlerEchoErrors(t *testing.T) {
    rec, _ := renderError(t, echo.ErrNotFound, false)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Contains(t, rec.Body.String(), `"message":"Route not found"`)

    rec, _ = renderError(t, echo.ErrMethodNotAllowed, false)
    assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
    assert.Contains(t, rec.Body.String(), "METHOD_NOT_ALLOWED")

    rec, _ = renderError(t, echo.NewHTTPError(http.StatusRequestEntityTooLarge), false)
    assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
    assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestErrorHandlerSkipsCommittedResponse(t *testing.T) {
    e := echo.New()
    rec := httptest.NewRecorder()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
    require.NoError(t, c.String(http.StatusOK, "done"))

    ErrorHandler(zerolog.Nop(), false)(errors.New("late"), c)
    assert.Equal(t, "done", rec.Body.String())
}

func TestBindRejectsMalformedJSON(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{"))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    c := e.NewContext(req, httptest.NewRecorder())

    var v struct{ Name string }
    err := bind(c, &v)
    assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}
