// Package handler holds the HTTP handlers.  Every handler answers with the
// same JSON envelope: {"success":true,"data":...} on success and
// {"success":false,"error":{"message":...,"code":...}} on failure.  Errors
// are returned to Echo and rendered once by ErrorHandler.
package handler

import (
    "errors"
    "fmt"
    "net/http"
    "runtime/debug"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/car-marketplace/internal/apperr"
    "github.com/iliyamo/car-marketplace/internal/middleware"
)

type envelope struct {
    Success bool       `json:"success"`
    Data    any        `json:"data,omitempty"`
    Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
    Message string `json:"message"`
    Code    string `json:"code,omitempty"`
}

func ok(c echo.Context, data any) error {
    return c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func created(c echo.Context, data any) error {
    return c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

func failure(c echo.Context, status int, msg, code string) error {
    return c.JSON(status, envelope{Error: &errorBody{Message: msg, Code: code}})
}

// bind decodes the request body into v.  Malformed JSON is a validation
// error rather than Echo's plain 400.
func bind(c echo.Context, v any) error {
    if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
        return apperr.Validation("Invalid request body")
    }
    return nil
}

// codeForStatus names the error code used for Echo's own errors.
func codeForStatus(status int) string {
    switch status {
    case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
        return apperr.CodeValidation
    case http.StatusUnauthorized:
        return apperr.CodeUnauthorized
    case http.StatusForbidden:
        return apperr.CodeForbidden
    case http.StatusNotFound:
        return apperr.CodeNotFound
    case http.StatusMethodNotAllowed:
        return "METHOD_NOT_ALLOWED"
    case http.StatusConflict:
        return apperr.CodeConflict
    case http.StatusTooManyRequests:
        return apperr.CodeRateLimited
    }
    if status >= http.StatusInternalServerError {
        return apperr.CodeInternal
    }
    return "HTTP_ERROR"
}

// ErrorHandler renders every error returned by a handler or middleware.
// Application errors keep their status and code.  Anything else becomes a
// 500 whose message is only revealed when dev is true.
func ErrorHandler(log zerolog.Logger, dev bool) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        var (
            status int
            msg    string
            code   string
        )
        var he *echo.HTTPError
        if ae, isApp := apperr.As(err); isApp {
            status, msg, code = ae.Status, ae.Message, ae.Code
            if !ae.Operational() && !dev {
                msg = "Internal server error"
            }
        } else if errors.As(err, &he) {
            status, code = he.Code, codeForStatus(he.Code)
            msg = fmt.Sprint(he.Message)
            if he.Code == http.StatusNotFound {
                msg = "Route not found"
            }
        } else {
            status, code = http.StatusInternalServerError, apperr.CodeInternal
            msg = "Internal server error"
            if dev {
                msg = err.Error()
            }
        }

        req := c.Request()
        ev := log.Warn()
        if status >= http.StatusInternalServerError {
            ev = log.Error().Str("stack", string(debug.Stack()))
        }
        ev.Err(err).
            Str("request_id", middleware.GetRequestID(c)).
            Str("method", req.Method).
            Str("path", req.URL.Path).
            Int("status", status).
            Msg("request failed")

        if req.Method == http.MethodHead {
            err = c.NoContent(status)
        } else {
            err = failure(c, status, msg, code)
        }
        if err != nil {
            log.Error().Err(err).Msg("write error response")
        }
    }
}
