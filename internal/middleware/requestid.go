package middleware

import (
    "strings"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
)

const (
    HeaderCorrelationID = "X-Correlation-ID"
    requestIDKey        = "request_id"
    maxRequestIDLen     = 128
)

// RequestID picks the request id from X-Correlation-ID, then
// X-Request-ID, generating a UUID when neither is usable, and echoes it
// back in X-Request-ID.
func RequestID() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            id := clean(req.Header.Get(HeaderCorrelationID))
            if id == "" {
                id = clean(req.Header.Get(echo.HeaderXRequestID))
            }
            if id == "" {
                id = uuid.NewString()
            }
            req.Header.Set(echo.HeaderXRequestID, id)
            c.Response().Header().Set(echo.HeaderXRequestID, id)
            c.Set(requestIDKey, id)
            return next(c)
        }
    }
}

// GetRequestID returns the id assigned by RequestID.
func GetRequestID(c echo.Context) string {
    id, _ := c.Get(requestIDKey).(string)
    return id
}

func clean(v string) string {
    v = strings.TrimSpace(v)
    if len(v) > maxRequestIDLen {
        return ""
    }
    for _, r := range v {
        if r < 0x21 || r > 0x7e {
            return ""
        }
    }
    return v
}
