package middleware

// identity.go holds the helpers that store and read the authenticated
// caller on the Echo context.  Handlers and the other middleware go
// through these instead of reading context keys directly.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/car-marketplace/internal/apperr"
    "github.com/iliyamo/car-marketplace/internal/model"
)

const callerKey = "caller"

// SetCaller attaches the verified caller to c.
func SetCaller(c echo.Context, u model.AuthUser) { c.Set(callerKey, u) }

// Caller returns the caller attached by Auth or OptionalAuth.
func Caller(c echo.Context) (model.AuthUser, bool) {
    u, ok := c.Get(callerKey).(model.AuthUser)
    return u, ok && u.ID != 0
}

// MustCaller is Caller for routes behind Auth; a missing caller is
// reported as Unauthorized rather than a panic.
func MustCaller(c echo.Context) (model.AuthUser, error) {
    u, ok := Caller(c)
    if !ok {
        return model.AuthUser{}, apperr.Unauthorized("Authentication required")
    }
    return u, nil
}

// userID returns the caller id for log fields and rate-limit keys, or
// "guest" when the request is anonymous.
func userID(c echo.Context) string {
    if u, ok := Caller(c); ok {
        return strconv.FormatUint(u.ID, 10)
    }
    return "guest"
}
