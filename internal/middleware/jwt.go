package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/car-marketplace/internal/apperr"
    "github.com/iliyamo/car-marketplace/internal/model"
)

// TokenVerifier validates an access token and returns the caller encoded
// in it.  service.TokenService implements it.
type TokenVerifier interface {
    VerifyAccessToken(raw string) (model.AuthUser, error)
}

func bearer(c echo.Context) (string, bool) {
    auth := c.Request().Header.Get(echo.HeaderAuthorization)
    if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
        return "", false
    }
    raw := strings.TrimSpace(auth[7:])
    return raw, raw != ""
}

// Auth requires a valid Bearer access token and stores the caller on the
// context.  The token is trusted as is; the user row is not re-read, so a
// role change or deactivation takes effect when the token expires.
func Auth(tokens TokenVerifier) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearer(c)
            if !ok {
                return apperr.Unauthorized("Missing or invalid authorization header")
            }
            u, err := tokens.VerifyAccessToken(raw)
            if err != nil {
                return err
            }
            SetCaller(c, u)
            return next(c)
        }
    }
}

// OptionalAuth attaches the caller when a valid token is present and lets
// the request through anonymously otherwise.
func OptionalAuth(tokens TokenVerifier) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if raw, ok := bearer(c); ok {
                if u, err := tokens.VerifyAccessToken(raw); err == nil {
                    SetCaller(c, u)
                }
            }
            return next(c)
        }
    }
}
