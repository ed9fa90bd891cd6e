package middleware // middleware provides shared request processing for handlers

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/car-marketplace/internal/apperr"
    "github.com/iliyamo/car-marketplace/internal/model"
)

// RequireRole lets the request through when the caller has the given role.
// Admins pass every role check.  It must run after Auth.
func RequireRole(role model.Role) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            u, err := MustCaller(c)
            if err != nil {
                return err
            }
            if u.Role != role && !u.IsAdmin() {
                return apperr.Forbidden("Insufficient permissions")
            }
            return next(c)
        }
    }
}
