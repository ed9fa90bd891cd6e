package middleware

import (
    "context"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/car-marketplace/internal/model"
    "github.com/iliyamo/car-marketplace/internal/service"
)

// CarAccessChecker is implemented by service.CarService.
type CarAccessChecker interface {
    CheckAccess(ctx context.Context, carID uint64, caller model.AuthUser) error
}

// CanAccessCar guards routes addressing a car by its :id path parameter.
// Admins always pass; owners get NotFound for a missing car and Forbidden
// for a car they do not own.  It must run after Auth.
func CanAccessCar(cars CarAccessChecker) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            u, err := MustCaller(c)
            if err != nil {
                return err
            }
            id, err := service.ParseID(c.Param("id"), "car id")
            if err != nil {
                return err
            }
            if err := cars.CheckAccess(c.Request().Context(), id, u); err != nil {
                return err
            }
            return next(c)
        }
    }
}
