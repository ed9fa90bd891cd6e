package router // router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/car-marketplace/internal/middleware"
    "github.com/iliyamo/car-marketplace/internal/model"
)

// registerOwner mounts the owner portal under /api/my.  Every route needs a
// valid token and the owner role (admins pass too); routes addressing one
// car also check that the caller owns it.  Owners change only the sale
// status; listing fields are edited through the admin surface.
func registerOwner(api *echo.Group, d Deps) {
    g := api.Group(
        "/my",
        middleware.Auth(d.Tokens),
        middleware.RequireRole(model.RoleOwner),
    )
    owns := middleware.CanAccessCar(d.Cars)

    g.GET("/cars", d.Owner.List)
    g.POST("/cars", d.Owner.Create)
    g.GET("/cars/:id", d.Owner.Get, owns)
    g.PATCH("/cars/:id/status", d.Owner.UpdateStatus, owns)
}
