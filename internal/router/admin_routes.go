package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/car-marketplace/internal/middleware"
    "github.com/iliyamo/car-marketplace/internal/model"
)

// registerAdmin mounts the back office under /api/admin.
func registerAdmin(api *echo.Group, d Deps) {
    g := api.Group(
        "/admin",
        middleware.Auth(d.Tokens),
        middleware.RequireRole(model.RoleAdmin),
    )
    a := d.Admin

    // ---- Cars ----
    g.GET("/cars", a.ListCars)
    g.POST("/cars", a.CreateCar)
    g.GET("/cars/:id", a.GetCar)
    g.PATCH("/cars/:id", a.UpdateCar)
    g.DELETE("/cars/:id", a.DeleteCar)
    g.PATCH("/cars/:id/status", a.UpdateCarStatus)
    g.PATCH("/cars/:id/moderate", a.ModerateCar)

    // ---- Leads ----
    g.GET("/leads", a.ListLeads)
    g.GET("/leads/:id", a.GetLead)
    g.PATCH("/leads/:id", a.UpdateLead)

    // ---- Users ----
    g.GET("/users", a.ListUsers)
    g.POST("/users", a.CreateUser)
    g.GET("/users/:id", a.GetUser)
    g.PATCH("/users/:id", a.UpdateUser)

    // ---- Settings ----
    g.GET("/settings", a.GetSettings)
    g.PUT("/settings", a.UpdateSettings)
}
