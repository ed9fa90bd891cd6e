package handler

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/car-marketplace/internal/middleware"
    "github.com/iliyamo/car-marketplace/internal/model"
    "github.com/iliyamo/car-marketplace/internal/service"
)

// OwnerHandler serves /api/my/cars.  Routes addressing a single car sit
// behind middleware.CanAccessCar, so handlers here do not re-check
// ownership.
type OwnerHandler struct {
    Cars *service.CarService
}

func NewOwnerHandler(cars *service.CarService) *OwnerHandler {
    if cars == nil {
        panic("nil car service passed to NewOwnerHandler")
    }
    return &OwnerHandler{Cars: cars}
}

// List returns the caller's own cars in every moderation state.
func (h *OwnerHandler) List(c echo.Context) error {
    u, err := middleware.MustCaller(c)
    if err != nil {
        return err
    }
    page, err := h.Cars.List(c.Request().Context(), service.OwnerQuery(carQuery(c), u.ID))
    if err != nil {
        return err
    }
    return ok(c, page)
}

func (h *OwnerHandler) Get(c echo.Context) error {
    id, err := service.ParseID(c.Param("id"), "car id")
    if err != nil {
        return err
    }
    car, err := h.Cars.Get(c.Request().Context(), id, true)
    if err != nil {
        return err
    }
    return ok(c, car)
}

// Create lists a car owned by the caller.  Any ownerId in the body is
// ignored.
func (h *OwnerHandler) Create(c echo.Context) error {
    u, err := middleware.MustCaller(c)
    if err != nil {
        return err
    }
    var in model.CarInput
    if err := bind(c, &in); err != nil {
        return err
    }
    in.OwnerID = ""
    car, err := h.Cars.Create(c.Request().Context(), in, u.ID, u)
    if err != nil {
        return err
    }
    return created(c, car)
}

func (h *OwnerHandler) UpdateStatus(c echo.Context) error {
    id, err := service.ParseID(c.Param("id"), "car id")
    if err != nil {
        return err
    }
    var in model.StatusInput
    if err := bind(c, &in); err != nil {
        return err
    }
    car, err := h.Cars.UpdateStatus(c.Request().Context(), id, in.Status)
    if err != nil {
        return err
    }
    return ok(c, car)
}
