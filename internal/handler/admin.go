package handler

import (
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/car-marketplace/internal/middleware"
    "github.com/iliyamo/car-marketplace/internal/model"
    "github.com/iliyamo/car-marketplace/internal/service"
)

// AdminHandler serves the back office under /api/admin.  Every route is
// admin only.
type AdminHandler struct {
    Cars     *service.CarService
    Leads    *service.LeadService
    Users    *service.UserService
    Settings *service.SettingsService
}

func NewAdminHandler(cars *service.CarService, leads *service.LeadService, users *service.UserService, settings *service.SettingsService) *AdminHandler {
    return &AdminHandler{Cars: cars, Leads: leads, Users: users, Settings: settings}
}

func pathID(c echo.Context, name string) (uint64, error) {
    return service.ParseID(c.Param("id"), name)
}

// ---- cars ----

// ListCars shows every car matching the query; moderationStatus and
// status=any widen the default public view.
func (h *AdminHandler) ListCars(c echo.Context) error {
    page, err := h.Cars.List(c.Request().Context(), carQuery(c))
    if err != nil {
        return err
    }
    return ok(c, page)
}

func (h *AdminHandler) GetCar(c echo.Context) error {
    id, err := pathID(c, "car id")
    if err != nil {
        return err
    }
    car, err := h.Cars.Get(c.Request().Context(), id, true)
    if err != nil {
        return err
    }
    return ok(c, car)
}

// CreateCar creates an approved car.  The owner defaults to the admin when
// the body has no ownerId.
func (h *AdminHandler) CreateCar(c echo.Context) error {
    u, err := middleware.MustCaller(c)
    if err != nil {
        return err
    }
    var in model.CarInput
    if err := bind(c, &in); err != nil {
        return err
    }
    ownerID := u.ID
    if raw := strings.TrimSpace(in.OwnerID); raw != "" {
        if ownerID, err = service.ParseID(raw, "ownerId"); err != nil {
            return err
        }
    }
    car, err := h.Cars.Create(c.Request().Context(), in, ownerID, u)
    if err != nil {
        return err
    }
    return created(c, car)
}

func (h *AdminHandler) UpdateCar(c echo.Context) error {
    id, err := pathID(c, "car id")
    if err != nil {
        return err
    }
    var p model.CarPatch
    if err := bind(c, &p); err != nil {
        return err
    }
    car, err := h.Cars.Update(c.Request().Context(), id, p)
    if err != nil {
        return err
    }
    return ok(c, car)
}

func (h *AdminHandler) DeleteCar(c echo.Context) error {
    id, err := pathID(c, "car id")
    if err != nil {
        return err
    }
    if err := h.Cars.Delete(c.Request().Context(), id); err != nil {
        return err
    }
    return ok(c, echo.Map{"success": true})
}

func (h *AdminHandler) UpdateCarStatus(c echo.Context) error {
    id, err := pathID(c, "car id")
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

// ModerateCar approves or rejects a listing.
func (h *AdminHandler) ModerateCar(c echo.Context) error {
    id, err := pathID(c, "car id")
    if err != nil {
        return err
    }
    var in model.ModerationInput
    if err := bind(c, &in); err != nil {
        return err
    }
    car, err := h.Cars.Moderate(c.Request().Context(), id, in)
    if err != nil {
        return err
    }
    return ok(c, car)
}

// ---- leads ----

func (h *AdminHandler) ListLeads(c echo.Context) error {
    q := service.LeadQuery{
        Page:   c.QueryParam("page"),
        Limit:  c.QueryParam("limit"),
        Status: c.QueryParam("status"),
        CarID:  c.QueryParam("carId"),
        Q:      c.QueryParam("q"),
        Sort:   c.QueryParam("sort"),
    }
    page, err := h.Leads.List(c.Request().Context(), q)
    if err != nil {
        return err
    }
    return ok(c, page)
}

func (h *AdminHandler) GetLead(c echo.Context) error {
    id, err := pathID(c, "lead id")
    if err != nil {
        return err
    }
    lead, err := h.Leads.Get(c.Request().Context(), id)
    if err != nil {
        return err
    }
    return ok(c, lead)
}

// UpdateLead moves a lead through triage.
func (h *AdminHandler) UpdateLead(c echo.Context) error {
    id, err := pathID(c, "lead id")
    if err != nil {
        return err
    }
    var in model.StatusInput
    if err := bind(c, &in); err != nil {
        return err
    }
    lead, err := h.Leads.UpdateStatus(c.Request().Context(), id, in.Status)
    if err != nil {
        return err
    }
    return ok(c, lead)
}

// ---- users ----

func (h *AdminHandler) ListUsers(c echo.Context) error {
    users, err := h.Users.List(c.Request().Context(), c.QueryParam("role"), c.QueryParam("isActive"))
    if err != nil {
        return err
    }
    return ok(c, users)
}

func (h *AdminHandler) GetUser(c echo.Context) error {
    id, err := pathID(c, "user id")
    if err != nil {
        return err
    }
    u, err := h.Users.Get(c.Request().Context(), id)
    if err != nil {
        return err
    }
    return ok(c, u)
}

func (h *AdminHandler) CreateUser(c echo.Context) error {
    var in model.CreateUserInput
    if err := bind(c, &in); err != nil {
        return err
    }
    u, err := h.Users.Create(c.Request().Context(), in)
    if err != nil {
        return err
    }
    return created(c, u)
}

func (h *AdminHandler) UpdateUser(c echo.Context) error {
    id, err := pathID(c, "user id")
    if err != nil {
        return err
    }
    var p model.UserPatch
    if err := bind(c, &p); err != nil {
        return err
    }
    u, err := h.Users.Update(c.Request().Context(), id, p)
    if err != nil {
        return err
    }
    return ok(c, u)
}

// ---- settings ----

func (h *AdminHandler) GetSettings(c echo.Context) error {
    s, err := h.Settings.Get(c.Request().Context())
    if err != nil {
        return err
    }
    return ok(c, s)
}

func (h *AdminHandler) UpdateSettings(c echo.Context) error {
    var p model.SettingsPatch
    if err := bind(c, &p); err != nil {
        return err
    }
    s, err := h.Settings.Update(c.Request().Context(), p)
    if err != nil {
        return err
    }
    return ok(c, s)
}
