package handler

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/car-marketplace/internal/middleware"
    "github.com/iliyamo/car-marketplace/internal/model"
    "github.com/iliyamo/car-marketplace/internal/service"
)

// PublicHandler serves the storefront: listings, car detail, inquiries and
// the contact block.
type PublicHandler struct {
    Cars     *service.CarService
    Leads    *service.LeadService
    Settings *service.SettingsService
}

func NewPublicHandler(cars *service.CarService, leads *service.LeadService, settings *service.SettingsService) *PublicHandler {
    return &PublicHandler{Cars: cars, Leads: leads, Settings: settings}
}

// carQuery reads the listing filters from the query string.
func carQuery(c echo.Context) service.CarQuery {
    return service.CarQuery{
        Page:             c.QueryParam("page"),
        Limit:            c.QueryParam("limit"),
        Q:                c.QueryParam("q"),
        Brand:            c.QueryParam("brand"),
        YearFrom:         c.QueryParam("yearFrom"),
        YearTo:           c.QueryParam("yearTo"),
        PriceFrom:        c.QueryParam("priceFrom"),
        PriceTo:          c.QueryParam("priceTo"),
        FuelType:         c.QueryParam("fuelType"),
        Transmission:     c.QueryParam("transmission"),
        Drive:            c.QueryParam("drive"),
        Status:           c.QueryParam("status"),
        ModerationStatus: c.QueryParam("moderationStatus"),
        Sort:             c.QueryParam("sort"),
        OwnerID:          c.QueryParam("ownerId"),
        CreatedBy:        c.QueryParam("createdBy"),
    }
}

func (h *PublicHandler) ListCars(c echo.Context) error {
    page, err := h.Cars.List(c.Request().Context(), carQuery(c))
    if err != nil {
        return err
    }
    return ok(c, page)
}

// GetCar shows an approved car.  Admins, identified by an optional bearer
// token, also see pending and rejected cars.
func (h *PublicHandler) GetCar(c echo.Context) error {
    id, err := service.ParseID(c.Param("id"), "car id")
    if err != nil {
        return err
    }
    u, _ := middleware.Caller(c)
    car, err := h.Cars.Get(c.Request().Context(), id, u.IsAdmin())
    if err != nil {
        return err
    }
    return ok(c, car)
}

// CreateLead stores a purchase inquiry.
func (h *PublicHandler) CreateLead(c echo.Context) error {
    var in model.LeadInput
    if err := bind(c, &in); err != nil {
        return err
    }
    lead, err := h.Leads.Create(c.Request().Context(), in)
    if err != nil {
        return err
    }
    return created(c, lead)
}

func (h *PublicHandler) GetSettings(c echo.Context) error {
    s, err := h.Settings.Get(c.Request().Context())
    if err != nil {
        return err
    }
    return ok(c, s)
}
