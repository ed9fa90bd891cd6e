package model

import "time"

// CarStatus is the sale lifecycle of a listing.  Any value may follow any
// other; there is no transition graph.
type CarStatus string

const (
    CarAvailable CarStatus = "available"
    CarReserved  CarStatus = "reserved"
    CarSold      CarStatus = "sold"
)

func (s CarStatus) Valid() bool {
    switch s {
    case CarAvailable, CarReserved, CarSold:
        return true
    }
    return false
}

// ModerationStatus is the admin-controlled visibility gate of a listing.
type ModerationStatus string

const (
    ModerationPending  ModerationStatus = "pending"
    ModerationApproved ModerationStatus = "approved"
    ModerationRejected ModerationStatus = "rejected"
)

func (s ModerationStatus) Valid() bool {
    switch s {
    case ModerationPending, ModerationApproved, ModerationRejected:
        return true
    }
    return false
}

// DefaultCurrency is applied when a listing is created without a currency.
const DefaultCurrency = "RUB"

// Car represents a listing stored in the `cars` table.  OwnerName,
// OwnerEmail and OwnerPhone are a snapshot of the owner taken when the car
// is created or its owner changes; they are not kept in sync afterwards.
// CreatedBy differs from OwnerID when an admin lists a car on behalf of an
// owner.
type Car struct {
    ID                uint64           `json:"id"`
    Title             string           `json:"title"`
    Brand             string           `json:"brand"`
    Model             string           `json:"model"`
    Year              int              `json:"year"`
    Mileage           int              `json:"mileage"`
    Price             float64          `json:"price"`
    Currency          string           `json:"currency"`
    FuelType          string           `json:"fuelType"`
    Transmission      string           `json:"transmission"`
    Drive             string           `json:"drive"`
    Engine            string           `json:"engine"`
    PowerHP           int              `json:"powerHp"`
    Color             string           `json:"color"`
    Description       string           `json:"description"`
    Features          []string         `json:"features"`
    Images            []string         `json:"images"`
    Status            CarStatus        `json:"status"`
    ModerationStatus  ModerationStatus `json:"moderationStatus"`
    ModerationComment string           `json:"moderationComment,omitempty"`
    OwnerID           uint64           `json:"ownerId"`
    OwnerName         string           `json:"ownerName,omitempty"`
    OwnerEmail        string           `json:"ownerEmail,omitempty"`
    OwnerPhone        string           `json:"ownerPhone,omitempty"`
    CreatedBy         uint64           `json:"createdBy"`
    CreatedAt         time.Time        `json:"createdAt"`
    UpdatedAt         time.Time        `json:"updatedAt"`
}

// SnapshotOwner copies the owner's contact details onto the car.
func (c *Car) SnapshotOwner(u *User) {
    c.OwnerID = u.ID
    c.OwnerName = u.Name
    c.OwnerEmail = u.Email
    c.OwnerPhone = u.Phone
}

// CarInput is the attribute set accepted when a listing is created.
// OwnerID is a string because it comes from request bodies and must be
// validated; owners never send it (the caller's own id is used).
type CarInput struct {
    Title        string    `json:"title" validate:"required"`
    Brand        string    `json:"brand" validate:"required"`
    Model        string    `json:"model" validate:"required"`
    Year         int       `json:"year" validate:"gte=1900,lte=2100"`
    Mileage      int       `json:"mileage" validate:"gte=0"`
    Price        float64   `json:"price" validate:"gte=0"`
    Currency     string    `json:"currency" validate:"omitempty,max=8"`
    FuelType     string    `json:"fuelType" validate:"required"`
    Transmission string    `json:"transmission" validate:"required"`
    Drive        string    `json:"drive" validate:"required"`
    Engine       string    `json:"engine" validate:"required"`
    PowerHP      int       `json:"powerHp" validate:"gte=0"`
    Color        string    `json:"color" validate:"required"`
    Description  string    `json:"description" validate:"required"`
    Features     []string  `json:"features" validate:"omitempty,dive,required"`
    Images       []string  `json:"images" validate:"omitempty,dive,required"`
    Status       CarStatus `json:"status" validate:"omitempty,oneof=available reserved sold"`
    OwnerID      string    `json:"ownerId"`
}

// CarPatch is a partial update.  Nil fields are left untouched.
type CarPatch struct {
    Title        *string    `json:"title" validate:"omitnil,min=1"`
    Brand        *string    `json:"brand" validate:"omitnil,min=1"`
    Model        *string    `json:"model" validate:"omitnil,min=1"`
    Year         *int       `json:"year" validate:"omitnil,gte=1900,lte=2100"`
    Mileage      *int       `json:"mileage" validate:"omitnil,gte=0"`
    Price        *float64   `json:"price" validate:"omitnil,gte=0"`
    Currency     *string    `json:"currency" validate:"omitnil,min=1,max=8"`
    FuelType     *string    `json:"fuelType" validate:"omitnil,min=1"`
    Transmission *string    `json:"transmission" validate:"omitnil,min=1"`
    Drive        *string    `json:"drive" validate:"omitnil,min=1"`
    Engine       *string    `json:"engine" validate:"omitnil,min=1"`
    PowerHP      *int       `json:"powerHp" validate:"omitnil,gte=0"`
    Color        *string    `json:"color" validate:"omitnil,min=1"`
    Description  *string    `json:"description" validate:"omitnil,min=1"`
    Features     *[]string  `json:"features" validate:"omitnil,dive,required"`
    Images       *[]string  `json:"images" validate:"omitnil,dive,required"`
    Status       *CarStatus `json:"status" validate:"omitnil,oneof=available reserved sold"`
    OwnerID      *string    `json:"ownerId" validate:"omitnil,min=1"`
}

// Apply copies every non-nil field of p onto c, except OwnerID which the
// caller resolves separately so the owner snapshot can be refreshed.
func (p CarPatch) Apply(c *Car) {
    if p.Title != nil {
        c.Title = *p.Title
    }
    if p.Brand != nil {
        c.Brand = *p.Brand
    }
    if p.Model != nil {
        c.Model = *p.Model
    }
    if p.Year != nil {
        c.Year = *p.Year
    }
    if p.Mileage != nil {
        c.Mileage = *p.Mileage
    }
    if p.Price != nil {
        c.Price = *p.Price
    }
    if p.Currency != nil {
        c.Currency = *p.Currency
    }
    if p.FuelType != nil {
        c.FuelType = *p.FuelType
    }
    if p.Transmission != nil {
        c.Transmission = *p.Transmission
    }
    if p.Drive != nil {
        c.Drive = *p.Drive
    }
    if p.Engine != nil {
        c.Engine = *p.Engine
    }
    if p.PowerHP != nil {
        c.PowerHP = *p.PowerHP
    }
    if p.Color != nil {
        c.Color = *p.Color
    }
    if p.Description != nil {
        c.Description = *p.Description
    }
    if p.Features != nil {
        c.Features = append([]string{}, (*p.Features)...)
    }
    if p.Images != nil {
        c.Images = append([]string{}, (*p.Images)...)
    }
    if p.Status != nil {
        c.Status = *p.Status
    }
}

// StatusInput is the body of the status endpoints.
type StatusInput struct {
    Status string `json:"status" validate:"required"`
}

// ModerationInput is the body of the moderation endpoint.  Only approved
// and rejected are accepted as targets.
type ModerationInput struct {
    ModerationStatus  string  `json:"moderationStatus" validate:"required,oneof=approved rejected"`
    ModerationComment *string `json:"moderationComment"`
}

// CarSort selects the listing order.  Every order ends with the id so that
// offset pagination is deterministic when sort keys repeat.
type CarSort string

const (
    SortRecent    CarSort = ""
    SortPriceAsc  CarSort = "priceAsc"
    SortPriceDesc CarSort = "priceDesc"
    SortYearDesc  CarSort = "yearDesc"
)

// ParseCarSort maps a query value to a sort; unknown values fall back to
// recency.
func ParseCarSort(s string) CarSort {
    switch CarSort(s) {
    case SortPriceAsc, SortPriceDesc, SortYearDesc:
        return CarSort(s)
    }
    return SortRecent
}

// CarFilter is the normalized query handed to the car store.  Zero values
// mean "no filter"; the service decides defaults such as the implicit
// approved-only moderation filter before building it.
type CarFilter struct {
    Q                string
    Brand            string
    YearFrom         *int
    YearTo           *int
    PriceFrom        *float64
    PriceTo          *float64
    FuelType         string
    Transmission     string
    Drive            string
    Status           CarStatus
    ModerationStatus ModerationStatus
    OwnerID          uint64
    CreatedBy        uint64
    Sort             CarSort
    Limit            int
    Offset           int
}

// Pagination describes one page of an offset-paginated list.
type Pagination struct {
    Page  int `json:"page"`
    Limit int `json:"limit"`
    Total int `json:"total"`
    Pages int `json:"pages"`
}

// NewPagination computes the page count for total items.
func NewPagination(page, limit, total int) Pagination {
    pages := 0
    if limit > 0 {
        pages = (total + limit - 1) / limit
    }
    return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// CarPage is one page of listings.
type CarPage struct {
    Listings   []*Car     `json:"listings"`
    Pagination Pagination `json:"pagination"`
}
