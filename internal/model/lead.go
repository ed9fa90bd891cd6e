package model

import "time"

// LeadStatus is the triage state of an inquiry.  Only admins change it.
type LeadStatus string

const (
    LeadNew        LeadStatus = "new"
    LeadInProgress LeadStatus = "in_progress"
    LeadClosed     LeadStatus = "closed"
)

func (s LeadStatus) Valid() bool {
    switch s {
    case LeadNew, LeadInProgress, LeadClosed:
        return true
    }
    return false
}

// Lead is a customer inquiry about one car, stored in the `leads` table.
// The Car* fields are frozen at creation so the quoted price survives later
// edits to the listing.
type Lead struct {
    ID        uint64     `json:"id"`
    CarID     uint64     `json:"carId"`
    CarTitle  string     `json:"carTitle"`
    CarBrand  string     `json:"carBrand"`
    CarModel  string     `json:"carModel"`
    CarPrice  float64    `json:"carPrice"`
    CarImages []string   `json:"carImages"`
    Name      string     `json:"name"`
    Phone     string     `json:"phone"`
    Email     string     `json:"email,omitempty"`
    Message   string     `json:"message,omitempty"`
    Status    LeadStatus `json:"status"`
    CreatedAt time.Time  `json:"createdAt"`
    UpdatedAt time.Time  `json:"updatedAt"`
}

// SnapshotCar copies the listing fields a lead keeps.
func (l *Lead) SnapshotCar(c *Car) {
    l.CarID = c.ID
    l.CarTitle = c.Title
    l.CarBrand = c.Brand
    l.CarModel = c.Model
    l.CarPrice = c.Price
    l.CarImages = append([]string{}, c.Images...)
}

// LeadInput is the public inquiry form.
type LeadInput struct {
    CarID   string `json:"carId" validate:"required"`
    Name    string `json:"name" validate:"required"`
    Phone   string `json:"phone" validate:"required"`
    Email   string `json:"email" validate:"omitempty,email"`
    Message string `json:"message" validate:"max=5000"`
}

// LeadFilter is the normalized lead list query.
type LeadFilter struct {
    Status LeadStatus
    CarID  uint64
    Q      string
    Oldest bool
    Limit  int
    Offset int
}

// LeadPage is one page of leads.
type LeadPage struct {
    Leads      []*Lead    `json:"leads"`
    Pagination Pagination `json:"pagination"`
}
