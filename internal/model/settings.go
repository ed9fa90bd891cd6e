package model

import "time"

// SettingsID is the fixed primary key of the singleton settings row.
const SettingsID = 1

// Settings is the store-wide contact information shown on the storefront.
type Settings struct {
    ID        uint64    `json:"id"`
    Phone     string    `json:"phone"`
    Email     string    `json:"email"`
    Address   string    `json:"address"`
    WorkHours string    `json:"workHours"`
    Slogan    string    `json:"slogan"`
    CreatedAt time.Time `json:"createdAt"`
    UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultSettings returns the values used when the row is first created.
func DefaultSettings() Settings {
    return Settings{
        ID:        SettingsID,
        Phone:     "+7 495 266 7524",
        Email:     "info@car-shop.ru",
        Address:   "Москва, ул. Примерная, д. 1",
        WorkHours: "Пн-Пт: 9:00 - 20:00, Сб-Вс: 10:00 - 18:00",
        Slogan:    "SMK Dealership",
    }
}

// SettingsPatch updates only the provided fields.
type SettingsPatch struct {
    Phone     *string `json:"phone"`
    Email     *string `json:"email" validate:"omitnil,email"`
    Address   *string `json:"address"`
    WorkHours *string `json:"workHours"`
    Slogan    *string `json:"slogan"`
}

// Apply copies every non-nil field of p onto s.
func (p SettingsPatch) Apply(s *Settings) {
    if p.Phone != nil {
        s.Phone = *p.Phone
    }
    if p.Email != nil {
        s.Email = *p.Email
    }
    if p.Address != nil {
        s.Address = *p.Address
    }
    if p.WorkHours != nil {
        s.WorkHours = *p.WorkHours
    }
    if p.Slogan != nil {
        s.Slogan = *p.Slogan
    }
}
