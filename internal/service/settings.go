package service

import (
	"context"

	"github.com/iliyamo/car-marketplace/internal/model"
)

// SettingsService reads and updates the store contact details.  The
// backing row is created with defaults on first access.
type SettingsService struct {
	Settings SettingsStore
}

func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{Settings: store}
}

func (s *SettingsService) Get(ctx context.Context) (*model.Settings, error) {
	st, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, storeErr(err, "Settings")
	}
	return st, nil
}

// Update applies only the provided fields.
func (s *SettingsService) Update(ctx context.Context, p model.SettingsPatch) (*model.Settings, error) {
	if err := check(p); err != nil {
		return nil, err
	}
	st, err := s.Settings.Update(ctx, p)
	if err != nil {
		return nil, storeErr(err, "Settings")
	}
	return st, nil
}
