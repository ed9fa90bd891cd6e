package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/car-marketplace/internal/model"
)

// SettingsRepo owns the singleton settings row (id = model.SettingsID).
type SettingsRepo struct{ DB *sql.DB }

func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{DB: db} }

// Ensure creates the row with defaults if it does not exist.  The insert is
// keyed on the fixed primary key, so concurrent callers converge on one row.
func (r *SettingsRepo) Ensure(ctx context.Context) error {
	d := model.DefaultSettings()
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO settings (id, phone, email, address, work_hours, slogan) VALUES (?,?,?,?,?,?)
		ON DUPLICATE KEY UPDATE id = id`,
		model.SettingsID, d.Phone, d.Email, d.Address, d.WorkHours, d.Slogan)
	return err
}

// Get returns the settings row, creating it first when missing.
func (r *SettingsRepo) Get(ctx context.Context) (*model.Settings, error) {
	if err := r.Ensure(ctx); err != nil {
		return nil, err
	}
	var s model.Settings
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, phone, email, address, work_hours, slogan, created_at, updated_at FROM settings WHERE id=?",
		model.SettingsID).Scan(&s.ID, &s.Phone, &s.Email, &s.Address, &s.WorkHours, &s.Slogan, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Update applies the provided fields and returns the stored row.
func (r *SettingsRepo) Update(ctx context.Context, p model.SettingsPatch) (*model.Settings, error) {
	if err := r.Ensure(ctx); err != nil {
		return nil, err
	}
	set := []string{"updated_at = CURRENT_TIMESTAMP(3)"}
	args := []any{}
	add := func(col string, v *string) {
		if v != nil {
			set = append(set, col+" = ?")
			args = append(args, *v)
		}
	}
	add("phone", p.Phone)
	add("email", p.Email)
	add("address", p.Address)
	add("work_hours", p.WorkHours)
	add("slogan", p.Slogan)
	args = append(args, model.SettingsID)
	if _, err := r.DB.ExecContext(ctx, "UPDATE settings SET "+strings.Join(set, ", ")+" WHERE id = ?", args...); err != nil {
		return nil, err
	}
	return r.Get(ctx)
}

// Reset drops the row; the next Ensure or Get writes the defaults again.
func (r *SettingsRepo) Reset(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM settings WHERE id = ?", model.SettingsID)
	return err
}
