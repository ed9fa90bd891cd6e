package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/iliyamo/car-marketplace/internal/model"
)

const carColumns = `id, title, brand, model, year, mileage, price, currency,
	fuel_type, transmission, drive, engine, power_hp, color, description,
	features, images, status, moderation_status, moderation_comment,
	owner_id, owner_name, owner_email, owner_phone, created_by, created_at, updated_at`

// CarRepo persists car listings.
type CarRepo struct{ DB *sql.DB }

func NewCarRepo(db *sql.DB) *CarRepo { return &CarRepo{DB: db} }

func scanCar(s rowScanner) (*model.Car, error) {
	var (
		c                                    model.Car
		features, images                     []byte
		comment, ownerName, ownerEmail, phone sql.NullString
	)
	err := s.Scan(
		&c.ID, &c.Title, &c.Brand, &c.Model, &c.Year, &c.Mileage, &c.Price, &c.Currency,
		&c.FuelType, &c.Transmission, &c.Drive, &c.Engine, &c.PowerHP, &c.Color, &c.Description,
		&features, &images, &c.Status, &c.ModerationStatus, &comment,
		&c.OwnerID, &ownerName, &ownerEmail, &phone, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Features, err = decodeStrings(features); err != nil {
		return nil, err
	}
	if c.Images, err = decodeStrings(images); err != nil {
		return nil, err
	}
	c.ModerationComment = comment.String
	c.OwnerName, c.OwnerEmail, c.OwnerPhone = ownerName.String, ownerEmail.String, phone.String
	return &c, nil
}

func encodeStrings(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func decodeStrings(b []byte) ([]string, error) {
	out := []string{}
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// Create inserts c.  The caller fills every field except ID and the
// timestamps, which are read back after the insert.
func (r *CarRepo) Create(ctx context.Context, c *model.Car) error {
	features, err := encodeStrings(c.Features)
	if err != nil {
		return err
	}
	images, err := encodeStrings(c.Images)
	if err != nil {
		return err
	}
	const q = `INSERT INTO cars (title, brand, model, year, mileage, price, currency,
		fuel_type, transmission, drive, engine, power_hp, color, description,
		features, images, status, moderation_status, moderation_comment,
		owner_id, owner_name, owner_email, owner_phone, created_by)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.DB.ExecContext(ctx, q,
		c.Title, c.Brand, c.Model, c.Year, c.Mileage, c.Price, c.Currency,
		c.FuelType, c.Transmission, c.Drive, c.Engine, c.PowerHP, c.Color, c.Description,
		features, images, c.Status, c.ModerationStatus, nullString(c.ModerationComment),
		c.OwnerID, nullString(c.OwnerName), nullString(c.OwnerEmail), nullString(c.OwnerPhone), c.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM cars WHERE id=?", c.ID).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// GetByID returns the car regardless of its moderation state.
func (r *CarRepo) GetByID(ctx context.Context, id uint64) (*model.Car, error) {
	c, err := scanCar(r.DB.QueryRowContext(ctx, "SELECT "+carColumns+" FROM cars WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// Update writes the non-nil fields of p.  When owner is non-nil the owner
// reference and its snapshot columns are replaced as well.
func (r *CarRepo) Update(ctx context.Context, id uint64, p model.CarPatch, owner *model.User) error {
	set := []string{"updated_at = CURRENT_TIMESTAMP(3)"}
	args := []any{}
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Brand != nil {
		add("brand", *p.Brand)
	}
	if p.Model != nil {
		add("model", *p.Model)
	}
	if p.Year != nil {
		add("year", *p.Year)
	}
	if p.Mileage != nil {
		add("mileage", *p.Mileage)
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if p.Currency != nil {
		add("currency", *p.Currency)
	}
	if p.FuelType != nil {
		add("fuel_type", *p.FuelType)
	}
	if p.Transmission != nil {
		add("transmission", *p.Transmission)
	}
	if p.Drive != nil {
		add("drive", *p.Drive)
	}
	if p.Engine != nil {
		add("engine", *p.Engine)
	}
	if p.PowerHP != nil {
		add("power_hp", *p.PowerHP)
	}
	if p.Color != nil {
		add("color", *p.Color)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Features != nil {
		v, err := encodeStrings(*p.Features)
		if err != nil {
			return err
		}
		add("features", v)
	}
	if p.Images != nil {
		v, err := encodeStrings(*p.Images)
		if err != nil {
			return err
		}
		add("images", v)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if owner != nil {
		add("owner_id", owner.ID)
		add("owner_name", nullString(owner.Name))
		add("owner_email", nullString(owner.Email))
		add("owner_phone", nullString(owner.Phone))
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, "UPDATE cars SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	return affectedOne(res, err)
}

// UpdateStatus sets the sale status only.
func (r *CarRepo) UpdateStatus(ctx context.Context, id uint64, status model.CarStatus) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE cars SET status = ?, updated_at = CURRENT_TIMESTAMP(3) WHERE id = ?", status, id)
	return affectedOne(res, err)
}

// UpdateModeration sets the moderation status.  A nil comment leaves the
// stored comment as it is.
func (r *CarRepo) UpdateModeration(ctx context.Context, id uint64, status model.ModerationStatus, comment *string) error {
	var (
		res sql.Result
		err error
	)
	if comment != nil {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE cars SET moderation_status = ?, moderation_comment = ?, updated_at = CURRENT_TIMESTAMP(3) WHERE id = ?",
			status, nullString(*comment), id)
	} else {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE cars SET moderation_status = ?, updated_at = CURRENT_TIMESTAMP(3) WHERE id = ?",
			status, id)
	}
	return affectedOne(res, err)
}

// Delete removes the car row.  Leads keep their snapshot.
func (r *CarRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM cars WHERE id = ?", id)
	return affectedOne(res, err)
}

// DeleteAll empties the cars table and reports how many rows went.
func (r *CarRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM cars")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
