package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/car-marketplace/internal/model"
)

const leadColumns = "id, car_id, car_title, car_brand, car_model, car_price, car_images, name, phone, email, message, status, created_at, updated_at"

// LeadRepo persists customer inquiries.
type LeadRepo struct{ DB *sql.DB }

func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{DB: db} }

func scanLead(s rowScanner) (*model.Lead, error) {
	var (
		l              model.Lead
		images         []byte
		email, message sql.NullString
	)
	err := s.Scan(&l.ID, &l.CarID, &l.CarTitle, &l.CarBrand, &l.CarModel, &l.CarPrice, &images,
		&l.Name, &l.Phone, &email, &message, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if l.CarImages, err = decodeStrings(images); err != nil {
		return nil, err
	}
	l.Email, l.Message = email.String, message.String
	return &l, nil
}

// Create inserts l with its car snapshot already filled in.
func (r *LeadRepo) Create(ctx context.Context, l *model.Lead) error {
	images, err := encodeStrings(l.CarImages)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO leads (car_id, car_title, car_brand, car_model, car_price, car_images, name, phone, email, message, status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		l.CarID, l.CarTitle, l.CarBrand, l.CarModel, l.CarPrice, images,
		l.Name, l.Phone, nullString(l.Email), nullString(l.Message), l.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM leads WHERE id=?", l.ID).Scan(&l.CreatedAt, &l.UpdatedAt)
}

func (r *LeadRepo) GetByID(ctx context.Context, id uint64) (*model.Lead, error) {
	l, err := scanLead(r.DB.QueryRowContext(ctx, "SELECT "+leadColumns+" FROM leads WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

// List returns one page of leads matching f plus the total match count.
func (r *LeadRepo) List(ctx context.Context, f model.LeadFilter) ([]*model.Lead, int, error) {
	where := []string{}
	args := []any{}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.CarID != 0 {
		where = append(where, "car_id = ?")
		args = append(args, f.CarID)
	}
	if f.Q != "" {
		p := likePattern(f.Q)
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ?)")
		args = append(args, p, p, p)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM leads WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "created_at DESC, id DESC"
	if f.Oldest {
		order = "created_at ASC, id ASC"
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+leadColumns+" FROM leads WHERE "+cond+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		append(append([]any{}, args...), f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*model.Lead, 0, f.Limit)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateStatus changes the triage state of a lead.
func (r *LeadRepo) UpdateStatus(ctx context.Context, id uint64, status model.LeadStatus) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE leads SET status = ?, updated_at = CURRENT_TIMESTAMP(3) WHERE id = ?", status, id)
	return affectedOne(res, err)
}
