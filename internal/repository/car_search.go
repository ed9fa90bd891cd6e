package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/car-marketplace/internal/model"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps s for a case-insensitive substring match.  Wildcards in
// user input are escaped so they match literally.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func carOrder(s model.CarSort) string {
	switch s {
	case model.SortPriceAsc:
		return "price ASC, id ASC"
	case model.SortPriceDesc:
		return "price DESC, id DESC"
	case model.SortYearDesc:
		return "year DESC, id DESC"
	}
	return "created_at DESC, id DESC"
}

func carWhere(f model.CarFilter) (string, []any) {
	where := []string{}
	args := []any{}

	if f.Q != "" {
		p := likePattern(f.Q)
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(model) LIKE ?)")
		args = append(args, p, p, p)
	}
	if f.Brand != "" {
		where = append(where, "LOWER(brand) = ?")
		args = append(args, strings.ToLower(f.Brand))
	}
	if f.YearFrom != nil {
		where = append(where, "year >= ?")
		args = append(args, *f.YearFrom)
	}
	if f.YearTo != nil {
		where = append(where, "year <= ?")
		args = append(args, *f.YearTo)
	}
	if f.PriceFrom != nil {
		where = append(where, "price >= ?")
		args = append(args, *f.PriceFrom)
	}
	if f.PriceTo != nil {
		where = append(where, "price <= ?")
		args = append(args, *f.PriceTo)
	}
	if f.FuelType != "" {
		where = append(where, "fuel_type = ?")
		args = append(args, f.FuelType)
	}
	if f.Transmission != "" {
		where = append(where, "transmission = ?")
		args = append(args, f.Transmission)
	}
	if f.Drive != "" {
		where = append(where, "drive = ?")
		args = append(args, f.Drive)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.ModerationStatus != "" {
		where = append(where, "moderation_status = ?")
		args = append(args, f.ModerationStatus)
	}
	if f.OwnerID != 0 {
		where = append(where, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.CreatedBy != 0 {
		where = append(where, "created_by = ?")
		args = append(args, f.CreatedBy)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	return cond, args
}

// List returns one page of cars matching f plus the total match count.
func (r *CarRepo) List(ctx context.Context, f model.CarFilter) ([]*model.Car, int, error) {
	cond, args := carWhere(f)

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM cars WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := "SELECT " + carColumns + " FROM cars WHERE " + cond +
		" ORDER BY " + carOrder(f.Sort) + " LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), f.Limit, f.Offset)

	rows, err := r.DB.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*model.Car, 0, f.Limit)
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
