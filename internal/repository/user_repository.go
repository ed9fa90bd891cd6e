package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/car-marketplace/internal/database"
	"github.com/iliyamo/car-marketplace/internal/model"
)

const userColumns = "id, email, password_hash, role, name, phone, is_active, refresh_token_hash, created_at, updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u                    model.User
		name, phone, refresh sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &name, &phone, &u.IsActive, &refresh, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Name, u.Phone, u.RefreshTokenHash = name.String, phone.String, refresh.String
	return &u, nil
}

// Create inserts u and fills in its ID and timestamps.  The email is
// normalized before the insert.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, name, phone, is_active) VALUES (?,?,?,?,?,?)",
		u.Email, u.PasswordHash, u.Role, nullString(u.Name), nullString(u.Phone), u.IsActive)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM users WHERE id=?", u.ID).Scan(&u.CreatedAt, &u.UpdatedAt)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// List returns users matching f, newest first.
func (r *UserRepo) List(ctx context.Context, f model.UserFilter) ([]*model.User, error) {
	where := []string{}
	args := []any{}
	if f.Role != nil {
		where = append(where, "role = ?")
		args = append(args, *f.Role)
	}
	if f.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *f.IsActive)
	}
	q := "SELECT " + userColumns + " FROM users"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields of p.  It returns ErrNotFound when no
// row matches.
func (r *UserRepo) Update(ctx context.Context, id uint64, p model.UserPatch) error {
	set := []string{"updated_at = CURRENT_TIMESTAMP(3)"}
	args := []any{}
	if p.Name != nil {
		set = append(set, "name = ?")
		args = append(args, nullString(*p.Name))
	}
	if p.Phone != nil {
		set = append(set, "phone = ?")
		args = append(args, nullString(*p.Phone))
	}
	if p.IsActive != nil {
		set = append(set, "is_active = ?")
		args = append(args, *p.IsActive)
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	return affectedOne(res, err)
}

// SetRefreshTokenHash stores the digest of the user's current refresh
// token, replacing any previous one.  An empty hash clears it.
func (r *UserRepo) SetRefreshTokenHash(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash = ?, updated_at = CURRENT_TIMESTAMP(3) WHERE id = ?",
		nullString(hash), id)
	return affectedOne(res, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByRole removes every account with the given role.
func (r *UserRepo) DeleteByRole(ctx context.Context, role model.Role) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE role = ?", role)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
