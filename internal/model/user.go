package model

import "time"

// Role is the access level of a user account.  Admins are a superset of
// owners: every route that accepts an owner also accepts an admin.
type Role string

const (
    RoleAdmin Role = "admin"
    RoleOwner Role = "owner"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleAdmin || r == RoleOwner }

// User represents an account record as stored in the `users` table.
//
// Fields:
//  ID               – primary key identifier of the user.
//  Email            – unique email address, stored lowercased and trimmed.
//  PasswordHash     – bcrypt hashed password.
//  Role             – admin or owner.
//  Name, Phone      – optional contact details copied onto owned cars.
//  IsActive         – disabled accounts cannot log in or refresh.
//  RefreshTokenHash – SHA‑256 digest of the single current refresh token;
//                     empty when the user is logged out.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type User struct {
    ID               uint64    `json:"id"`
    Email            string    `json:"email"`
    PasswordHash     string    `json:"-"`
    Role             Role      `json:"role"`
    Name             string    `json:"name,omitempty"`
    Phone            string    `json:"phone,omitempty"`
    IsActive         bool      `json:"isActive"`
    RefreshTokenHash string    `json:"-"`
    CreatedAt        time.Time `json:"createdAt"`
    UpdatedAt        time.Time `json:"updatedAt"`
}

// UserFilter narrows the admin user list.  Nil fields are not applied.
type UserFilter struct {
    Role     *Role
    IsActive *bool
}

// UserPatch holds the fields an admin may change on an account.
type UserPatch struct {
    Name     *string `json:"name"`
    Phone    *string `json:"phone"`
    IsActive *bool   `json:"isActive"`
}

// RegisterInput is the self-service owner sign-up form.
type RegisterInput struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required,min=6,max=72"`
    Name     string `json:"name" validate:"required"`
    Phone    string `json:"phone" validate:"required"`
}

// LoginInput carries credentials.
type LoginInput struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required"`
}

// CreateUserInput is used by admins to provision accounts.  Role defaults
// to owner.
type CreateUserInput struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required,min=6,max=72"`
    Name     string `json:"name"`
    Phone    string `json:"phone"`
    Role     Role   `json:"role" validate:"omitempty,oneof=admin owner"`
}

// AuthUser is the caller identity decoded from an access token.  It is
// trusted without a database round trip for the lifetime of the token.
type AuthUser struct {
    ID    uint64
    Role  Role
    Email string
}

// IsAdmin reports whether the caller has the admin role.
func (u AuthUser) IsAdmin() bool { return u.Role == RoleAdmin }
