// Package repository contains the MySQL data access layer.  Repositories
// return the sentinel values below instead of driver errors so services can
// translate them into typed application errors.
package repository

import "errors"

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user insert violates the unique email
// constraint.
var ErrEmailExists = errors.New("email already exists")

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
