// Package service holds the business rules of the marketplace.  Services
// depend on the store interfaces below rather than on concrete
// repositories; internal/repository satisfies them against MySQL and
// internal/storetest satisfies them in memory.
package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/iliyamo/car-marketplace/internal/apperr"
	"github.com/iliyamo/car-marketplace/internal/model"
	"github.com/iliyamo/car-marketplace/internal/queue"
	"github.com/iliyamo/car-marketplace/internal/repository"
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	List(ctx context.Context, f model.UserFilter) ([]*model.User, error)
	Update(ctx context.Context, id uint64, p model.UserPatch) error
	SetRefreshTokenHash(ctx context.Context, id uint64, hash string) error
}

type CarStore interface {
	Create(ctx context.Context, c *model.Car) error
	GetByID(ctx context.Context, id uint64) (*model.Car, error)
	List(ctx context.Context, f model.CarFilter) ([]*model.Car, int, error)
	Update(ctx context.Context, id uint64, p model.CarPatch, owner *model.User) error
	UpdateStatus(ctx context.Context, id uint64, status model.CarStatus) error
	UpdateModeration(ctx context.Context, id uint64, status model.ModerationStatus, comment *string) error
	Delete(ctx context.Context, id uint64) error
}

type LeadStore interface {
	Create(ctx context.Context, l *model.Lead) error
	GetByID(ctx context.Context, id uint64) (*model.Lead, error)
	List(ctx context.Context, f model.LeadFilter) ([]*model.Lead, int, error)
	UpdateStatus(ctx context.Context, id uint64, status model.LeadStatus) error
}

type SettingsStore interface {
	Get(ctx context.Context) (*model.Settings, error)
	Update(ctx context.Context, p model.SettingsPatch) (*model.Settings, error)
}

// EventPublisher emits domain events.  Failures never fail the request.
type EventPublisher interface {
	LeadCreated(ctx context.Context, ev queue.LeadCreatedEvent) error
	CarModerated(ctx context.Context, ev queue.CarModeratedEvent) error
}

// ParseID validates a numeric identifier coming from a path, query or body.
func ParseID(raw, name string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validationf("Invalid %s", name)
	}
	return id, nil
}

// storeErr maps a repository error onto an application error.
func storeErr(err error, resource string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(resource)
	case errors.Is(err, repository.ErrEmailExists):
		return apperr.Conflict("User already exists")
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal("database error", err)
}

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// parsePaging reads page and limit query values.  Empty values take the
// defaults; anything else must be a positive integer and limit may not
// exceed 100.
func parsePaging(page, limit string) (int, int, error) {
	p, l := defaultPage, defaultLimit
	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			return 0, 0, apperr.Validation("page must be a positive integer")
		}
		p = n
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > maxLimit {
			return 0, 0, apperr.Validation("limit must be between 1 and 100")
		}
		l = n
	}
	return p, l, nil
}

func optInt(raw, name string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.Validationf("%s must be an integer", name)
	}
	return &n, nil
}

func optFloat(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperr.Validationf("%s must be a number", name)
	}
	return &f, nil
}
