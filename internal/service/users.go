package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/car-marketplace/internal/apperr"
	"github.com/iliyamo/car-marketplace/internal/model"
	"github.com/iliyamo/car-marketplace/internal/utils"
)

type UserService struct {
	Users      UserStore
	BcryptCost int
	Log        zerolog.Logger
}

func NewUserService(users UserStore, bcryptCost int, log zerolog.Logger) *UserService {
	return &UserService{Users: users, BcryptCost: bcryptCost, Log: log}
}

// List returns users newest first, optionally filtered by role and
// isActive ("true"/"false").
func (s *UserService) List(ctx context.Context, role, isActive string) ([]*model.User, error) {
	var f model.UserFilter
	if role != "" {
		r := model.Role(role)
		if !r.Valid() {
			return nil, apperr.Validation("role must be one of: admin, owner")
		}
		f.Role = &r
	}
	if isActive != "" {
		b, err := strconv.ParseBool(isActive)
		if err != nil {
			return nil, apperr.Validation("isActive must be a boolean")
		}
		f.IsActive = &b
	}
	users, err := s.Users.List(ctx, f)
	if err != nil {
		return nil, storeErr(err, "User")
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "User")
	}
	return u, nil
}

// Update changes name, phone or the active flag.
func (s *UserService) Update(ctx context.Context, id uint64, p model.UserPatch) (*model.User, error) {
	if err := s.Users.Update(ctx, id, p); err != nil {
		return nil, storeErr(err, "User")
	}
	return s.Get(ctx, id)
}

// Create provisions an account.  The role defaults to owner.
func (s *UserService) Create(ctx context.Context, in model.CreateUserInput) (*model.User, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = model.RoleOwner
	}
	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	u := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Role:         in.Role,
		Name:         in.Name,
		Phone:        in.Phone,
		IsActive:     true,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, storeErr(err, "User")
	}
	s.Log.Info().Uint64("user_id", u.ID).Str("role", string(u.Role)).Msg("user created")
	return u, nil
}
