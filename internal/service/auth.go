package service

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iliyamo/car-marketplace/internal/apperr"
	"github.com/iliyamo/car-marketplace/internal/model"
	"github.com/iliyamo/car-marketplace/internal/utils"
)

const invalidCredentials = "Invalid email or password"

// AuthResult is returned by login and register.
type AuthResult struct {
	TokenPair
	User *model.User `json:"user"`
}

type AuthService struct {
	Users      UserStore
	Tokens     *TokenService
	BcryptCost int
	Log        zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users UserStore, tokens *TokenService, bcryptCost int, log zerolog.Logger) *AuthService {
	return &AuthService{Users: users, Tokens: tokens, BcryptCost: bcryptCost, Log: log}
}

// dummy returns a bcrypt hash at the configured cost.  Login compares
// against it when the email is unknown so both failure paths take the
// same time.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := utils.HashPassword("not-a-real-password", s.BcryptCost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// Login checks credentials of an active user and issues a token pair.
// Unknown email, inactive account and wrong password produce the same
// error.
func (s *AuthService) Login(ctx context.Context, in model.LoginInput) (*AuthResult, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	u, err := s.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil && !apperr.IsCode(storeErr(err, "User"), apperr.CodeNotFound) {
		return nil, storeErr(err, "User")
	}
	if u == nil || !u.IsActive {
		utils.VerifyPassword(s.dummy(), in.Password)
		return nil, apperr.Unauthorized(invalidCredentials)
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		s.Log.Warn().Uint64("user_id", u.ID).Msg("login failed")
		return nil, apperr.Unauthorized(invalidCredentials)
	}
	pair, err := s.Tokens.GenerateTokenPair(ctx, u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{TokenPair: pair, User: u}, nil
}

// Register creates an owner account and logs it in.
func (s *AuthService) Register(ctx context.Context, in model.RegisterInput) (*AuthResult, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	u := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Role:         model.RoleOwner,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		IsActive:     true,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, storeErr(err, "User")
	}
	s.Log.Info().Uint64("user_id", u.ID).Msg("owner registered")
	pair, err := s.Tokens.GenerateTokenPair(ctx, u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{TokenPair: pair, User: u}, nil
}

// Me returns the current profile.
func (s *AuthService) Me(ctx context.Context, userID uint64) (*model.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "User")
	}
	return u, nil
}
