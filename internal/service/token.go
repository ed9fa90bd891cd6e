package service

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/iliyamo/car-marketplace/internal/apperr"
	"github.com/iliyamo/car-marketplace/internal/model"
	"github.com/iliyamo/car-marketplace/internal/utils"
)

// TokenPair is returned by login, register and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService issues and verifies JWTs.  Access tokens are verified from
// their signature alone.  Each user has at most one live refresh token:
// issuing a pair overwrites the stored digest, which invalidates every
// earlier refresh token of that user.
type TokenService struct {
	Users         UserStore
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewTokenService(users UserStore, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		Users:         users,
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}
}

// GenerateTokenPair signs a new pair for u and stores the refresh digest.
func (s *TokenService) GenerateTokenPair(ctx context.Context, u *model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.AccessSecret, u.ID, string(u.Role), u.Email, s.AccessTTL)
	if err != nil {
		return TokenPair{}, apperr.Internal("sign access token", err)
	}
	refresh, err := utils.NewRefreshToken(s.RefreshSecret, u.ID, s.RefreshTTL)
	if err != nil {
		return TokenPair{}, apperr.Internal("sign refresh token", err)
	}
	if err := s.Users.SetRefreshTokenHash(ctx, u.ID, utils.HashToken(refresh.Raw)); err != nil {
		return TokenPair{}, storeErr(err, "User")
	}
	return TokenPair{AccessToken: access.Token, RefreshToken: refresh.Raw}, nil
}

// VerifyAccessToken checks signature and expiry and returns the caller.
func (s *TokenService) VerifyAccessToken(raw string) (model.AuthUser, error) {
	claims, err := utils.ParseToken(s.AccessSecret, raw)
	if err != nil {
		return model.AuthUser{}, apperr.Unauthorized("Invalid or expired token")
	}
	id, err := claims.UserID()
	role := model.Role(claims.Role)
	if err != nil || !role.Valid() || claims.Email == "" {
		return model.AuthUser{}, apperr.Unauthorized("Invalid token payload")
	}
	return model.AuthUser{ID: id, Role: role, Email: claims.Email}, nil
}

// Refresh exchanges a refresh token for a new pair.  The token must be the
// one most recently issued to an active user.
func (s *TokenService) Refresh(ctx context.Context, raw string) (TokenPair, error) {
	invalid := apperr.Unauthorized("Invalid refresh token")
	if raw == "" {
		return TokenPair{}, apperr.Validation("refreshToken is required")
	}
	claims, err := utils.ParseToken(s.RefreshSecret, raw)
	if err != nil {
		return TokenPair{}, invalid
	}
	id, err := claims.UserID()
	if err != nil {
		return TokenPair{}, invalid
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		if apperr.IsCode(storeErr(err, "User"), apperr.CodeNotFound) {
			return TokenPair{}, invalid
		}
		return TokenPair{}, storeErr(err, "User")
	}
	digest := utils.HashToken(raw)
	if !u.IsActive || u.RefreshTokenHash == "" ||
		subtle.ConstantTimeCompare([]byte(u.RefreshTokenHash), []byte(digest)) != 1 {
		return TokenPair{}, invalid
	}
	return s.GenerateTokenPair(ctx, u)
}

// Logout forgets the stored refresh token of userID.
func (s *TokenService) Logout(ctx context.Context, userID uint64) error {
	if err := s.Users.SetRefreshTokenHash(ctx, userID, ""); err != nil {
		return storeErr(err, "User")
	}
	return nil
}
