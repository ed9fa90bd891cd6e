package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("access-secret", 42, "owner", "o@x.io", 15*time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	claims, err := ParseToken("access-secret", tok.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "owner", claims.Role)
	assert.Equal(t, "o@x.io", claims.Email)
}

func TestParseTokenRejects(t *testing.T) {
	tok, err := NewAccessToken("access-secret", 1, "admin", "a@x.io", time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewAccessToken("access-secret", 1, "admin", "a@x.io", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("access-secret", expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("access-secret", "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// A token without exp is not accepted.
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = ParseToken("access-secret", noExp)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// HS512 is signed with the right secret but not an accepted algorithm.
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "1", "exp": time.Now().Add(time.Hour).Unix()}).
		SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = ParseToken("access-secret", hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	a, err := NewRefreshToken("refresh-secret", 7, time.Hour)
	require.NoError(t, err)
	b, err := NewRefreshToken("refresh-secret", 7, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.NotEqual(t, HashToken(a.Raw), HashToken(b.Raw))

	claims, err := ParseToken("refresh-secret", a.Raw)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
	assert.Empty(t, claims.Role)
}

func TestClaimsUserIDRejectsBadSubject(t *testing.T) {
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}
	_, err := c.UserID()
	assert.ErrorIs(t, err, ErrInvalidToken)

	c.Subject = "0"
	_, err = c.UserID()
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashToken(t *testing.T) {
	h := HashToken("abc")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashToken("abc"))
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "hunter22"))
	assert.False(t, VerifyPassword(h, "hunter23"))
	assert.False(t, VerifyPassword("not-a-hash", "hunter22"))
}

func TestHashPasswordLimits(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", MaxPasswordBytes+1), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	h, err := HashPassword("hunter22", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
