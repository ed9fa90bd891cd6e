package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryStatusAndCode(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
		code   string
	}{
		{Validation("bad"), http.StatusBadRequest, CodeValidation},
		{Unauthorized(""), http.StatusUnauthorized, CodeUnauthorized},
		{Forbidden(""), http.StatusForbidden, CodeForbidden},
		{NotFound("Car"), http.StatusNotFound, CodeNotFound},
		{Conflict("dup"), http.StatusConflict, CodeConflict},
		{RateLimited("slow down"), http.StatusTooManyRequests, CodeRateLimited},
		{Internal("boom", errors.New("db down")), http.StatusInternalServerError, CodeInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.Status, tc.code)
		assert.Equal(t, tc.code, tc.err.Code)
	}
	assert.Equal(t, "Car not found", NotFound("Car").Message)
	assert.Equal(t, "Unauthorized", Unauthorized("").Message)
}

func TestAsUnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("load car: %w", NotFound("Car"))
	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, e.Code)
	assert.True(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(errors.New("plain"), CodeNotFound))
}

func TestOperational(t *testing.T) {
	assert.True(t, Conflict("x").Operational())
	assert.False(t, Internal("x", nil).Operational())

	cause := errors.New("socket closed")
	in := Internal("query failed", cause)
	assert.ErrorIs(t, in, cause)
	assert.Equal(t, "query failed: socket closed", in.Error())
}
