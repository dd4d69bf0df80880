package accountd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	e := NewError(CodeNotFound, "Invalid credentials", ErrInvalidCredentials)
	assert.Equal(t, "NOT_FOUND: Invalid credentials: invalid credentials", e.Error())

	bare := NewError(CodeConfigInvalid, "session window must be positive", nil)
	assert.Equal(t, "CONFIG_INVALID: session window must be positive", bare.Error())
}

func TestError_Unwrap(t *testing.T) {
	e := NewError(CodeUnauthorized, "Not authorized", ErrNotAuthorized)

	assert.ErrorIs(t, e, ErrNotAuthorized)

	var target *Error
	assert.True(t, errors.As(e, &target))
	assert.Equal(t, CodeUnauthorized, target.Code)
}
