package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError(t *testing.T) {
	err := NewUserError("payload rejected", ErrInvalidPayload)

	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "payload rejected", userErr.UserMessage)
	assert.True(t, errors.Is(err, ErrInvalidPayload))
	assert.Equal(t, "payload rejected: invalid rule payload", err.Error())
}

func TestUserError_NoWrappedError(t *testing.T) {
	err := NewUserError("something went wrong", nil)
	assert.Equal(t, "something went wrong", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}
