package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("reserve: %w", New(InsufficientStock, "not enough available doses"))

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, InsufficientStock, KindOf(err))
	assert.Equal(t, "not enough available doses", Message(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(StoreUnavailable, "store unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, "store unavailable: connection refused", err.Error())
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, Internal, KindOf(err))
	assert.Equal(t, "boom", Message(err))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "no_caregiver_available", NoCaregiverAvailable.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
