package apperr

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacityExceededCarriesAvailable(t *testing.T) {
	err := CapacityExceeded(3)

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, KindCapacityExceeded, e.Kind)
	assert.Equal(t, 3, e.Available)
	assert.Equal(t, "Only 3 seat(s) available for this date and time. Please choose fewer guests or another slot.", e.Message)
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := errors.Wrap(NotFound("Restaurant not found"), "load restaurant")

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindValidation))
}

func TestUnexpectedHidesCauseFromMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unexpected(cause, "create reservation")

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, KindUnexpected, e.Kind)
	assert.Equal(t, "create reservation", e.Message)
	assert.True(t, errors.Is(err, cause))
}

func TestUnclassifiedIsUnexpected(t *testing.T) {
	assert.Equal(t, KindUnexpected, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindUnexpected))
}
