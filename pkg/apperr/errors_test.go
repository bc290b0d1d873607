package apperr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("course %s not found", "x")))
	assert.Equal(t, KindInvalidInput, KindOf(InvalidInput("grade is required")))
	assert.Equal(t, KindConflict, KindOf(Conflict("already enrolled")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := errors.Wrap(NotFound("enrollment not found"), "mark lesson complete")
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "enrollment not found", Message(err))
}

func TestMessageHidesInternalErrors(t *testing.T) {
	assert.Equal(t, "internal server error", Message(errors.New("pq: connection refused")))
	assert.False(t, Is(nil, KindInternal))
}

func TestCheckID(t *testing.T) {
	assert.NoError(t, CheckID("course", "6f1c1f8e-8a8b-4c49-9d7c-2f4f4c3e2a11"))
	err := CheckID("course", "not-a-uuid")
	assert.True(t, Is(err, KindInvalidInput))
	assert.Equal(t, "invalid course id", Message(err))
}
