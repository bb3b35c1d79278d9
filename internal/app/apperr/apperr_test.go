package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("stripe: connection reset")
	err := New(KindExternal, "payments.create_session", "payment provider unavailable", cause)

	assert.Equal(t, KindExternal, KindOf(err))
	assert.Equal(t, KindExternal, KindOf(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, KindInternal, KindOf(cause))
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, KindExternal))
	assert.False(t, Is(nil, KindExternal))
}

func TestMessageOf_NeverLeaksCause(t *testing.T) {
	cause := errors.New("card_declined: secret provider detail")

	assert.Equal(t, "payment could not be completed", MessageOf(New(KindExternal, "op", "", cause)))
	assert.Equal(t, "property not found", MessageOf(NotFound("op", "property not found", cause)))
	assert.Equal(t, "internal error", MessageOf(cause))
	assert.NotContains(t, MessageOf(Internal("op", cause)), "secret")
}
