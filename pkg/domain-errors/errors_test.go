package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateErr struct{}

func (stateErr) Error() string   { return "wrong state" }
func (stateErr) ErrorCode() Code { return CodeInvalidTransition }

func TestCodes(t *testing.T) {
	t.Run("new carries code and message", func(t *testing.T) {
		err := New(CodeNotFound, "request not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.Equal(t, "request not found", err.Error())
	})

	t.Run("wrap keeps cause reachable", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, CodeInternal, "load request")
		require.ErrorIs(t, err, cause)
		assert.Equal(t, "load request: connection reset", err.Error())
		assert.Equal(t, CodeInternal, CodeOf(err))
	})

	t.Run("wrap nil is nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "noop"))
	})

	t.Run("typed errors join through ErrorCode", func(t *testing.T) {
		err := fmt.Errorf("fire: %w", stateErr{})
		assert.True(t, HasCode(err, CodeInvalidTransition))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.Equal(t, Code(""), CodeOf(errors.New("boom")))
		assert.False(t, HasCode(nil, CodeInternal))
	})

	t.Run("message prefers coded message", func(t *testing.T) {
		err := Wrap(errors.New("pq: deadlock"), CodeInternal, "save request")
		assert.Equal(t, "save request", Message(err))
	})
}
