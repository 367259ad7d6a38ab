package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	t.Run("formats template details", func(t *testing.T) {
		err := NewError(ErrMessageContentTooLong, 5000)
		require.NotNil(t, err)
		assert.Equal(t, ErrMessageContentTooLong, err.Code)
		assert.Equal(t, "Message is too long (max 5000 bytes).", err.Message)
		assert.Equal(t, http.StatusOK, err.Status)
	})

	t.Run("keeps explicit status", func(t *testing.T) {
		err := NewError(ErrUnauthorized)
		assert.Equal(t, http.StatusUnauthorized, err.Status)
	})

	t.Run("unknown code degrades to ErrUnknown", func(t *testing.T) {
		err := NewError(424242)
		assert.Equal(t, ErrUnknown, err.Code)
		assert.Equal(t, http.StatusInternalServerError, err.Status)
	})

	t.Run("template is not mutated between calls", func(t *testing.T) {
		_ = NewError(ErrGroupNameInvalid, 64)
		again := errorMap[ErrGroupNameInvalid]
		assert.Contains(t, again.Message, "%d")
	})
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("send: %w", NewError(ErrNotGroupMember))
	assert.Equal(t, ErrNotGroupMember, CodeOf(wrapped))
	assert.Equal(t, ErrUnknown, CodeOf(errors.New("boom")))
}
