package types

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	t.Run("message only", func(t *testing.T) {
		err := Errorf(KindInvalidInput, "packager.package", "script is empty")
		assert.Equal(t, "script is empty", err.Error())
	})

	t.Run("message and cause", func(t *testing.T) {
		err := NewError(KindIOFailure, "autorun.write", "write failed", os.ErrPermission)
		assert.Equal(t, "write failed: permission denied", err.Error())
		assert.ErrorIs(t, err, os.ErrPermission)
	})

	t.Run("cause only", func(t *testing.T) {
		err := NewError(KindToolFailure, "packager.build", "", errors.New("exit status 1"))
		assert.Equal(t, "exit status 1", err.Error())
	})
}

func TestKindOf(t *testing.T) {
	base := Errorf(KindToolMissing, "packager.resolve", "pyinstaller missing")
	wrapped := fmt.Errorf("build: %w", base)

	assert.Equal(t, KindToolMissing, KindOf(base))
	assert.Equal(t, KindToolMissing, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindToolMissing))
	assert.False(t, IsKind(wrapped, KindIOFailure))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.False(t, IsKind(nil, KindUnknown))
}
