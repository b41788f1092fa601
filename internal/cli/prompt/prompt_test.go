package prompt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmWithForceSkipsPrompt(t *testing.T) {
	// With force set, no terminal is touched at all.
	confirmed, err := ConfirmWithForce("Unmount daac/obs/map.fits?", true)
	require.NoError(t, err)
	assert.True(t, confirmed)
}

func TestIsAborted(t *testing.T) {
	assert.True(t, IsAborted(ErrAborted))
	assert.True(t, IsAborted(promptui.ErrInterrupt))
	assert.True(t, IsAborted(promptui.ErrAbort))
	assert.True(t, IsAborted(fmt.Errorf("selecting replica: %w", ErrAborted)))
	assert.False(t, IsAborted(errors.New("terminal too small")))
	assert.False(t, IsAborted(nil))
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, wrapError(nil))
	assert.Equal(t, ErrAborted, wrapError(promptui.ErrInterrupt))
	assert.Equal(t, ErrAborted, wrapError(promptui.ErrAbort))

	other := errors.New("read failed")
	assert.Equal(t, other, wrapError(other))
}
