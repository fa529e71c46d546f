package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "3.5s", FormatDuration(3500*time.Millisecond))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
}

func TestColorFuncPassthroughWithoutTerminal(t *testing.T) {
	// Test runs without a tty, so color functions must be identity.
	if supportsColor {
		t.Skip("running on a terminal")
	}
	assert.Equal(t, "hello", ColorSuccess("hello"))
	assert.Equal(t, "hello", ColorError("hello"))
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := NewSpinner("working")
	s.Start()
	s.Stop(true, "done")
	assert.NotPanics(t, func() { s.Stop(true, "done again") })
}
