package tidbits_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/castforge/castforge/internal/tui/components/tidbits"
)

func TestRotator_WrapsAround(t *testing.T) {
	t.Parallel()

	r := tidbits.New([]string{"a", "b", "c"})

	assert.Equal(t, "a", r.Current())
	r.Next()
	assert.Equal(t, "b", r.Current())
	r.Next()
	assert.Equal(t, "c", r.Current())
	r.Next()
	assert.Equal(t, "a", r.Current())
}

func TestRotator_Reset(t *testing.T) {
	t.Parallel()

	r := tidbits.New([]string{"a", "b"})
	r.Next()
	r.Reset()

	assert.Equal(t, "a", r.Current())
}

func TestRotator_DefaultLines(t *testing.T) {
	t.Parallel()

	r := tidbits.New(nil)
	assert.Equal(t, tidbits.Defaults[0], r.Current())
}
