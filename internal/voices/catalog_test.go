package voices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	aria := Lookup("aria")
	assert.Equal(t, "aria", aria.ID)
	assert.NotEmpty(t, aria.Glyph)
	assert.NotEmpty(t, aria.Description)

	custom := Lookup("cloned-voice-7")
	assert.Equal(t, "cloned-voice-7", custom.ID)
	assert.Equal(t, "Custom voice", custom.Description, "unknown ids get the generic rendering")
	assert.False(t, InCatalog("cloned-voice-7"))
}

func TestAll_StableAndCopied(t *testing.T) {
	first := All()
	require.NotEmpty(t, first)

	first[0].ID = "mutated"

	assert.NotEqual(t, "mutated", All()[0].ID, "All must return a copy")
}

func TestDefaultHost(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < len(catalog); i++ {
		h := DefaultHost(i)
		assert.NotEmpty(t, h.Name)
		assert.True(t, InCatalog(h.VoiceID))
		assert.False(t, seen[h.VoiceID], "consecutive default hosts get distinct voices")
		seen[h.VoiceID] = true
	}

	// Past the catalog size, voices cycle.
	assert.Equal(t, DefaultHost(0).VoiceID, DefaultHost(len(catalog)).VoiceID)
}
