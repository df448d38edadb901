// Package voices holds the fixed voice catalog and the single-slot
// sample previewer used while configuring hosts.
package voices

import (
	"fmt"

	"github.com/castforge/castforge/internal/podcast"
)

// Voice describes one synthetic voice available for hosts.
type Voice struct {
	ID          string
	Glyph       string
	Color       string // lipgloss ANSI color code
	Description string
}

// catalog is the fixed set of shipped voices, in display order.
var catalog = []Voice{
	{ID: "aria", Glyph: "✦", Color: "205", Description: "Warm and curious, leans into questions"},
	{ID: "atlas", Glyph: "◈", Color: "63", Description: "Measured baritone, good for narration"},
	{ID: "juniper", Glyph: "❋", Color: "42", Description: "Bright and quick, keeps things moving"},
	{ID: "orion", Glyph: "◉", Color: "214", Description: "Deep and deliberate, the explainer"},
	{ID: "sage", Glyph: "✧", Color: "147", Description: "Calm and dry, lands the punchlines"},
	{ID: "nova", Glyph: "❖", Color: "203", Description: "Energetic, drives the conversation"},
}

// fallback renders any voice id not in the catalog. Unknown ids are
// accepted as data, never rejected.
var fallback = Voice{Glyph: "◆", Color: "241", Description: "Custom voice"}

// All returns every catalog voice in display order.
func All() []Voice {
	out := make([]Voice, len(catalog))
	copy(out, catalog)

	return out
}

// Lookup returns catalog metadata for a voice id, or a generic
// rendering for ids outside the catalog.
func Lookup(id string) Voice {
	for _, v := range catalog {
		if v.ID == id {
			return v
		}
	}

	v := fallback
	v.ID = id

	return v
}

// InCatalog reports whether id is a shipped voice.
func InCatalog(id string) bool {
	for _, v := range catalog {
		if v.ID == id {
			return true
		}
	}

	return false
}

// DefaultHost fills host slot i with a default name and a voice cycled
// from the catalog, so every new slot starts distinct.
func DefaultHost(i int) podcast.Host {
	return podcast.Host{
		ID:      fmt.Sprintf("host-%d", i+1),
		Name:    fmt.Sprintf("Host %d", i+1),
		VoiceID: catalog[i%len(catalog)].ID,
	}
}
