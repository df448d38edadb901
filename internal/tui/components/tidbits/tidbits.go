// Package tidbits rotates through short informational lines shown
// while the user waits.
package tidbits

// Defaults are the stock lines shown during generation.
var Defaults = []string{
	"Scripts are written host by host, so every voice keeps its own personality.",
	"Longer source documents produce longer target durations automatically.",
	"Chapters are cut where the conversation changes topic.",
	"You can preview each host voice before generating.",
	"Playback supports speeds from 0.75x up to 2x.",
	"The transcript view follows along as the audio plays.",
	"Up to three documents can be blended into a single episode.",
}

// Rotator cycles through its lines in order, wrapping around.
type Rotator struct {
	lines []string
	curr  int
}

// New creates a rotator over the given lines, falling back to Defaults
// when none are provided.
func New(lines []string) Rotator {
	if len(lines) == 0 {
		lines = Defaults
	}

	return Rotator{lines: lines}
}

// Current returns the line on display.
func (r Rotator) Current() string {
	return r.lines[r.curr]
}

// Next advances to the following line, wrapping at the end.
func (r *Rotator) Next() {
	r.curr = (r.curr + 1) % len(r.lines)
}

// Reset returns to the first line.
func (r *Rotator) Reset() {
	r.curr = 0
}
