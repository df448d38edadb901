package voices

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// SampleSource fetches a streamable audio sample for a voice.
type SampleSource interface {
	FetchVoiceSample(ctx context.Context, voiceID string) (io.ReadCloser, error)
}

// SamplePlayer plays one audio stream at a time. Starting a new stream
// replaces whatever was playing. It takes ownership of the reader.
type SamplePlayer interface {
	Play(ctx context.Context, audio io.ReadCloser) error
	Stop()
}

// Previewer manages the single voice-preview slot. At most one sample
// plays at a time; requesting the voice that is already playing stops
// it. Previews are best-effort: fetch and playback errors reset the
// slot to idle and never reach the caller.
type Previewer struct {
	source SampleSource
	player SamplePlayer

	mu      sync.Mutex
	playing string
}

// NewPreviewer wires a previewer to a sample source and player.
func NewPreviewer(source SampleSource, player SamplePlayer) *Previewer {
	return &Previewer{source: source, player: player}
}

// Toggle starts a preview of voiceID, or stops it if it is the one
// already playing. Returns the voice id now playing ("" when idle).
func (p *Previewer) Toggle(ctx context.Context, voiceID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Requesting the current voice again is a stop.
	if p.playing == voiceID {
		p.player.Stop()
		p.playing = ""

		return ""
	}

	// Whatever else was playing gets discarded first, so the single
	// preview slot never holds two live streams.
	p.player.Stop()
	p.playing = ""

	sample, err := p.source.FetchVoiceSample(ctx, voiceID)
	if err != nil {
		slog.Debug("voice sample fetch failed", "voice", voiceID, "error", err)
		return ""
	}

	if err := p.player.Play(ctx, sample); err != nil {
		slog.Debug("voice sample playback failed", "voice", voiceID, "error", err)
		return ""
	}

	p.playing = voiceID

	return voiceID
}

// Playing returns the voice id currently in the preview slot, or "".
func (p *Previewer) Playing() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.playing
}

// Stop clears the preview slot.
func (p *Previewer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.player.Stop()
	p.playing = ""
}
