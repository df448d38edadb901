// Package player owns time-synchronized playback of a finished
// podcast: transport controls, chapter and transcript tracking, and
// download of the episode audio.
package player

import (
	"fmt"
	"log/slog"

	"github.com/castforge/castforge/internal/podcast"
	"github.com/castforge/castforge/pkg/uictl"
)

// Speeds lists the allowed playback rate multipliers.
var Speeds = []float64{0.75, 1, 1.25, 1.5, 2}

// State is a snapshot of the playback controls.
type State struct {
	CurrentTime   float64
	Duration      float64
	IsPlaying     bool
	Volume        float64
	IsMuted       bool
	Speed         float64
	ActiveChapter int
}

// Engine binds one podcast record to one audio transport. All methods
// absorb transport failures: controls reset to idle and nothing
// escalates past the engine.
type Engine struct {
	record    *podcast.Record
	transport Transport

	current float64
	playing bool
	volume  float64
	muted   bool
	speed   float64
	active  int

	showTranscript bool
	showSummary    bool
}

// NewEngine creates an engine for rec bound to transport.
func NewEngine(rec *podcast.Record, transport Transport) *Engine {
	e := &Engine{
		record:    rec,
		transport: transport,
		volume:    1,
		speed:     1,
		active:    -1,
	}
	e.active = podcast.ActiveChapter(rec.Chapters, 0)

	return e
}

// Record returns the episode this engine plays.
func (e *Engine) Record() *podcast.Record {
	return e.record
}

// State returns the current control snapshot.
func (e *Engine) State() State {
	return State{
		CurrentTime:   e.current,
		Duration:      e.duration(),
		IsPlaying:     e.playing,
		Volume:        e.volume,
		IsMuted:       e.muted,
		Speed:         e.speed,
		ActiveChapter: e.active,
	}
}

func (e *Engine) duration() float64 {
	if d := e.transport.Duration(); d > 0 {
		return d
	}

	return e.record.Duration
}

// TogglePlay flips between playing and paused.
func (e *Engine) TogglePlay() {
	if e.playing {
		e.transport.Pause()
		e.playing = false

		return
	}

	if err := e.transport.Play(); err != nil {
		e.absorb("play", err)
		return
	}
	e.playing = true
}

// Skip adjusts the position by a relative offset in seconds, clamped
// into [0, duration].
func (e *Engine) Skip(delta float64) {
	e.setTime(e.current + delta)
}

// SeekFraction sets the absolute position from a pointer location on a
// progress track of the given width.
func (e *Engine) SeekFraction(pointer, trackWidth float64) {
	if trackWidth <= 0 {
		return
	}

	fraction := pointer / trackWidth
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	e.setTime(fraction * e.duration())
}

func (e *Engine) setTime(t float64) {
	if t < 0 {
		t = 0
	}
	if d := e.duration(); t > d {
		t = d
	}

	if err := e.transport.Seek(t); err != nil {
		e.absorb("seek", err)
		return
	}

	e.current = t
	e.active = podcast.ActiveChapter(e.record.Chapters, t)
}

// SetSpeed applies one of the discrete allowed playback rates.
func (e *Engine) SetSpeed(value float64) error {
	allowed := false
	for _, s := range Speeds {
		if value == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("playback speed %.2f not allowed", value)
	}

	if err := e.transport.SetRate(value); err != nil {
		e.absorb("set rate", err)
		return nil
	}
	e.speed = value

	return nil
}

// CycleSpeed advances to the next allowed speed, wrapping around.
func (e *Engine) CycleSpeed() {
	for i, s := range Speeds {
		if s == e.speed {
			_ = e.SetSpeed(Speeds[(i+1)%len(Speeds)])
			return
		}
	}

	_ = e.SetSpeed(Speeds[0])
}

// SetVolume stores and applies a volume in [0, 1]. Setting zero also
// mutes; setting anything audible unmutes.
func (e *Engine) SetVolume(value float64) {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}

	e.volume = value
	e.muted = value == 0
	e.transport.SetVolume(e.effectiveVolume())
}

// ToggleMute flips muted without touching the stored volume, so
// unmuting restores exactly the prior level.
func (e *Engine) ToggleMute() {
	e.muted = !e.muted
	e.transport.SetVolume(e.effectiveVolume())
}

func (e *Engine) effectiveVolume() float64 {
	if e.muted {
		return 0
	}

	return e.volume
}

// SelectChapter seeks to a chapter's start and begins playback if not
// already playing. An already-playing stream is never interrupted.
func (e *Engine) SelectChapter(index int) {
	if index < 0 || index >= len(e.record.Chapters) {
		return
	}

	e.setTime(e.record.Chapters[index].StartTime)

	if !e.playing {
		e.TogglePlay()
	}
}

// Sync pulls the transport clock and recomputes derived state. Call it
// on every UI tick while the engine is live.
func (e *Engine) Sync() {
	if err := e.transport.Err(); err != nil {
		e.absorb("transport", err)
		return
	}

	pos := e.transport.Position()
	if pos < 0 {
		pos = 0
	}

	d := e.duration()
	if pos >= d && d > 0 {
		pos = d
		if e.playing {
			e.transport.Pause()
			e.playing = false
		}
	}

	e.current = pos
	e.active = podcast.ActiveChapter(e.record.Chapters, pos)
}

// absorb logs a transport failure and resets controls to idle. Spec'd
// behavior: playback errors never crash or escalate.
func (e *Engine) absorb(op string, err error) {
	slog.Debug("playback transport error", "op", op, "error", err)
	e.playing = false
}

// ToggleTranscript shows or hides the transcript panel. Showing it
// hides the summary; the two are mutually exclusive.
func (e *Engine) ToggleTranscript() {
	e.showTranscript = !e.showTranscript
	if e.showTranscript {
		e.showSummary = false
	}
}

// ToggleSummary shows or hides the summary panel, hiding the
// transcript when shown.
func (e *Engine) ToggleSummary() {
	e.showSummary = !e.showSummary
	if e.showSummary {
		e.showTranscript = false
	}
}

// ShowingTranscript reports whether the transcript panel is open.
func (e *Engine) ShowingTranscript() bool { return e.showTranscript }

// ShowingSummary reports whether the summary panel is open.
func (e *Engine) ShowingSummary() bool { return e.showSummary }

// Close releases the transport. The engine is unusable afterwards.
func (e *Engine) Close() {
	e.playing = false
	e.transport.Close()
}

// PositionDial exposes the playback clock as a capped dial for the
// progress bar.
func (e *Engine) PositionDial() uictl.CappedDial[float64] {
	return positionDial{e: e}
}

// PlayingKnob exposes play/pause as a knob control.
func (e *Engine) PlayingKnob() uictl.Knob {
	return playingKnob{e: e}
}

// SampleLevels exposes recent output samples for the waveform.
func (e *Engine) SampleLevels() uictl.Levels[int16] {
	return sampleLevels{e: e}
}

type positionDial struct{ e *Engine }

func (d positionDial) Read() float64 { return d.e.current }

func (d positionDial) Cap() (float64, float64) { return d.e.current, d.e.duration() }

type playingKnob struct{ e *Engine }

func (k playingKnob) Read() bool { return k.e.playing }

func (k playingKnob) On() {
	if !k.e.playing {
		k.e.TogglePlay()
	}
}

func (k playingKnob) Off() {
	if k.e.playing {
		k.e.TogglePlay()
	}
}

func (k playingKnob) Toggle() { k.e.TogglePlay() }

type sampleLevels struct{ e *Engine }

func (s sampleLevels) Read() []int16 { return s.e.transport.SampleLevels(800) }
