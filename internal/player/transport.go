package player

// Transport is the single audio pipeline behind an Engine: something
// that can play one loaded stream, report its clock, and be retuned.
// Exactly one transport exists per engine; replacing the episode
// replaces the transport wholesale.
type Transport interface {
	// Play starts or resumes output.
	Play() error
	// Pause halts output without losing position.
	Pause()
	// Seek jumps to an absolute position in seconds.
	Seek(seconds float64) error
	// Position is the current position in seconds.
	Position() float64
	// Duration is the total length in seconds, 0 if unknown.
	Duration() float64
	// SetRate changes the playback rate multiplier.
	SetRate(rate float64) error
	// SetVolume sets the output gain in [0, 1].
	SetVolume(volume float64)
	// Err returns the sticky load/decode error, nil while healthy.
	Err() error
	// SampleLevels returns recent output samples for visualization.
	SampleLevels(n int) []int16
	// Close stops output and releases the underlying resources.
	Close()
}
