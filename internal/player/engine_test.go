package player_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castforge/castforge/internal/player"
	"github.com/castforge/castforge/internal/podcast"
)

type fakeTransport struct {
	position float64
	duration float64
	rate     float64
	volume   float64
	playing  bool

	playErr error
	seekErr error
	rateErr error
	stuck   error

	closed bool
}

func (f *fakeTransport) Play() error {
	if f.playErr != nil {
		return f.playErr
	}
	f.playing = true

	return nil
}

func (f *fakeTransport) Pause() { f.playing = false }

func (f *fakeTransport) Seek(seconds float64) error {
	if f.seekErr != nil {
		return f.seekErr
	}
	f.position = seconds

	return nil
}

func (f *fakeTransport) Position() float64 { return f.position }
func (f *fakeTransport) Duration() float64 { return f.duration }

func (f *fakeTransport) SetRate(rate float64) error {
	if f.rateErr != nil {
		return f.rateErr
	}
	f.rate = rate

	return nil
}

func (f *fakeTransport) SetVolume(volume float64) { f.volume = volume }
func (f *fakeTransport) Err() error               { return f.stuck }
func (f *fakeTransport) SampleLevels(n int) []int16 {
	return make([]int16, n)
}
func (f *fakeTransport) Close() { f.closed = true }

func testRecord() *podcast.Record {
	return &podcast.Record{
		ID:       "pod-1",
		Title:    "Test Episode",
		Duration: 300,
		Chapters: []podcast.Chapter{
			{Title: "Intro", StartTime: 0, EndTime: 100},
			{Title: "Middle", StartTime: 100, EndTime: 200},
			{Title: "Outro", StartTime: 200, EndTime: 300},
		},
	}
}

func TestEngine_TogglePlay(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{duration: 300}
	e := player.NewEngine(testRecord(), ft)

	require.False(t, e.State().IsPlaying)

	e.TogglePlay()
	assert.True(t, e.State().IsPlaying)
	assert.True(t, ft.playing)

	e.TogglePlay()
	assert.False(t, e.State().IsPlaying)
	assert.False(t, ft.playing)
}

func TestEngine_PlayErrorAbsorbed(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{duration: 300, playErr: errors.New("device busy")}
	e := player.NewEngine(testRecord(), ft)

	e.TogglePlay()

	// Errors never escalate; controls stay idle.
	assert.False(t, e.State().IsPlaying)
}

func TestEngine_SkipClamping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		start float64
		delta float64
		want  float64
	}{
		{"forward", 50, 15, 65},
		{"backward", 50, -15, 35},
		{"clamped at zero", 5, -15, 0},
		{"clamped at end", 295, 15, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ft := &fakeTransport{duration: 300}
			e := player.NewEngine(testRecord(), ft)

			require.NoError(t, ft.Seek(tt.start))
			e.Sync()

			e.Skip(tt.delta)
			assert.Equal(t, tt.want, e.State().CurrentTime)
			assert.Equal(t, tt.want, ft.position)
		})
	}
}

func TestEngine_SeekFraction(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{duration: 300}
	e := player.NewEngine(testRecord(), ft)

	e.SeekFraction(40, 80)
	assert.Equal(t, 150.0, e.State().CurrentTime)

	// Pointer past either edge clamps to the track.
	e.SeekFraction(-10, 80)
	assert.Equal(t, 0.0, e.State().CurrentTime)

	e.SeekFraction(100, 80)
	assert.Equal(t, 300.0, e.State().CurrentTime)

	// Degenerate track width is a no-op.
	e.SeekFraction(10, 0)
	assert.Equal(t, 300.0, e.State().CurrentTime)
}

func TestEngine_SetSpeed(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{duration: 300}
	e := player.NewEngine(testRecord(), ft)

	for _, s := range player.Speeds {
		require.NoError(t, e.SetSpeed(s))
		assert.Equal(t, s, e.State().Speed)
		assert.Equal(t, s, ft.rate)
	}

	err := e.SetSpeed(3.0)
	require.Error(t, err)
	assert.Equal(t, 2.0, e.State().Speed)
}

func TestEngine_SetSpeed_TransportErrorAbsorbed(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{duration: 300, rateErr: errors.New("realloc failed")}
	e := player.NewEngine(testRecord(), ft)

	// A valid speed with a failing transport reports no error but the
	// speed stays put.
	require.NoError(t, e.SetSpeed(1.5))
	assert.Equal(t, 1.0, e.State().Speed)
}

func TestEngine_CycleSpeed(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{duration: 300}
	e := player.NewEngine(testRecord(), ft)

	want := []float64{1.25, 1.5, 2, 0.75, 1}
	for _, w := range want {
		e.CycleSpeed()
		assert.Equal(t, w, e.State().Speed)
	}
}

func TestEngine_VolumeAndMute(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{duration: 300}
	e := player.NewEngine(testRecord(), ft)

	e.SetVolume(0.6)
	require.Equal(t, 0.6, e.State().Volume)
	assert.Equal(t, 0.6, ft.volume)

	// Mute silences the transport but keeps the stored volume.
	e.ToggleMute()
	assert.True(t, e.State().IsMuted)
	assert.Equal(t, 0.6, e.State().Volume)
	assert.Equal(t, 0.0, ft.volume)

	// Unmute restores exactly the prior level.
	e.ToggleMute()
	assert.False(t, e.State().IsMuted)
	assert.Equal(t, 0.6, ft.volume)

	// Volume zero implies muted.
	e.SetVolume(0)
	assert.True(t, e.State().IsMuted)

	// Setting an audible volume unmutes.
	e.SetVolume(0.3)
	assert.False(t, e.State().IsMuted)
	assert.Equal(t, 0.3, ft.volume)

	// Out-of-range values clamp.
	e.SetVolume(1.7)
	assert.Equal(t, 1.0, e.State().Volume)
	e.SetVolume(-0.2)
	assert.Equal(t, 0.0, e.State().Volume)
}

func TestEngine_SelectChapter(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{duration: 300}
	e := player.NewEngine(testRecord(), ft)

	// Selecting while paused seeks and starts playback.
	e.SelectChapter(1)
	st := e.State()
	assert.Equal(t, 100.0, st.CurrentTime)
	assert.Equal(t, 1, st.ActiveChapter)
	assert.True(t, st.IsPlaying)

	// Selecting while playing only seeks.
	e.SelectChapter(2)
	st = e.State()
	assert.Equal(t, 200.0, st.CurrentTime)
	assert.Equal(t, 2, st.ActiveChapter)
	assert.True(t, st.IsPlaying)

	// Out-of-range indices are ignored.
	e.SelectChapter(5)
	assert.Equal(t, 200.0, e.State().CurrentTime)
	e.SelectChapter(-1)
	assert.Equal(t, 200.0, e.State().CurrentTime)
}

func TestEngine_SyncTracksChapters(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{duration: 300}
	e := player.NewEngine(testRecord(), ft)
	e.TogglePlay()

	ft.position = 150
	e.Sync()
	assert.Equal(t, 1, e.State().ActiveChapter)

	// End of stream pauses and clamps.
	ft.position = 400
	e.Sync()
	st := e.State()
	assert.Equal(t, 300.0, st.CurrentTime)
	assert.False(t, st.IsPlaying)
}

func TestEngine_SyncStickyError(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{duration: 300}
	e := player.NewEngine(testRecord(), ft)
	e.TogglePlay()
	require.True(t, e.State().IsPlaying)

	ft.stuck = errors.New("decoder died")
	e.Sync()
	assert.False(t, e.State().IsPlaying)
}

func TestEngine_TranscriptSummaryExclusive(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{duration: 300}
	e := player.NewEngine(testRecord(), ft)

	e.ToggleTranscript()
	assert.True(t, e.ShowingTranscript())
	assert.False(t, e.ShowingSummary())

	e.ToggleSummary()
	assert.False(t, e.ShowingTranscript())
	assert.True(t, e.ShowingSummary())

	e.ToggleSummary()
	assert.False(t, e.ShowingSummary())
}

func TestEngine_DurationFallsBackToRecord(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{duration: 0}
	e := player.NewEngine(testRecord(), ft)

	assert.Equal(t, 300.0, e.State().Duration)
}

func TestEngine_Close(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{duration: 300}
	e := player.NewEngine(testRecord(), ft)
	e.TogglePlay()

	e.Close()
	assert.True(t, ft.closed)
	assert.False(t, e.State().IsPlaying)
}

func TestEngine_Controls(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{duration: 300}
	e := player.NewEngine(testRecord(), ft)

	knob := e.PlayingKnob()
	knob.On()
	assert.True(t, knob.Read())
	knob.Off()
	assert.False(t, knob.Read())
	knob.Toggle()
	assert.True(t, knob.Read())

	e.Skip(60)
	dial := e.PositionDial()
	assert.Equal(t, 60.0, dial.Read())
	cur, max := dial.Cap()
	assert.Equal(t, 60.0, cur)
	assert.Equal(t, 300.0, max)

	assert.Len(t, e.SampleLevels().Read(), 800)
}
