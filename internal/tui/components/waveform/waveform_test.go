package waveform_test

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castforge/castforge/internal/tui/components/waveform"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// mockLevels implements uictl.Levels[int16] for testing.
type mockLevels struct {
	samples []int16
}

func (m *mockLevels) Read() []int16 {
	return m.samples
}

func TestWaveform_EmptyView(t *testing.T) {
	t.Parallel()

	mock := &mockLevels{samples: nil}
	m := waveform.New(mock, 5, 1)

	assert.Contains(t, m.View(), "▁▁▁▁▁")
}

func TestWaveform_NilLevels(t *testing.T) {
	t.Parallel()

	m := waveform.New(nil, 5, 1)

	assert.Contains(t, m.View(), "▁▁▁▁▁")
}

func TestWaveform_SilentAudio(t *testing.T) {
	t.Parallel()

	mock := &mockLevels{samples: []int16{0, 0, 0, 0, 0}}
	m := waveform.New(mock, 5, 1)

	// Silent audio shows spaces (level 0)
	assert.Contains(t, m.View(), "     ")
}

func TestWaveform_MaxAmplitude(t *testing.T) {
	t.Parallel()

	mock := &mockLevels{samples: []int16{32767, 32767, 32767, 32767, 32767}}
	m := waveform.New(mock, 5, 1)

	assert.Contains(t, m.View(), "█████")
}

func TestWaveform_NegativeAmplitude(t *testing.T) {
	t.Parallel()

	// Negative samples should show as positive amplitude (absolute value)
	mock := &mockLevels{samples: []int16{-32768, -32768, -32768}}
	m := waveform.New(mock, 3, 1)

	assert.Contains(t, m.View(), "███")
}

func TestWaveform_VaryingAmplitude(t *testing.T) {
	t.Parallel()

	mock := &mockLevels{samples: []int16{0, 8000, 32767, 8000, 0}}
	m := waveform.New(mock, 5, 1)

	runes := []rune(m.View())
	require.GreaterOrEqual(t, len(runes), 5)
	assert.NotEqual(t, runes[0], runes[2], "middle should be different from edges")
}

func TestWaveform_AggregatesSamples(t *testing.T) {
	t.Parallel()

	samples := make([]int16, 100)
	for i := range samples {
		samples[i] = 20000
	}

	mock := &mockLevels{samples: samples}
	m := waveform.New(mock, 10, 1)

	require.GreaterOrEqual(t, len([]rune(m.View())), 10)
}

func TestWaveform_MultiRow(t *testing.T) {
	t.Parallel()

	mock := &mockLevels{samples: []int16{32767, 16000, 8000, 4000, 0}}
	m := waveform.New(mock, 5, 3)

	lines := strings.Split(m.View(), "\n")
	assert.Equal(t, 3, len(lines), "should have 3 rows")
}

func TestWaveform_HeightZeroDefaultsToOne(t *testing.T) {
	t.Parallel()

	mock := &mockLevels{samples: []int16{32767}}
	m := waveform.New(mock, 5, 0)

	view := m.View()
	assert.NotEmpty(t, view)
	assert.NotContains(t, view, "\n")
}

func TestWaveform_SetWidth(t *testing.T) {
	t.Parallel()

	mock := &mockLevels{samples: []int16{32767, 32767}}
	m := waveform.New(mock, 3, 1)
	m.SetWidth(6)

	assert.Contains(t, m.View(), "██████")
}

func TestWaveform_TickCommands(t *testing.T) {
	t.Parallel()

	mock := &mockLevels{samples: []int16{1000}}
	m := waveform.New(mock, 5, 1)

	require.NotNil(t, m.Init())

	_, cmd := m.Update(waveform.TickMsg{})
	assert.NotNil(t, cmd)
}
