package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castforge/castforge/internal/quota"
	"github.com/castforge/castforge/internal/tui/workflow"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func newTestSession() *workflow.Session {
	s := workflow.NewSession()
	s.Quota = quota.NewSessionGate(quota.DefaultPodcastLimit)

	return s
}

func TestModel_StartsOnUpload(t *testing.T) {
	t.Parallel()

	m := New(nil, newTestSession)

	assert.Contains(t, m.View(), "Add documents")
}

func TestModel_ResetRebuildsFromUpload(t *testing.T) {
	t.Parallel()

	var built int
	factory := func() *workflow.Session {
		built++

		return newTestSession()
	}

	m := New(nil, factory)
	require.Equal(t, 1, built)

	next, cmd := m.Update(workflow.ResetMsg{})
	assert.Equal(t, 2, built, "reset builds a fresh session")
	assert.NotNil(t, cmd)
	assert.Contains(t, next.View(), "Add documents")
}

func TestModel_CtrlCQuits(t *testing.T) {
	t.Parallel()

	cancelled := false
	m := New(func() { cancelled = true }, newTestSession)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, cancelled)
}
