// Package tui wires the workflow phases into the root program model.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/castforge/castforge/internal/tui/components/phases"
	"github.com/castforge/castforge/internal/tui/workflow"
)

// SessionFactory builds a fresh workflow session. The root model calls
// it once at startup and again every time the user starts a new
// podcast.
type SessionFactory func() *workflow.Session

type model struct {
	cancel     context.CancelFunc
	newSession SessionFactory
	phasesUI   tea.Model
}

// New creates the root model. cancel tears down the application
// context when the user quits.
func New(cancel context.CancelFunc, newSession SessionFactory) tea.Model {
	return model{
		cancel:     cancel,
		newSession: newSession,
		phasesUI:   buildPhases(newSession()),
	}
}

func buildPhases(session *workflow.Session) tea.Model {
	return phases.New([]phases.Phase{
		phases.NewPhase("upload", workflow.NewUploadPhase(session)),
		phases.NewPhase("configure", workflow.NewConfigurePhase(session)),
		phases.NewPhase("generating", workflow.NewGeneratingPhase(session)),
		phases.NewPhase("playing", workflow.NewPlayingPhase(session)),
	})
}

func (m model) Init() tea.Cmd {
	return m.phasesUI.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			// Give the active phase a chance to release the audio
			// device and the episode temp copy before the program
			// dies.
			m.phasesUI, _ = m.phasesUI.Update(workflow.TeardownMsg{})

			if m.cancel != nil {
				m.cancel()
			}

			return m, tea.Quit
		}

	case workflow.ResetMsg:
		// Everything podcast-scoped dies with the old session.
		m.phasesUI = buildPhases(m.newSession())

		return m, m.phasesUI.Init()
	}

	var cmd tea.Cmd
	m.phasesUI, cmd = m.phasesUI.Update(msg)

	return m, cmd
}

func (m model) View() string {
	return m.phasesUI.View()
}
