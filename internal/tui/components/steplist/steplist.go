// Package steplist renders a checklist of pipeline steps during a long
// wait. The list is purely presentational: callers advance it on their
// own schedule and it never decides when the wait is over.
package steplist

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/castforge/castforge/internal/tui/style"
)

// Model shows earlier steps as done, the current one as in progress,
// and later ones as pending. Advance stops at the final step; only
// CompleteAll marks everything done.
type Model struct {
	steps   []string
	curr    int
	done    bool
	spinner spinner.Model
}

// New creates a step list starting at the first step.
func New(steps []string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	return Model{
		steps:   steps,
		spinner: sp,
	}
}

// Init returns the spinner tick command.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update animates the in-progress marker.
func (m Model) Update(teaMsg tea.Msg) (Model, tea.Cmd) {
	if tickMsg, ok := teaMsg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(tickMsg)

		return m, cmd
	}

	return m, nil
}

// Advance moves to the next step. The final step stays in progress no
// matter how many times this is called.
func (m *Model) Advance() {
	if m.curr < len(m.steps)-1 {
		m.curr++
	}
}

// CompleteAll marks every step done.
func (m *Model) CompleteAll() {
	m.curr = len(m.steps) - 1
	m.done = true
}

// Reset returns to the first step.
func (m *Model) Reset() {
	m.curr = 0
	m.done = false
}

// Current returns the index of the in-progress step.
func (m Model) Current() int {
	return m.curr
}

// View renders one line per step.
func (m Model) View() string {
	var sb strings.Builder

	for i, step := range m.steps {
		if i > 0 {
			sb.WriteString("\n")
		}

		switch {
		case i < m.curr || m.done:
			sb.WriteString(style.Success.Render("✓ " + step))
		case i == m.curr:
			sb.WriteString(m.spinner.View())
			sb.WriteString(" ")
			sb.WriteString(style.Label.Render(step))
		default:
			sb.WriteString(style.Muted.Render("· " + step))
		}
	}

	return sb.String()
}
