package workflow

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/castforge/castforge/internal/tui/style"
)

// globalKeyMap holds the bindings that work on every screen. The root
// model owns their handling; phases only render the hint.
type globalKeyMap struct {
	Quit key.Binding
}

func defaultGlobalKeyMap() globalKeyMap {
	return globalKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

func renderKeyHelp(keyBinding key.Binding, suffix ...string) string {
	s := style.Help.Render("[") + style.Key.Render(keyBinding.Help().Key) +
		style.Help.Render("] ") +
		style.Help.Render(keyBinding.Help().Desc)

	s += strings.Join(suffix, "")

	return s
}

func renderGlobalKeyHelp() string {
	return renderKeyHelp(defaultGlobalKeyMap().Quit, "\n")
}

// formatTime renders seconds as M:SS, or H:MM:SS past an hour.
func formatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}

	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}

	return fmt.Sprintf("%d:%02d", m, s)
}
