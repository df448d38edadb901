package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/castforge/castforge/internal/source"
	"github.com/castforge/castforge/internal/tui/components/labeledspinner"
	"github.com/castforge/castforge/internal/tui/components/phases"
	"github.com/castforge/castforge/internal/tui/style"
)

type uploadKeyMap struct {
	Add     key.Binding
	Remove  key.Binding
	Up      key.Binding
	Down    key.Binding
	Proceed key.Binding
	Cancel  key.Binding
}

func defaultUploadKeyMap() uploadKeyMap {
	return uploadKeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add document"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x", "backspace"),
			key.WithHelp("x", "remove selected"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Proceed: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "extract and continue"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel input"),
		),
	}
}

type extractDoneMsg struct {
	files []source.SourceFile
	err   error
}

// uploadPhase collects up to three source documents and extracts their
// text through the backend parser.
type uploadPhase struct {
	session    *Session
	keys       uploadKeyMap
	input      textinput.Model
	spinner    labeledspinner.Model
	cursor     int
	typing     bool
	extracting bool
	errMsg     string
}

// NewUploadPhase creates the document upload screen.
func NewUploadPhase(session *Session) tea.Model {
	input := textinput.New()
	input.Placeholder = "path/to/document.pdf"
	input.CharLimit = 512

	return &uploadPhase{
		session: session,
		keys:    defaultUploadKeyMap(),
		input:   input,
		spinner: labeledspinner.New(
			spinner.Dot,
			"Extracting text...",
			"Parsing your documents",
			"This may take a moment",
		),
	}
}

func (up *uploadPhase) Init() tea.Cmd {
	return textinput.Blink
}

func (up *uploadPhase) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMsg := teaMsg.(type) {
	case tea.KeyMsg:
		if up.extracting {
			return up, nil
		}

		if up.typing {
			return up.updateTyping(typedMsg)
		}

		return up.updateBrowsing(typedMsg)

	case extractDoneMsg:
		up.extracting = false
		if typedMsg.err != nil {
			up.errMsg = typedMsg.err.Error()

			return up, nil
		}

		up.session.SourceFiles = typedMsg.files
		up.session.RefreshEstimate()

		return up, phases.NextPhaseCmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		up.spinner, cmd = up.spinner.Update(typedMsg)

		return up, cmd
	}

	if up.typing {
		var cmd tea.Cmd
		up.input, cmd = up.input.Update(teaMsg)

		return up, cmd
	}

	return up, nil
}

func (up *uploadPhase) updateTyping(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(keyMsg, up.keys.Cancel):
		up.typing = false
		up.input.Blur()
		up.input.Reset()

		return up, nil

	case key.Matches(keyMsg, up.keys.Proceed):
		path := strings.TrimSpace(up.input.Value())
		up.typing = false
		up.input.Blur()
		up.input.Reset()

		if path == "" {
			return up, nil
		}

		up.errMsg = ""
		if err := up.session.Collector.AddPaths(path); err != nil {
			up.errMsg = err.Error()
		}

		return up, nil
	}

	var cmd tea.Cmd
	up.input, cmd = up.input.Update(keyMsg)

	return up, cmd
}

func (up *uploadPhase) updateBrowsing(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(keyMsg, up.keys.Add):
		up.typing = true
		up.errMsg = ""

		return up, up.input.Focus()

	case key.Matches(keyMsg, up.keys.Up):
		if up.cursor > 0 {
			up.cursor--
		}

		return up, nil

	case key.Matches(keyMsg, up.keys.Down):
		if up.cursor < up.session.Collector.Len()-1 {
			up.cursor++
		}

		return up, nil

	case key.Matches(keyMsg, up.keys.Remove):
		up.session.Collector.RemoveFile(up.cursor)
		if up.cursor >= up.session.Collector.Len() && up.cursor > 0 {
			up.cursor--
		}

		return up, nil

	case key.Matches(keyMsg, up.keys.Proceed):
		if up.session.Collector.Len() == 0 {
			up.errMsg = "add at least one document first"

			return up, nil
		}

		up.extracting = true
		up.errMsg = ""

		return up, tea.Sequence(up.spinner.Init(), up.extractCmd())
	}

	return up, nil
}

func (up *uploadPhase) extractCmd() tea.Cmd {
	return func() tea.Msg {
		files, err := up.session.Collector.Extract(context.Background(), up.session.Parser)

		return extractDoneMsg{files: files, err: err}
	}
}

func (up *uploadPhase) View() string {
	if up.extracting {
		return up.spinner.View()
	}

	var sb strings.Builder

	sb.WriteString(style.Title.Render("Add documents"))
	sb.WriteString("\n")
	sb.WriteString(style.Subtitle.Render(
		fmt.Sprintf("Up to %d documents, %d MB each", source.MaxFiles, source.MaxFileSize/(1024*1024))))
	sb.WriteString("\n\n")

	files := up.session.Collector.Files()
	if len(files) == 0 {
		sb.WriteString(style.Muted.Render("No documents yet."))
		sb.WriteString("\n")
	}

	for i, f := range files {
		marker := "  "
		nameStyle := style.Label
		if i == up.cursor && !up.typing {
			marker = style.Bullet.Render("▸ ")
			nameStyle = style.Selected
		}

		sb.WriteString(marker)
		sb.WriteString(nameStyle.Render(f.Name))
		sb.WriteString(" ")
		sb.WriteString(style.Muted.Render(fmt.Sprintf("(%.1f MB)", float64(f.Size)/(1024*1024))))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")

	if up.typing {
		sb.WriteString(up.input.View())
		sb.WriteString("\n\n")
		sb.WriteString(renderKeyHelp(up.keys.Proceed, " "))
		sb.WriteString(renderKeyHelp(up.keys.Cancel, "\n"))
	} else {
		sb.WriteString(renderKeyHelp(up.keys.Add, " "))
		sb.WriteString(renderKeyHelp(up.keys.Remove, " "))
		sb.WriteString(renderKeyHelp(up.keys.Proceed, "\n"))
	}

	if up.errMsg != "" {
		sb.WriteString("\n")
		sb.WriteString(style.Error.Render(up.errMsg))
		sb.WriteString("\n")
	}

	sb.WriteString(renderGlobalKeyHelp())

	return sb.String()
}
