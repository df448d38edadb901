package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/castforge/castforge/internal/podcast"
	"github.com/castforge/castforge/internal/quota"
	"github.com/castforge/castforge/internal/tui/components/phases"
	"github.com/castforge/castforge/internal/tui/style"
	"github.com/castforge/castforge/internal/voices"
)

// Languages the backend can generate in.
var languages = []string{"en", "es", "fr", "de", "it", "pt", "ja"}

type configureKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Edit     key.Binding
	Preview  key.Binding
	Generate key.Binding
	Cancel   key.Binding
}

func defaultConfigureKeyMap() configureKeyMap {
	return configureKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous value"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next value"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "edit name"),
		),
		Preview: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "preview voice"),
		),
		Generate: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "generate podcast"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// Row layout: host count, one row per host, then language, mode,
// speech rate. The row indices shift as hosts are added and removed.
const rowNumHosts = 0

type submitResultMsg struct {
	jobID string
	err   error
}

// configurePhase edits the podcast settings and submits the job. Its
// model survives a round trip back from the generating screen, so a
// retry lands here with every input intact.
type configurePhase struct {
	session    *Session
	keys       configureKeyMap
	cursor     int
	editing    bool
	nameInput  textinput.Model
	submitting bool
	errMsg     string
}

// NewConfigurePhase creates the settings screen.
func NewConfigurePhase(session *Session) tea.Model {
	input := textinput.New()
	input.CharLimit = 40

	return &configurePhase{
		session:   session,
		keys:      defaultConfigureKeyMap(),
		nameInput: input,
	}
}

func (cp *configurePhase) rowCount() int {
	// host count + hosts + language + mode + speech rate
	return 1 + cp.session.Config.NumHosts + 3
}

func (cp *configurePhase) hostIndex(row int) (int, bool) {
	idx := row - 1
	if idx >= 0 && idx < cp.session.Config.NumHosts {
		return idx, true
	}

	return 0, false
}

func (cp *configurePhase) rowLanguage() int { return 1 + cp.session.Config.NumHosts }
func (cp *configurePhase) rowMode() int     { return 2 + cp.session.Config.NumHosts }
func (cp *configurePhase) rowRate() int     { return 3 + cp.session.Config.NumHosts }

func (cp *configurePhase) Init() tea.Cmd {
	// Content may have changed since the screen was last shown.
	cp.session.RefreshEstimate()
	cp.submitting = false

	return nil
}

func (cp *configurePhase) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMsg := teaMsg.(type) {
	case tea.KeyMsg:
		if cp.submitting {
			return cp, nil
		}

		if cp.editing {
			return cp.updateEditing(typedMsg)
		}

		return cp.updateBrowsing(typedMsg)

	case submitResultMsg:
		cp.submitting = false
		if typedMsg.err != nil {
			cp.errMsg = typedMsg.err.Error()

			return cp, nil
		}

		cp.session.JobID = typedMsg.jobID
		cp.session.Previewer.Stop()

		return cp, phases.NextPhaseCmd
	}

	return cp, nil
}

func (cp *configurePhase) updateEditing(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(keyMsg, cp.keys.Cancel):
		cp.editing = false
		cp.nameInput.Blur()

		return cp, nil

	case key.Matches(keyMsg, cp.keys.Edit):
		name := strings.TrimSpace(cp.nameInput.Value())
		cp.editing = false
		cp.nameInput.Blur()

		if idx, ok := cp.hostIndex(cp.cursor); ok && name != "" {
			_ = cp.session.Config.UpdateHost(idx, podcast.HostChange{Name: &name})
		}

		return cp, nil
	}

	var cmd tea.Cmd
	cp.nameInput, cmd = cp.nameInput.Update(keyMsg)

	return cp, cmd
}

//nolint:cyclop // key dispatch
func (cp *configurePhase) updateBrowsing(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(keyMsg, cp.keys.Up):
		if cp.cursor > 0 {
			cp.cursor--
		}

	case key.Matches(keyMsg, cp.keys.Down):
		if cp.cursor < cp.rowCount()-1 {
			cp.cursor++
		}

	case key.Matches(keyMsg, cp.keys.Left):
		cp.adjust(-1)

	case key.Matches(keyMsg, cp.keys.Right):
		cp.adjust(1)

	case key.Matches(keyMsg, cp.keys.Edit):
		if idx, ok := cp.hostIndex(cp.cursor); ok {
			cp.editing = true
			cp.nameInput.SetValue(cp.session.Config.Hosts[idx].Name)

			return cp, cp.nameInput.Focus()
		}

	case key.Matches(keyMsg, cp.keys.Preview):
		if idx, ok := cp.hostIndex(cp.cursor); ok {
			voiceID := cp.session.Config.Hosts[idx].VoiceID

			return cp, func() tea.Msg {
				cp.session.Previewer.Toggle(context.Background(), voiceID)

				return nil
			}
		}

	case key.Matches(keyMsg, cp.keys.Generate):
		return cp, cp.startGeneration()
	}

	return cp, nil
}

// adjust changes the value under the cursor by one step in either
// direction.
func (cp *configurePhase) adjust(dir int) {
	cfg := &cp.session.Config

	switch {
	case cp.cursor == rowNumHosts:
		_ = cfg.SetNumHosts(cfg.NumHosts+dir, voices.DefaultHost)
		if cp.cursor >= cp.rowCount() {
			cp.cursor = cp.rowCount() - 1
		}

	case cp.cursor == cp.rowLanguage():
		cfg.Language = cycle(languages, cfg.Language, dir)

	case cp.cursor == cp.rowMode():
		cfg.Mode = cycle(podcast.Modes, cfg.Mode, dir)

	case cp.cursor == cp.rowRate():
		_ = cfg.SetSpeechRate(cycle(podcast.SpeechRates, cfg.SpeechRate, dir))

	default:
		if idx, ok := cp.hostIndex(cp.cursor); ok {
			ids := voiceIDs()
			next := cycle(ids, cfg.Hosts[idx].VoiceID, dir)
			_ = cfg.UpdateHost(idx, podcast.HostChange{VoiceID: &next})
		}
	}
}

// startGeneration runs the pre-submission checks and fires the submit
// command. A second press while a submission is in flight is a no-op.
func (cp *configurePhase) startGeneration() tea.Cmd {
	if cp.submitting {
		return nil
	}

	if !cp.session.Quota.HasQuota(quota.FeaturePodcast) {
		cp.errMsg = "generation limit reached for this session"

		return nil
	}

	if err := cp.session.Config.Validate(); err != nil {
		cp.errMsg = err.Error()

		return nil
	}

	cp.submitting = true
	cp.errMsg = ""

	return cp.submitCmd()
}

func (cp *configurePhase) submitCmd() tea.Cmd {
	req := cp.session.Backend.NewGenerationRequest(cp.session.Config, cp.session.Content())

	return func() tea.Msg {
		jobID, err := cp.session.Backend.SubmitGeneration(context.Background(), req)

		return submitResultMsg{jobID: jobID, err: err}
	}
}

func (cp *configurePhase) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Configure your podcast"))
	sb.WriteString("\n\n")

	cfg := cp.session.Config

	sb.WriteString(cp.renderRow(rowNumHosts,
		"Hosts", fmt.Sprintf("%d", cfg.NumHosts)))

	for i, host := range cfg.Hosts {
		voice := voices.Lookup(host.VoiceID)
		value := fmt.Sprintf("%s  %s %s",
			host.Name,
			lipgloss.NewStyle().Foreground(lipgloss.Color(voice.Color)).Render(voice.Glyph),
			host.VoiceID)

		if cp.session.Previewer.Playing() == host.VoiceID {
			value += style.Success.Render(" ♪")
		}

		row := 1 + i
		if cp.editing && cp.cursor == row {
			value = cp.nameInput.View()
		}

		sb.WriteString(cp.renderRow(row, fmt.Sprintf("Host %d", i+1), value))
	}

	sb.WriteString(cp.renderRow(cp.rowLanguage(), "Language", cfg.Language))
	sb.WriteString(cp.renderRow(cp.rowMode(), "Mode", string(cfg.Mode)))
	sb.WriteString(cp.renderRow(cp.rowRate(), "Speech rate", fmt.Sprintf("%.1fx", cfg.SpeechRate)))

	sb.WriteString("\n")
	sb.WriteString(style.Label.Render("Estimated duration: "))
	sb.WriteString(style.Subtitle.Render(fmt.Sprintf("~%d min", cfg.TargetDuration)))
	sb.WriteString("\n\n")

	if cp.submitting {
		sb.WriteString(style.Warning.Render("Submitting..."))
		sb.WriteString("\n")
	}

	if cp.errMsg != "" {
		sb.WriteString(style.Error.Render(cp.errMsg))
		sb.WriteString("\n")
	}

	sb.WriteString(renderKeyHelp(cp.keys.Left, " "))
	sb.WriteString(renderKeyHelp(cp.keys.Right, " "))
	sb.WriteString(renderKeyHelp(cp.keys.Preview, " "))
	sb.WriteString(renderKeyHelp(cp.keys.Generate, "\n"))
	sb.WriteString(renderGlobalKeyHelp())

	return sb.String()
}

func (cp *configurePhase) renderRow(row int, label, value string) string {
	marker := "  "
	labelStyle := style.Label
	if row == cp.cursor {
		marker = style.Bullet.Render("▸ ")
		labelStyle = style.Selected
	}

	return fmt.Sprintf("%s%s %s\n", marker, labelStyle.Render(label+":"), value)
}

// cycle returns the element dir steps away from current, wrapping at
// either end. Unknown values start from the first element.
func cycle[T comparable](values []T, current T, dir int) T {
	for i, v := range values {
		if v == current {
			return values[((i+dir)%len(values)+len(values))%len(values)]
		}
	}

	return values[0]
}

func voiceIDs() []string {
	all := voices.All()
	ids := make([]string, len(all))
	for i, v := range all {
		ids[i] = v.ID
	}

	return ids
}
