package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/castforge/castforge/internal/player"
	"github.com/castforge/castforge/internal/tui/components/waveform"
	"github.com/castforge/castforge/internal/tui/style"
)

const (
	syncInterval  = 250 * time.Millisecond
	progressWidth = 40
	waveWidth     = 40
	waveHeight    = 2
	skipSeconds   = 15
)

type playingKeyMap struct {
	Toggle     key.Binding
	Back       key.Binding
	Forward    key.Binding
	Up         key.Binding
	Down       key.Binding
	Select     key.Binding
	Speed      key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Mute       key.Binding
	Transcript key.Binding
	Summary    key.Binding
	Download   key.Binding
	New        key.Binding
	Retry      key.Binding
}

func defaultPlayingKeyMap() playingKeyMap {
	return playingKeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		Back: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "back 15s"),
		),
		Forward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "forward 15s"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "previous chapter"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "next chapter"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "play chapter"),
		),
		Speed: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "speed"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "volume up"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "volume down"),
		),
		Mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		Transcript: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "transcript"),
		),
		Summary: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "summary"),
		),
		Download: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "download"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new podcast"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
	}
}

type (
	engineReadyMsg struct {
		loadSeq   int
		transport player.Transport
		err       error
	}
	syncTickMsg     struct{}
	downloadDoneMsg struct {
		path string
		err  error
	}
)

// playingPhase is the player screen for a finished episode.
type playingPhase struct {
	session *Session
	keys    playingKeyMap

	engine   *player.Engine
	wave     waveform.Model
	progress progress.Model

	loadSeq       int
	loading       bool
	loadErr       string
	chapterCursor int

	downloading  bool
	downloadPath string
	downloadErr  string
}

// NewPlayingPhase creates the playback screen.
func NewPlayingPhase(session *Session) tea.Model {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(progressWidth),
		progress.WithoutPercentage(),
	)

	return &playingPhase{
		session:  session,
		keys:     defaultPlayingKeyMap(),
		progress: p,
	}
}

func (pp *playingPhase) Init() tea.Cmd {
	if pp.engine != nil {
		return nil
	}

	return pp.loadCmd()
}

func (pp *playingPhase) loadCmd() tea.Cmd {
	pp.loadSeq++
	pp.loading = true
	pp.loadErr = ""

	seq := pp.loadSeq
	url := pp.session.Backend.AudioURL(pp.session.Record)
	factory := pp.session.NewTransport

	return func() tea.Msg {
		transport, err := factory(context.Background(), url)

		return engineReadyMsg{loadSeq: seq, transport: transport, err: err}
	}
}

//nolint:cyclop // message dispatch
func (pp *playingPhase) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMsg := teaMsg.(type) {
	case engineReadyMsg:
		if typedMsg.loadSeq != pp.loadSeq {
			if typedMsg.transport != nil {
				typedMsg.transport.Close()
			}

			return pp, nil
		}

		pp.loading = false
		if typedMsg.err != nil {
			pp.loadErr = typedMsg.err.Error()

			return pp, nil
		}

		pp.engine = player.NewEngine(pp.session.Record, typedMsg.transport)
		pp.wave = waveform.New(pp.engine.SampleLevels(), waveWidth, waveHeight)

		return pp, tea.Batch(pp.wave.Init(), pp.syncTick())

	case syncTickMsg:
		if pp.engine == nil {
			return pp, nil
		}
		pp.engine.Sync()

		return pp, pp.syncTick()

	case waveform.TickMsg:
		var cmd tea.Cmd
		pp.wave, cmd = pp.wave.Update(typedMsg)

		return pp, cmd

	case downloadDoneMsg:
		pp.downloading = false
		if typedMsg.err != nil {
			pp.downloadErr = typedMsg.err.Error()
		} else {
			pp.downloadPath = typedMsg.path
		}

		return pp, nil

	case TeardownMsg:
		if pp.engine != nil {
			pp.engine.Close()
			pp.engine = nil
		}

		return pp, nil

	case tea.KeyMsg:
		return pp.updateKeys(typedMsg)
	}

	return pp, nil
}

//nolint:cyclop,funlen // key dispatch
func (pp *playingPhase) updateKeys(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if pp.engine == nil {
		if key.Matches(keyMsg, pp.keys.Retry) && pp.loadErr != "" {
			return pp, pp.loadCmd()
		}

		return pp, nil
	}

	switch {
	case key.Matches(keyMsg, pp.keys.Toggle):
		pp.engine.TogglePlay()

	case key.Matches(keyMsg, pp.keys.Back):
		pp.engine.Skip(-skipSeconds)

	case key.Matches(keyMsg, pp.keys.Forward):
		pp.engine.Skip(skipSeconds)

	case key.Matches(keyMsg, pp.keys.Up):
		if pp.chapterCursor > 0 {
			pp.chapterCursor--
		}

	case key.Matches(keyMsg, pp.keys.Down):
		if pp.chapterCursor < len(pp.session.Record.Chapters)-1 {
			pp.chapterCursor++
		}

	case key.Matches(keyMsg, pp.keys.Select):
		pp.engine.SelectChapter(pp.chapterCursor)

	case key.Matches(keyMsg, pp.keys.Speed):
		pp.engine.CycleSpeed()

	case key.Matches(keyMsg, pp.keys.VolumeUp):
		pp.engine.SetVolume(pp.engine.State().Volume + 0.1)

	case key.Matches(keyMsg, pp.keys.VolumeDown):
		pp.engine.SetVolume(pp.engine.State().Volume - 0.1)

	case key.Matches(keyMsg, pp.keys.Mute):
		pp.engine.ToggleMute()

	case key.Matches(keyMsg, pp.keys.Transcript):
		pp.engine.ToggleTranscript()

	case key.Matches(keyMsg, pp.keys.Summary):
		pp.engine.ToggleSummary()

	case key.Matches(keyMsg, pp.keys.Download):
		return pp, pp.downloadCmd()

	case key.Matches(keyMsg, pp.keys.New):
		pp.engine.Close()
		pp.engine = nil

		return pp, func() tea.Msg { return ResetMsg{} }
	}

	return pp, nil
}

func (pp *playingPhase) downloadCmd() tea.Cmd {
	if pp.downloading {
		return nil
	}

	pp.downloading = true
	pp.downloadErr = ""

	url := pp.session.Backend.AudioURL(pp.session.Record)
	title := pp.session.Record.Title
	download := pp.session.Download

	return func() tea.Msg {
		path, err := download(context.Background(), url, title)

		return downloadDoneMsg{path: path, err: err}
	}
}

func (pp *playingPhase) syncTick() tea.Cmd {
	return tea.Tick(syncInterval, func(_ time.Time) tea.Msg {
		return syncTickMsg{}
	})
}

//nolint:funlen // rendering
func (pp *playingPhase) View() string {
	if pp.loading {
		return style.Subtitle.Render("Loading episode audio...")
	}

	if pp.loadErr != "" {
		var sb strings.Builder
		sb.WriteString(style.Error.Render("✗ Could not load the episode"))
		sb.WriteString("\n\n")
		sb.WriteString(style.Subtitle.Render(pp.loadErr))
		sb.WriteString("\n\n")
		sb.WriteString(renderKeyHelp(pp.keys.Retry, "\n"))
		sb.WriteString(renderGlobalKeyHelp())

		return sb.String()
	}

	rec := pp.session.Record
	st := pp.engine.State()

	var sb strings.Builder

	sb.WriteString(style.Title.Render(rec.Title))
	sb.WriteString("\n\n")

	sb.WriteString(pp.wave.View())
	sb.WriteString("\n")

	percent := float64(0)
	if st.Duration > 0 {
		percent = st.CurrentTime / st.Duration
	}
	sb.WriteString(pp.progress.ViewAs(percent))
	sb.WriteString("\n")

	playState := "▶ playing"
	if !st.IsPlaying {
		playState = "⏸ paused"
	}

	volume := fmt.Sprintf("vol %d%%", int(st.Volume*100))
	if st.IsMuted {
		volume = "muted"
	}

	sb.WriteString(style.Subtitle.Render(fmt.Sprintf("%s / %s  %s  %.2gx  %s",
		formatTime(st.CurrentTime), formatTime(st.Duration), playState, st.Speed, volume)))
	sb.WriteString("\n\n")

	sb.WriteString(pp.renderChapters(st.ActiveChapter))

	switch {
	case pp.engine.ShowingTranscript():
		sb.WriteString("\n")
		sb.WriteString(pp.renderTranscript())
	case pp.engine.ShowingSummary():
		sb.WriteString("\n")
		sb.WriteString(style.Viewport.Render(rec.Summary))
		sb.WriteString("\n")
	}

	if pp.downloading {
		sb.WriteString("\n")
		sb.WriteString(style.Warning.Render("Downloading..."))
		sb.WriteString("\n")
	}
	if pp.downloadPath != "" {
		sb.WriteString("\n")
		sb.WriteString(style.Success.Render("Saved: "))
		sb.WriteString(style.Muted.Render(pp.downloadPath))
		sb.WriteString("\n")
	}
	if pp.downloadErr != "" {
		sb.WriteString("\n")
		sb.WriteString(style.Error.Render(pp.downloadErr))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(renderKeyHelp(pp.keys.Toggle, " "))
	sb.WriteString(renderKeyHelp(pp.keys.Speed, " "))
	sb.WriteString(renderKeyHelp(pp.keys.Mute, " "))
	sb.WriteString(renderKeyHelp(pp.keys.Transcript, " "))
	sb.WriteString(renderKeyHelp(pp.keys.Summary, "\n"))
	sb.WriteString(renderKeyHelp(pp.keys.Download, " "))
	sb.WriteString(renderKeyHelp(pp.keys.New, "\n"))
	sb.WriteString(renderGlobalKeyHelp())

	return sb.String()
}

func (pp *playingPhase) renderChapters(active int) string {
	rec := pp.session.Record
	if len(rec.Chapters) == 0 {
		return ""
	}

	var sb strings.Builder

	for i, ch := range rec.Chapters {
		marker := "  "
		titleStyle := style.Label
		if i == pp.chapterCursor {
			marker = style.Bullet.Render("▸ ")
			titleStyle = style.Selected
		}

		sb.WriteString(marker)
		if i == active {
			sb.WriteString(style.Chapter.Render("● "))
		} else {
			sb.WriteString(style.Muted.Render("○ "))
		}
		sb.WriteString(titleStyle.Render(ch.Title))
		sb.WriteString(" ")
		sb.WriteString(style.Muted.Render(formatTime(ch.StartTime)))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (pp *playingPhase) renderTranscript() string {
	rec := pp.session.Record

	var sb strings.Builder
	for _, d := range rec.Dialogues {
		sb.WriteString(style.Label.Render(d.HostName + ": "))
		sb.WriteString(d.Text)
		sb.WriteString("\n")
	}

	return style.Viewport.Render(strings.TrimRight(sb.String(), "\n")) + "\n"
}
