package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/castforge/castforge/internal/podcast"
	"github.com/castforge/castforge/internal/quota"
	"github.com/castforge/castforge/internal/tui/components/phases"
	"github.com/castforge/castforge/internal/tui/components/steplist"
	"github.com/castforge/castforge/internal/tui/components/tidbits"
	"github.com/castforge/castforge/internal/tui/style"
)

// stepInterval paces the cosmetic pipeline checklist. The checklist
// never finishes a job; only a completed poll result does.
const stepInterval = 8 * time.Second

var generationSteps = []string{
	"Analyzing documents",
	"Outlining the conversation",
	"Writing the script",
	"Synthesizing host voices",
	"Mixing the episode",
}

type generatingKeyMap struct {
	Retry key.Binding
}

func defaultGeneratingKeyMap() generatingKeyMap {
	return generatingKeyMap{
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
	}
}

// Every timer message carries the attempt that scheduled it. A retry
// bumps the attempt, so ticks from an abandoned run are discarded
// instead of mutating the new one.
type (
	pollTickMsg   struct{ attempt int }
	pollResultMsg struct {
		attempt int
		job     podcast.Job
		err     error
	}
	stepTickMsg   struct{ attempt int }
	tidbitTickMsg struct{ attempt int }
	deadlineMsg   struct{ attempt int }
	fetchDoneMsg  struct {
		attempt int
		rec     *podcast.Record
		err     error
	}
)

// generatingPhase owns the wait for a submitted job. The status poller
// is the only authority over leaving this screen; the checklist and
// tidbit timers are decoration.
type generatingPhase struct {
	session *Session
	keys    generatingKeyMap
	spinner spinner.Model
	steps   steplist.Model
	tidbit  tidbits.Rotator

	attempt    int
	started    time.Time
	inFlight   bool
	fetching   bool
	done       bool
	failed     bool
	timedOut   bool
	fetchRetry bool
	errMsg     string
}

// NewGeneratingPhase creates the generation waiting screen.
func NewGeneratingPhase(session *Session) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Pulse

	return &generatingPhase{
		session: session,
		keys:    defaultGeneratingKeyMap(),
		spinner: sp,
		steps:   steplist.New(generationSteps),
		tidbit:  tidbits.New(nil),
	}
}

// Init starts a fresh polling run. Re-entering after a retry resets
// everything under a new attempt number.
func (gp *generatingPhase) Init() tea.Cmd {
	gp.attempt++
	gp.started = time.Now()
	gp.inFlight = false
	gp.fetching = false
	gp.done = false
	gp.failed = false
	gp.timedOut = false
	gp.fetchRetry = false
	gp.errMsg = ""
	gp.steps.Reset()
	gp.tidbit.Reset()

	attempt := gp.attempt

	return tea.Batch(
		gp.spinner.Tick,
		gp.steps.Init(),
		gp.pollCmd(attempt), // first poll fires immediately
		gp.tickAfter(gp.session.PollInterval, pollTickMsg{attempt: attempt}),
		gp.tickAfter(stepInterval, stepTickMsg{attempt: attempt}),
		gp.tickAfter(gp.session.TidbitInterval, tidbitTickMsg{attempt: attempt}),
		gp.tickAfter(gp.session.PollDeadline, deadlineMsg{attempt: attempt}),
	)
}

//nolint:cyclop // message dispatch
func (gp *generatingPhase) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMsg := teaMsg.(type) {
	case tea.KeyMsg:
		return gp.updateKeys(typedMsg)

	case pollTickMsg:
		if typedMsg.attempt != gp.attempt || gp.settled() {
			return gp, nil
		}

		cmds := []tea.Cmd{gp.tickAfter(gp.session.PollInterval, pollTickMsg{attempt: gp.attempt})}
		// Never stack polls behind a slow response.
		if !gp.inFlight {
			gp.inFlight = true
			cmds = append(cmds, gp.pollCmd(gp.attempt))
		}

		return gp, tea.Batch(cmds...)

	case pollResultMsg:
		if typedMsg.attempt != gp.attempt || gp.settled() {
			return gp, nil
		}
		gp.inFlight = false

		return gp.applyPoll(typedMsg)

	case fetchDoneMsg:
		if typedMsg.attempt != gp.attempt || gp.done {
			return gp, nil
		}

		return gp.applyFetch(typedMsg)

	case deadlineMsg:
		if typedMsg.attempt != gp.attempt || gp.settled() {
			return gp, nil
		}
		gp.timedOut = true
		gp.errMsg = fmt.Sprintf("generation did not finish within %s", gp.session.PollDeadline)

		return gp, nil

	case stepTickMsg:
		if typedMsg.attempt != gp.attempt || gp.settled() {
			return gp, nil
		}
		gp.steps.Advance()

		return gp, gp.tickAfter(stepInterval, stepTickMsg{attempt: gp.attempt})

	case tidbitTickMsg:
		if typedMsg.attempt != gp.attempt || gp.settled() {
			return gp, nil
		}
		gp.tidbit.Next()

		return gp, gp.tickAfter(gp.session.TidbitInterval, tidbitTickMsg{attempt: gp.attempt})

	case spinner.TickMsg:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		gp.spinner, cmd = gp.spinner.Update(typedMsg)
		cmds = append(cmds, cmd)
		gp.steps, cmd = gp.steps.Update(typedMsg)
		cmds = append(cmds, cmd)

		return gp, tea.Batch(cmds...)
	}

	return gp, nil
}

func (gp *generatingPhase) updateKeys(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(keyMsg, gp.keys.Retry) {
		return gp, nil
	}

	switch {
	case gp.fetchRetry:
		// The job finished; only the record fetch failed. Retry just
		// the fetch instead of burning another generation.
		gp.fetchRetry = false
		gp.fetching = true
		gp.errMsg = ""

		return gp, gp.fetchCmd(gp.attempt)

	case gp.failed || gp.timedOut:
		// Back to the settings screen with every input preserved.
		return gp, phases.PrevPhaseCmd
	}

	return gp, nil
}

// applyPoll folds one status response into the phase. Transport errors
// are transient: log and let the next tick try again.
func (gp *generatingPhase) applyPoll(res pollResultMsg) (tea.Model, tea.Cmd) {
	if res.err != nil {
		slog.Debug("status poll failed", "podcastId", gp.session.JobID, "error", res.err)

		return gp, nil
	}

	switch {
	case res.job.Status.Failed():
		gp.failed = true
		gp.errMsg = res.job.ErrorMessage
		if gp.errMsg == "" {
			gp.errMsg = "generation failed"
		}

		return gp, nil

	case res.job.Status == podcast.StatusCompleted:
		gp.steps.CompleteAll()
		gp.fetching = true

		return gp, gp.fetchCmd(gp.attempt)
	}

	return gp, nil
}

func (gp *generatingPhase) applyFetch(res fetchDoneMsg) (tea.Model, tea.Cmd) {
	gp.fetching = false

	if res.err != nil {
		gp.fetchRetry = true
		gp.errMsg = fmt.Sprintf("the episode is ready but could not be loaded: %v", res.err)

		return gp, nil
	}

	gp.done = true
	gp.session.Record = res.rec
	gp.session.Quota.Consume(quota.FeaturePodcast)

	return gp, phases.NextPhaseCmd
}

// settled reports whether this run already reached an outcome, or is
// fetching the finished record, and should ignore further poll and
// timer traffic.
func (gp *generatingPhase) settled() bool {
	return gp.done || gp.failed || gp.timedOut || gp.fetchRetry || gp.fetching
}

func (gp *generatingPhase) pollCmd(attempt int) tea.Cmd {
	jobID := gp.session.JobID

	return func() tea.Msg {
		job, err := gp.session.Backend.PollStatus(context.Background(), jobID)

		return pollResultMsg{attempt: attempt, job: job, err: err}
	}
}

func (gp *generatingPhase) fetchCmd(attempt int) tea.Cmd {
	jobID := gp.session.JobID

	return func() tea.Msg {
		rec, err := gp.session.Backend.FetchRecord(context.Background(), jobID)

		return fetchDoneMsg{attempt: attempt, rec: rec, err: err}
	}
}

func (gp *generatingPhase) tickAfter(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return msg
	})
}

func (gp *generatingPhase) View() string {
	switch {
	case gp.fetchRetry:
		return gp.viewFailure("Episode ready, loading failed", "retry loading")
	case gp.timedOut:
		return gp.viewFailure("Generation timed out", "back to settings")
	case gp.failed:
		return gp.viewFailure("Generation failed", "back to settings")
	}

	var sb strings.Builder

	sb.WriteString(gp.spinner.View())
	sb.WriteString(" ")
	sb.WriteString(style.Title.Render("Generating your podcast"))
	sb.WriteString(" ")
	sb.WriteString(style.Subtitle.Render(formatTime(time.Since(gp.started).Seconds())))
	sb.WriteString("\n\n")

	sb.WriteString(gp.steps.View())
	sb.WriteString("\n\n")

	sb.WriteString(style.Muted.Render("Did you know? " + gp.tidbit.Current()))
	sb.WriteString("\n\n")

	sb.WriteString(renderGlobalKeyHelp())

	return sb.String()
}

func (gp *generatingPhase) viewFailure(title, retryDesc string) string {
	var sb strings.Builder

	sb.WriteString(style.Error.Render("✗ " + title))
	sb.WriteString("\n\n")

	if gp.errMsg != "" {
		sb.WriteString(style.Subtitle.Render(gp.errMsg))
		sb.WriteString("\n\n")
	}

	retry := key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", retryDesc),
	)
	sb.WriteString(renderKeyHelp(retry, "\n"))
	sb.WriteString(renderGlobalKeyHelp())

	return sb.String()
}
