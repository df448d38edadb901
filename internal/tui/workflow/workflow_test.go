package workflow

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/castforge/castforge/internal/backend"
	"github.com/castforge/castforge/internal/player"
	"github.com/castforge/castforge/internal/podcast"
	"github.com/castforge/castforge/internal/quota"
	"github.com/castforge/castforge/internal/source"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// mockGenerator implements Generator with scripted poll responses.
type mockGenerator struct {
	mu sync.Mutex

	submitID  string
	submitErr error
	statuses  []podcast.Job
	pollErr   error
	record    *podcast.Record
	fetchErr  error

	submitCalls int
	pollCalls   int
	fetchCalls  int
}

func (m *mockGenerator) SubmitGeneration(_ context.Context, _ backend.GenerationRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.submitCalls++

	return m.submitID, m.submitErr
}

func (m *mockGenerator) PollStatus(_ context.Context, _ string) (podcast.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pollCalls++
	if m.pollErr != nil {
		return podcast.Job{}, m.pollErr
	}

	if len(m.statuses) == 0 {
		return podcast.Job{Status: podcast.StatusProcessing}, nil
	}

	job := m.statuses[0]
	if len(m.statuses) > 1 {
		m.statuses = m.statuses[1:]
	}

	return job, nil
}

func (m *mockGenerator) FetchRecord(_ context.Context, _ string) (*podcast.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetchCalls++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}

	return m.record, nil
}

func (m *mockGenerator) NewGenerationRequest(cfg podcast.Config, content string) backend.GenerationRequest {
	return backend.GenerationRequest{
		Content:        content,
		Language:       cfg.Language,
		NumHosts:       cfg.NumHosts,
		Hosts:          cfg.Hosts,
		Mode:           cfg.Mode,
		TargetDuration: cfg.TargetDuration,
		SpeechRate:     cfg.SpeechRate,
	}
}

func (m *mockGenerator) AudioURL(rec *podcast.Record) string {
	return rec.AudioURL
}

// mockQuota implements quota.Gate.
type mockQuota struct {
	allowed  bool
	consumed int
}

func (m *mockQuota) HasQuota(_ quota.Feature) bool { return m.allowed }
func (m *mockQuota) Consume(_ quota.Feature)       { m.consumed++ }

// mockPreviewer implements VoicePreviewer.
type mockPreviewer struct {
	playing string
	toggled []string
	stopped bool
}

func (m *mockPreviewer) Toggle(_ context.Context, voiceID string) string {
	m.toggled = append(m.toggled, voiceID)
	if m.playing == voiceID {
		m.playing = ""
	} else {
		m.playing = voiceID
	}

	return m.playing
}

func (m *mockPreviewer) Playing() string { return m.playing }
func (m *mockPreviewer) Stop()           { m.stopped = true }

// mockParser implements source.Parser.
type mockParser struct {
	text string
	err  error
}

func (m *mockParser) ParseDocument(_ context.Context, name string, _ io.Reader) (source.SourceFile, error) {
	if m.err != nil {
		return source.SourceFile{}, m.err
	}

	return source.SourceFile{Name: name, Text: m.text}, nil
}

func completedRecord() *podcast.Record {
	return &podcast.Record{
		ID:       "pod-1",
		Title:    "Generated Episode",
		Duration: 180,
		Status:   podcast.StatusCompleted,
		AudioURL: "/api/v1/podcasts/pod-1/audio",
		Chapters: []podcast.Chapter{
			{Title: "Intro", StartTime: 0, EndTime: 90},
			{Title: "Outro", StartTime: 90, EndTime: 180},
		},
		Dialogues: []podcast.Dialogue{
			{HostName: "Alex", Text: "Welcome to the show."},
		},
		Summary: "A short test episode.",
	}
}

func testSession(gen *mockGenerator, gate *mockQuota) *Session {
	s := NewSession()
	s.Backend = gen
	s.Quota = gate
	s.Previewer = &mockPreviewer{}
	s.PollInterval = 10 * time.Millisecond
	s.PollDeadline = time.Minute
	s.TidbitInterval = 10 * time.Millisecond
	s.NewTransport = func(_ context.Context, _ string) (player.Transport, error) {
		return nil, errors.New("no audio in tests")
	}
	s.Download = func(_ context.Context, _, _ string) (string, error) {
		return "", errors.New("no downloads in tests")
	}

	return s
}

// runCmd executes a tea.Cmd synchronously and returns its message.
func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}

	return cmd()
}

func keyRunes(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}
