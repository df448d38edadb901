// Package workflow provides the TUI phase implementations that take a
// set of documents to a playing podcast.
package workflow

import (
	"time"

	"github.com/castforge/castforge/internal/podcast"
	"github.com/castforge/castforge/internal/quota"
	"github.com/castforge/castforge/internal/source"
	"github.com/castforge/castforge/internal/voices"
)

// Session carries the state shared across workflow phases plus the
// collaborators acting on it. One session spans one podcast from
// upload to playback; starting over replaces it wholesale.
type Session struct {
	Collector   *source.Collector
	SourceFiles []source.SourceFile
	Config      podcast.Config
	JobID       string
	Record      *podcast.Record

	Backend      Generator
	Parser       source.Parser
	Quota        quota.Gate
	Previewer    VoicePreviewer
	NewTransport TransportFactory
	Download     Downloader

	PollInterval   time.Duration
	PollDeadline   time.Duration
	TidbitInterval time.Duration
}

// NewSession creates a session with default podcast configuration and
// an empty document collector.
func NewSession() *Session {
	return &Session{
		Collector:      &source.Collector{},
		Config:         podcast.DefaultConfig(voices.DefaultHost),
		PollInterval:   3 * time.Second,
		PollDeadline:   5 * time.Minute,
		TidbitInterval: 6 * time.Second,
	}
}

// Content returns the aggregated text of all extracted documents.
func (s *Session) Content() string {
	return source.Aggregate(s.SourceFiles)
}

// RefreshEstimate recomputes the target duration from the current
// content. Called whenever the extracted documents change; the user
// never sets the duration directly.
func (s *Session) RefreshEstimate() {
	s.Config.TargetDuration = podcast.EstimateDuration(source.TotalContentLength(s.SourceFiles))
}

// ResetMsg asks the root model to discard the session and start a new
// podcast from the upload screen.
type ResetMsg struct{}

// TeardownMsg tells the active phase the program is quitting, so it
// releases anything session-scoped it holds (audio device, temp copy
// of the episode).
type TeardownMsg struct{}
