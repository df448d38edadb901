package workflow

import (
	"context"

	"github.com/castforge/castforge/internal/backend"
	"github.com/castforge/castforge/internal/player"
	"github.com/castforge/castforge/internal/podcast"
)

// Generator is the backend surface the workflow drives: submit one
// job, poll it, and fetch the finished record.
type Generator interface {
	SubmitGeneration(ctx context.Context, genReq backend.GenerationRequest) (string, error)
	PollStatus(ctx context.Context, podcastID string) (podcast.Job, error)
	FetchRecord(ctx context.Context, podcastID string) (*podcast.Record, error)
	NewGenerationRequest(cfg podcast.Config, content string) backend.GenerationRequest
	AudioURL(rec *podcast.Record) string
}

// VoicePreviewer plays short voice samples while configuring hosts.
type VoicePreviewer interface {
	Toggle(ctx context.Context, voiceID string) string
	Playing() string
	Stop()
}

// TransportFactory builds an audio transport for a finished episode.
type TransportFactory func(ctx context.Context, url string) (player.Transport, error)

// Downloader saves the episode audio to disk and returns the path.
type Downloader func(ctx context.Context, url, title string) (string, error)
