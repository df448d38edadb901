package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/castforge/castforge/internal/backend"
	"github.com/castforge/castforge/internal/config"
	"github.com/castforge/castforge/internal/logger"
	"github.com/castforge/castforge/internal/player"
	"github.com/castforge/castforge/internal/quota"
	"github.com/castforge/castforge/internal/tui"
	"github.com/castforge/castforge/internal/tui/workflow"
	"github.com/castforge/castforge/internal/voices"
)

// CLI defines the studio command structure.
type CLI struct {
	// Default TUI command (runs when no subcommand given)
	Studio StudioCmd `cmd:"" default:"withargs" help:"Launch the document-to-podcast studio"`

	// Subcommands
	Voices VoicesCmd `cmd:"" help:"List the shipped voice catalog"`
}

// StudioCmd is the default command that runs the TUI.
type StudioCmd struct {
	Files       []string `arg:"" optional:"" type:"existingfile" help:"Documents to queue for the first podcast"`
	BackendURL  string   `flag:"" optional:"" help:"Backend base URL (overrides CASTFORGE_BACKEND_URL)"`
	GuestID     string   `flag:"" optional:"" help:"Guest id for backend usage accounting"`
	DownloadDir string   `flag:"" optional:"" help:"Where downloaded episodes land"`
}

// Run executes the studio command.
func (c *StudioCmd) Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if c.BackendURL != "" {
		cfg.BackendURL = c.BackendURL
	}
	if c.GuestID != "" {
		cfg.GuestID = c.GuestID
	}
	if c.DownloadDir != "" {
		cfg.DownloadDir = c.DownloadDir
	}
	if cfg.GuestID == "" {
		// Fresh identity per run; the backend only uses it for
		// usage accounting.
		cfg.GuestID = uuid.NewString()
	}

	slog.SetDefault(logger.SetupLogger(cfg))
	slog.Info("Starting studio",
		"backend", cfg.BackendURL,
		"guestId", cfg.GuestID,
	)

	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := backend.NewClient(cfg.BackendURL, cfg.GuestID)
	gate := quota.NewSessionGate(quota.DefaultPodcastLimit)
	previewer := voices.NewPreviewer(client, player.NewMP3SamplePlayer())

	// No overall timeout: this client streams whole episodes.
	streamc := &http.Client{}

	seeded := false
	factory := func() *workflow.Session {
		s := workflow.NewSession()
		s.Backend = client
		s.Parser = client
		s.Quota = gate
		s.Previewer = previewer
		s.NewTransport = func(ctx context.Context, url string) (player.Transport, error) {
			return player.NewStreamTransport(ctx, streamc, url)
		}
		s.Download = func(ctx context.Context, url, title string) (string, error) {
			return player.Download(ctx, streamc, url, title, cfg.DownloadDir)
		}
		s.PollInterval = cfg.PollInterval
		s.PollDeadline = cfg.PollDeadline
		s.TidbitInterval = cfg.TidbitInterval

		// Command-line documents only seed the first podcast;
		// starting over begins from an empty list.
		if !seeded && len(c.Files) > 0 {
			seeded = true
			if err := s.Collector.AddPaths(c.Files...); err != nil {
				slog.Error("Failed to queue documents", "error", err)
			}
		}

		return s
	}

	p := tea.NewProgram(tui.New(cancel, factory))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to start TUI: %w", err)
	}

	previewer.Stop()
	fmt.Println("\nfinished. bye!")

	return nil
}

// VoicesCmd lists the shipped voice catalog.
type VoicesCmd struct{}

// Run executes the voices command.
//
//nolint:unparam // error return required by Kong interface
func (VoicesCmd) Run() error {
	for _, v := range voices.All() {
		fmt.Printf("%s %-8s %s\n", v.Glyph, v.ID, v.Description)
	}

	return nil
}

func main() {
	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}
