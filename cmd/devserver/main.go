package main

import (
	"log"

	"github.com/castforge/castforge/internal/config"
	"github.com/castforge/castforge/internal/logger"
	"github.com/castforge/castforge/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	slogger := logger.SetupServerLogger(cfg)

	// Log startup information
	slogger.Info("Starting castforge dev server",
		"env", cfg.Env,
		"port", cfg.Port,
		"scriptedByAPI", cfg.AnthropicAPIKey != "",
		"spokenByAPI", cfg.OpenAIAPIKey != "",
	)

	srv := server.New(cfg, slogger)

	if err := server.Run(srv); err != nil {
		slogger.Error("Failed to start server", "error", err)
		log.Fatalf("Fatal: %v", err)
	}
}
