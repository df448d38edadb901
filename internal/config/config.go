package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvProduction represents the production environment.
	EnvProduction = "production"
)

// Config holds all application configuration.
type Config struct {
	// Environment
	Env string `envconfig:"ENV" default:"development"`

	// Backend settings
	BackendURL string `envconfig:"CASTFORGE_BACKEND_URL" default:"http://localhost:8080"`
	GuestID    string `envconfig:"CASTFORGE_GUEST_ID"`

	// Generation polling
	PollInterval time.Duration `envconfig:"CASTFORGE_POLL_INTERVAL" default:"3s"`
	PollDeadline time.Duration `envconfig:"CASTFORGE_POLL_DEADLINE" default:"5m"`

	// Waiting-screen tidbit rotation
	TidbitInterval time.Duration `envconfig:"CASTFORGE_TIDBIT_INTERVAL" default:"6s"`

	// Where downloaded episodes land
	DownloadDir string `envconfig:"CASTFORGE_DOWNLOAD_DIR" default:"."`

	// Logging settings
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`
}

// ServerConfig holds the development backend's configuration.
type ServerConfig struct {
	Env  string `envconfig:"ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8080"`

	// Security settings
	HSTSMaxAge int    `envconfig:"HSTS_MAX_AGE" default:"31536000"`
	CSPMode    string `envconfig:"CSP_MODE" default:"relaxed"`

	// Optional AI credentials; the server falls back to canned
	// scripts and synthesized tones when these are empty.
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`

	// Logging settings
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from .env file and environment variables.
func LoadConfig() (*Config, error) {
	loadDotenv()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	return &config, nil
}

// LoadServerConfig loads the development backend configuration.
func LoadServerConfig() (*ServerConfig, error) {
	loadDotenv()

	var config ServerConfig
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	return &config, nil
}

func loadDotenv() {
	// .env is optional; production sets real environment variables.
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}
}

// BuildCSP constructs Content Security Policy based on mode.
func BuildCSP(mode string) string {
	if mode == "strict" {
		return "default-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"script-src 'self'; " +
			"media-src 'self'; " +
			"img-src 'self' data:; " +
			"object-src 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'"
	}

	// Development/relaxed CSP
	return "default-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"script-src 'self' 'unsafe-inline'; " +
		"media-src 'self'; " +
		"img-src 'self' data:"
}
