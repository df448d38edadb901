// Package server implements the development backend: document
// parsing, podcast generation jobs, and audio delivery over HTTP.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"github.com/castforge/castforge/internal/backend"
	"github.com/castforge/castforge/internal/config"
	"github.com/castforge/castforge/internal/podcast"
	"github.com/castforge/castforge/internal/source"
)

// stageDelay paces job progression so clients see the intermediate
// statuses. Tests shrink it.
var stageDelay = 2 * time.Second

// Server represents the HTTP server.
type Server struct {
	config  *config.ServerConfig
	logger  *slog.Logger
	router  *gin.Engine
	store   *jobStore
	scripts ScriptWriter
	synth   SpeechSynthesizer
	workDir string
}

// New creates a new Server instance. Script and speech generation use
// the real APIs when keys are configured and offline stand-ins
// otherwise.
func New(cfg *config.ServerConfig, logger *slog.Logger) *Server {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	if cfg.Env == config.EnvProduction {
		router.TrustedPlatform = gin.PlatformFlyIO
		logger.Debug("Configured trusted platform", "platform", "fly.io")
	}

	var scripts ScriptWriter = cannedWriter{}
	if cfg.AnthropicAPIKey != "" {
		scripts = newAnthropicWriter(cfg.AnthropicAPIKey)
	}

	var synth SpeechSynthesizer = toneSynth{}
	if cfg.OpenAIAPIKey != "" {
		synth = newOpenAISynth(cfg.OpenAIAPIKey)
	}

	server := &Server{
		config:  cfg,
		logger:  logger,
		router:  router,
		store:   newJobStore(),
		scripts: scripts,
		synth:   synth,
		workDir: os.TempDir(),
	}

	setupSecurityMiddleware(router, cfg, logger)
	server.setupRoutes()

	return server
}

// Router exposes the underlying gin engine for serving and tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server.
func Run(s *Server) error {
	s.logger.Info("Server listening", "port", s.config.Port)
	return s.router.Run(":" + s.config.Port)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api/v1")
	{
		api.POST("/documents/parse", s.handleParseDocument)
		api.POST("/podcasts", s.handleSubmit)
		api.GET("/podcasts/:id/status", s.handleStatus)
		api.GET("/podcasts/:id", s.handleRecord)
		api.GET("/podcasts/:id/audio", s.handleAudio)
		api.GET("/voices/:id/sample", s.handleVoiceSample)
	}

	// Web client assets, when a build is present.
	s.router.Use(static.Serve("/", static.LocalFile("./public", false)))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "castforge",
	})
}

// handleParseDocument extracts text from one uploaded document. The
// development parser handles plain text and strips everything else
// down to printable bytes.
func (s *Server) handleParseDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}

	if fileHeader.Size > source.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the 10 MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file upload"})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, source.MaxFileSize))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}

	text := extractText(raw)
	if strings.TrimSpace(text) == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no extractable text in document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fileName": fileHeader.Filename,
		"text":     text,
	})
}

// extractText keeps printable content. Real deployments put a proper
// document parser here; for development this is enough for text,
// markdown, and mostly-text PDFs.
func extractText(raw []byte) string {
	var sb strings.Builder
	sb.Grow(len(raw))

	for _, b := range raw {
		if b == '\n' || b == '\t' || (b >= 0x20 && b < 0x7f) {
			sb.WriteByte(b)
		}
	}

	return sb.String()
}

func (s *Server) handleSubmit(c *gin.Context) {
	var genReq backend.GenerationRequest
	if err := c.ShouldBindJSON(&genReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if strings.TrimSpace(genReq.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	if genReq.NumHosts < podcast.MinHosts || genReq.NumHosts > podcast.MaxHosts ||
		len(genReq.Hosts) != genReq.NumHosts {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid host configuration"})
		return
	}

	id := s.store.Create()
	go s.runJob(id, genReq, c.Query("fail"))

	s.logger.Info("Generation job accepted", "podcastId", id, "guestId", genReq.GuestID)
	c.JSON(http.StatusAccepted, gin.H{"podcastId": id})
}

// runJob drives one generation job through its lifecycle in the
// background. A non-empty failStage forces a failure mid-run so
// clients can exercise their error paths.
func (s *Server) runJob(id string, genReq backend.GenerationRequest, failStage string) {
	time.Sleep(stageDelay)
	s.store.SetStatus(id, podcast.StatusProcessing)

	if failStage != "" {
		time.Sleep(stageDelay)
		s.store.Fail(id, "injected failure: "+failStage)

		return
	}

	ctx := context.Background()

	rec, err := s.scripts.WriteScript(ctx, genReq)
	if err != nil {
		s.logger.Error("Script generation failed", "podcastId", id, "error", err)
		s.store.Fail(id, fmt.Sprintf("script generation failed: %v", err))

		return
	}

	audioPath := filepath.Join(s.workDir, "castforge-"+id+".mp3")

	duration, err := s.synth.Synthesize(ctx, rec, genReq.SpeechRate, audioPath)
	if err != nil {
		s.logger.Error("Speech synthesis failed", "podcastId", id, "error", err)
		s.store.Fail(id, fmt.Sprintf("speech synthesis failed: %v", err))

		return
	}

	rec.ID = id
	rec.Status = podcast.StatusCompleted
	rec.Duration = duration
	rec.AudioURL = "/api/v1/podcasts/" + id + "/audio"
	rescaleChapters(rec)

	s.store.Complete(id, rec, audioPath)
	s.logger.Info("Generation job completed", "podcastId", id, "duration", duration)
}

// rescaleChapters stretches the script's nominal chapter times onto
// the actual synthesized duration so they still partition the episode.
func rescaleChapters(rec *podcast.Record) {
	if len(rec.Chapters) == 0 {
		return
	}

	nominal := rec.Chapters[len(rec.Chapters)-1].EndTime
	if nominal <= 0 || rec.Duration <= 0 {
		return
	}

	factor := rec.Duration / nominal
	for i := range rec.Chapters {
		rec.Chapters[i].StartTime *= factor
		rec.Chapters[i].EndTime *= factor
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	job, ok := s.store.Job(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown podcast id"})
		return
	}

	c.JSON(http.StatusOK, job)
}

func (s *Server) handleRecord(c *gin.Context) {
	id := c.Param("id")

	rec, ok := s.store.Record(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown podcast id"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "podcast is not ready yet"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleAudio(c *gin.Context) {
	path, ok := s.store.AudioPath(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no audio for this podcast"})
		return
	}

	c.Header("Content-Type", "audio/mpeg")
	c.File(path)
}

func (s *Server) handleVoiceSample(c *gin.Context) {
	sample, err := s.synth.Sample(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.logger.Error("Voice sample synthesis failed", "voiceId", c.Param("id"), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "voice sample unavailable"})

		return
	}

	c.Data(http.StatusOK, "audio/mpeg", sample)
}
