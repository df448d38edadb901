package server_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castforge/castforge/internal/backend"
	"github.com/castforge/castforge/internal/config"
	"github.com/castforge/castforge/internal/podcast"
	"github.com/castforge/castforge/internal/server"
	"github.com/castforge/castforge/internal/voices"
)

func testServer(t *testing.T) *server.Server {
	t.Helper()

	cfg := &config.ServerConfig{
		Env:        "test",
		Port:       "8080",
		HSTSMaxAge: 31536000,
		CSPMode:    "relaxed",
		LogLevel:   "info",
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors during tests
	}))

	return server.New(cfg, logger)
}

func testRequest(t *testing.T) backend.GenerationRequest {
	t.Helper()

	aria := voices.Lookup("aria")

	return backend.GenerationRequest{
		Content:        "Testing podcast generation. This is the source material.",
		Language:       "en",
		NumHosts:       1,
		Hosts:          []podcast.Host{{ID: "host-1", Name: "Sam", VoiceID: aria.ID}},
		Mode:           podcast.ModeConversational,
		TargetDuration: 1,
		SpeechRate:     1.0,
		GuestID:        "guest-test",
	}
}

func submit(t *testing.T, srv *server.Server, genReq backend.GenerationRequest) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(genReq)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/podcasts", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Health endpoint should return 200 OK")
	assert.Contains(t, w.Body.String(), "healthy", "Response should contain 'healthy'")
	assert.Contains(t, w.Body.String(), "castforge", "Response should contain the service name")
}

func TestParseDocument(t *testing.T) {
	srv := testServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("Plain text content.\nSecond line."))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/parse", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var parsed struct {
		FileName string `json:"fileName"`
		Text     string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	assert.Equal(t, "notes.txt", parsed.FileName)
	assert.Contains(t, parsed.Text, "Plain text content.")
	assert.Contains(t, parsed.Text, "Second line.")
}

func TestParseDocument_MissingFile(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/parse", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestSubmit_Validation(t *testing.T) {
	srv := testServer(t)

	noContent := testRequest(t)
	noContent.Content = "   "
	w := submit(t, srv, noContent)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	badHosts := testRequest(t)
	badHosts.NumHosts = 2 // claims two but carries one
	w = submit(t, srv, badHosts)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerationLifecycle(t *testing.T) {
	server.SetStageDelay(t, 10*time.Millisecond)

	srv := testServer(t)

	w := submit(t, srv, testRequest(t))
	require.Equal(t, http.StatusAccepted, w.Code)

	var accepted struct {
		PodcastID string `json:"podcastId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.PodcastID)

	// Fetching the record before completion is refused.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/podcasts/"+accepted.PodcastID, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Poll until the job settles.
	var job podcast.Job
	deadline := time.Now().Add(30 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/podcasts/"+accepted.PodcastID+"/status", nil)
		sw := httptest.NewRecorder()
		srv.Router().ServeHTTP(sw, req)
		require.Equal(t, http.StatusOK, sw.Code)
		require.NoError(t, json.Unmarshal(sw.Body.Bytes(), &job))

		if job.Status.Terminal() {
			break
		}

		require.True(t, time.Now().Before(deadline), "job did not settle in time")
		time.Sleep(50 * time.Millisecond)
	}
	require.Equal(t, podcast.StatusCompleted, job.Status, "job failed: %s", job.ErrorMessage)

	// The completed record carries audio, duration, and chapters that
	// partition it.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/podcasts/"+accepted.PodcastID, nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var record podcast.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, accepted.PodcastID, record.ID)
	assert.Equal(t, podcast.StatusCompleted, record.Status)
	assert.NotEmpty(t, record.Title)
	assert.NotEmpty(t, record.Dialogues)
	assert.Greater(t, record.Duration, 0.0)
	require.NotEmpty(t, record.Chapters)
	assert.Zero(t, record.Chapters[0].StartTime)
	assert.InDelta(t, record.Duration, record.Chapters[len(record.Chapters)-1].EndTime, 0.01)

	// The audio endpoint serves the encoded episode.
	req = httptest.NewRequest(http.MethodGet, record.AudioURL, nil)
	aw := httptest.NewRecorder()
	srv.Router().ServeHTTP(aw, req)
	require.Equal(t, http.StatusOK, aw.Code)
	assert.Equal(t, "audio/mpeg", aw.Header().Get("Content-Type"))
	assert.NotZero(t, aw.Body.Len())
}

func TestFailureInjection(t *testing.T) {
	server.SetStageDelay(t, 10*time.Millisecond)

	srv := testServer(t)

	payload, err := json.Marshal(testRequest(t))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/podcasts?fail=script", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)

	var accepted struct {
		PodcastID string `json:"podcastId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))

	var job podcast.Job
	deadline := time.Now().Add(5 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/podcasts/"+accepted.PodcastID+"/status", nil)
		sw := httptest.NewRecorder()
		srv.Router().ServeHTTP(sw, req)
		require.NoError(t, json.Unmarshal(sw.Body.Bytes(), &job))

		if job.Status.Terminal() {
			break
		}

		require.True(t, time.Now().Before(deadline), "job did not settle in time")
		time.Sleep(20 * time.Millisecond)
	}

	assert.Equal(t, podcast.StatusFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "injected failure")
}

func TestUnknownPodcastID(t *testing.T) {
	srv := testServer(t)

	for _, path := range []string{
		"/api/v1/podcasts/nope/status",
		"/api/v1/podcasts/nope",
		"/api/v1/podcasts/nope/audio",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestVoiceSample(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/voices/aria/sample", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}
