// Package backend is the HTTP client for the podcast generation
// service: document parsing, job submission, status polling, record
// fetch, and voice sample streaming.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/castforge/castforge/internal/podcast"
	"github.com/castforge/castforge/internal/source"
)

const defaultTimeout = 30 * time.Second

// Client talks to one backend instance.
type Client struct {
	baseURL string
	guestID string
	httpc   *http.Client
}

// NewClient creates a client for the given base URL, e.g.
// "http://localhost:8080". The guest id identifies this session to the
// backend's usage accounting.
func NewClient(baseURL, guestID string) *Client {
	return &Client{
		baseURL: baseURL,
		guestID: guestID,
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
}

// GenerationRequest is the submission body for a new generation job.
type GenerationRequest struct {
	Content        string         `json:"content"`
	Language       string         `json:"language"`
	NumHosts       int            `json:"numHosts"`
	Hosts          []podcast.Host `json:"hosts"`
	Mode           podcast.Mode   `json:"mode"`
	TargetDuration int            `json:"targetDuration"`
	SpeechRate     float64        `json:"speechRate"`
	GuestID        string         `json:"guestId"`
}

// NewGenerationRequest builds a submission body from a frozen config
// and the aggregated source content.
func (c *Client) NewGenerationRequest(cfg podcast.Config, content string) GenerationRequest {
	return GenerationRequest{
		Content:        content,
		Language:       cfg.Language,
		NumHosts:       cfg.NumHosts,
		Hosts:          cfg.Hosts,
		Mode:           cfg.Mode,
		TargetDuration: cfg.TargetDuration,
		SpeechRate:     cfg.SpeechRate,
		GuestID:        c.guestID,
	}
}

// ParseDocument uploads one document to the parsing service and
// returns its extracted text. Implements source.Parser.
func (c *Client) ParseDocument(ctx context.Context, name string, r io.Reader) (source.SourceFile, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return source.SourceFile{}, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return source.SourceFile{}, fmt.Errorf("failed to read document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return source.SourceFile{}, fmt.Errorf("failed to finish upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/documents/parse", &body)
	if err != nil {
		return source.SourceFile{}, fmt.Errorf("failed to build parse request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var parsed struct {
		Text     string `json:"text"`
		FileName string `json:"fileName"`
	}
	if err := c.do(req, &parsed); err != nil {
		return source.SourceFile{}, err
	}

	if parsed.FileName == "" {
		parsed.FileName = name
	}

	return source.SourceFile{Name: parsed.FileName, Text: parsed.Text}, nil
}

// SubmitGeneration submits a generation job and returns its id.
func (c *Client) SubmitGeneration(ctx context.Context, genReq GenerationRequest) (string, error) {
	payload, err := json.Marshal(genReq)
	if err != nil {
		return "", fmt.Errorf("failed to encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/podcasts", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp struct {
		PodcastID string `json:"podcastId"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", err
	}

	if resp.PodcastID == "" {
		return "", &APIError{StatusCode: http.StatusOK, Message: "backend returned no podcast id"}
	}

	return resp.PodcastID, nil
}

// PollStatus fetches the current status of a job.
func (c *Client) PollStatus(ctx context.Context, podcastID string) (podcast.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/v1/podcasts/%s/status", c.baseURL, podcastID), nil)
	if err != nil {
		return podcast.Job{}, fmt.Errorf("failed to build status request: %w", err)
	}

	job := podcast.Job{ID: podcastID}
	if err := c.do(req, &job); err != nil {
		return podcast.Job{}, err
	}
	job.ID = podcastID

	return job, nil
}

// FetchRecord retrieves the finished podcast for a completed job.
func (c *Client) FetchRecord(ctx context.Context, podcastID string) (*podcast.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/v1/podcasts/%s", c.baseURL, podcastID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build record request: %w", err)
	}

	var rec podcast.Record
	if err := c.do(req, &rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

// FetchVoiceSample streams a short sample for one voice. The caller
// must close the returned reader.
func (c *Client) FetchVoiceSample(ctx context.Context, voiceID string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/v1/voices/%s/sample", c.baseURL, voiceID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sample request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice sample request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, errorFromResponse(resp)
	}

	return resp.Body, nil
}

// AudioURL resolves a record's audio location against the backend base
// URL when the backend returned a relative path.
func (c *Client) AudioURL(rec *podcast.Record) string {
	if rec.AudioURL == "" || rec.AudioURL[0] != '/' {
		return rec.AudioURL
	}

	return c.baseURL + rec.AudioURL
}

// do executes a request, decoding a 2xx JSON body into out and turning
// anything else into an APIError.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}

	return nil
}
