package player

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dhowden/tag"
)

var (
	slugStripRe    = regexp.MustCompile(`[^a-z0-9-]+`)
	slugCollapseRe = regexp.MustCompile(`-+`)
)

// SanitizeTitle converts an episode title to a filesystem-friendly
// slug. Example: "AI & The Future!" -> "ai-the-future".
func SanitizeTitle(title string) string {
	slug := strings.ToLower(title)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugStripRe.ReplaceAllString(slug, "")
	slug = slugCollapseRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if slug == "" {
		slug = "podcast"
	}

	return slug
}

// Download streams the episode audio from url into dir, named after
// the sanitized title, and returns the saved path. Existing files are
// overwritten.
func Download(ctx context.Context, httpc *http.Client, url, title, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	path := filepath.Join(dir, SanitizeTitle(title)+".mp3")

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(path)

		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	logDownloadedTags(path)

	return path, nil
}

// logDownloadedTags records any embedded metadata for debugging. Most
// generated episodes carry none, so missing tags are not an error.
func logDownloadedTags(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		slog.Debug("downloaded episode has no readable tags", "path", path)
		return
	}

	slog.Debug("downloaded episode tags",
		"path", path,
		"format", meta.Format(),
		"title", meta.Title(),
		"artist", meta.Artist(),
	)
}
