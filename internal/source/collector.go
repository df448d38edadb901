// Package source collects candidate documents for a podcast and turns
// them into extracted text via the backend parsing service.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MaxFiles caps how many documents feed a single episode.
	MaxFiles = 3
	// MaxFileSize caps a single document at 10 MB.
	MaxFileSize = 10 << 20
)

// DocumentSeparator is inserted between extracted documents when they
// are aggregated for the script generator, preserving order-dependent
// context across document boundaries.
const DocumentSeparator = "\n\n--- next document ---\n\n"

// ValidationError reports a rejected user action (too many files, a
// file over the size limit, a missing path). It is always recoverable:
// collector state is untouched when one is returned.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PendingFile is a candidate document that has not been parsed yet.
type PendingFile struct {
	Name string
	Path string
	Size int64
}

// SourceFile is a successfully extracted document.
type SourceFile struct {
	Name string
	Text string
}

// Parser extracts plain text from one document. The backend client
// implements this against the parsing service.
type Parser interface {
	ParseDocument(ctx context.Context, name string, r io.Reader) (SourceFile, error)
}

// Collector accumulates pending files under the count and size caps.
// The zero value is ready to use.
type Collector struct {
	pending []PendingFile
}

// Files returns the pending files in order.
func (c *Collector) Files() []PendingFile {
	return c.pending
}

// Len returns the number of pending files.
func (c *Collector) Len() int {
	return len(c.pending)
}

// AddPaths stats each path and adds the resulting files, subject to
// the same atomic-or-nothing rules as AddFiles.
func (c *Collector) AddPaths(paths ...string) error {
	files := make([]PendingFile, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return validationErrorf("cannot read %s: %v", p, err)
		}
		if info.IsDir() {
			return validationErrorf("%s is a directory, not a document", p)
		}

		files = append(files, PendingFile{
			Name: filepath.Base(p),
			Path: p,
			Size: info.Size(),
		})
	}

	return c.AddFiles(files...)
}

// AddFiles combines new files with the pending list, silently
// truncating to MaxFiles. If any file in the combined set exceeds
// MaxFileSize the whole add is rejected and the pending list is left
// unchanged.
func (c *Collector) AddFiles(files ...PendingFile) error {
	combined := make([]PendingFile, 0, len(c.pending)+len(files))
	combined = append(combined, c.pending...)
	combined = append(combined, files...)

	if len(combined) > MaxFiles {
		combined = combined[:MaxFiles]
	}

	for _, f := range combined {
		if f.Size > MaxFileSize {
			return validationErrorf("%s is %.1f MB, over the %d MB limit",
				f.Name, float64(f.Size)/(1<<20), MaxFileSize>>20)
		}
	}

	c.pending = combined

	return nil
}

// RemoveFile drops one pending file. Out-of-range indexes are ignored.
func (c *Collector) RemoveFile(index int) {
	if index < 0 || index >= len(c.pending) {
		return
	}

	c.pending = append(c.pending[:index], c.pending[index+1:]...)
}

// Reset clears the pending list.
func (c *Collector) Reset() {
	c.pending = nil
}

// Extract submits each pending file to the parser, strictly one at a
// time, and returns the extracted documents in their original order.
// The first failure aborts the run; the pending list is kept intact so
// the user can retry. Sequential submission bounds load on the parsing
// service and keeps error attribution per-file unambiguous.
func (c *Collector) Extract(ctx context.Context, parser Parser) ([]SourceFile, error) {
	if len(c.pending) == 0 {
		return nil, validationErrorf("no documents selected")
	}

	extracted := make([]SourceFile, 0, len(c.pending))
	for _, pf := range c.pending {
		sf, err := c.extractOne(ctx, parser, pf)
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", pf.Name, err)
		}

		slog.Debug("extracted document", "name", sf.Name, "chars", len(sf.Text))
		extracted = append(extracted, sf)
	}

	return extracted, nil
}

func (c *Collector) extractOne(ctx context.Context, parser Parser, pf PendingFile) (SourceFile, error) {
	f, err := os.Open(pf.Path)
	if err != nil {
		return SourceFile{}, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	return parser.ParseDocument(ctx, pf.Name, f)
}

// Aggregate joins extracted documents in order with the separator.
func Aggregate(files []SourceFile) string {
	texts := make([]string, len(files))
	for i, f := range files {
		texts[i] = f.Text
	}

	return strings.Join(texts, DocumentSeparator)
}

// TotalContentLength is the aggregate character count the duration
// estimator works from.
func TotalContentLength(files []SourceFile) int {
	total := 0
	for _, f := range files {
		total += len(f.Text)
	}

	return total
}
