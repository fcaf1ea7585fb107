// Package poppler extracts per-page PDF text by shelling out to the
// pdftotext tool from poppler-utils.
package poppler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/ragdex/internal/core/domain"
	"github.com/custodia-labs/ragdex/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// DefaultBinary is the pdftotext executable name.
const DefaultBinary = "pdftotext"

// Extractor converts PDF bytes into per-page text. pdftotext separates
// pages with form feeds, which preserves 1-based page numbering even
// when intermediate pages carry no text.
type Extractor struct {
	runner driven.CommandRunner
	binary string
}

// Option configures the extractor.
type Option func(*Extractor)

// WithRunner replaces the command runner. Used in tests to avoid a
// pdftotext dependency.
func WithRunner(r driven.CommandRunner) Option {
	return func(e *Extractor) { e.runner = r }
}

// WithBinary overrides the pdftotext executable path.
func WithBinary(path string) Option {
	return func(e *Extractor) {
		if path != "" {
			e.binary = path
		}
	}
}

// New creates an extractor with the given options.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		runner: execRunner{},
		binary: DefaultBinary,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs pdftotext over the PDF and splits its output into
// pages. Pages with no text are omitted; the remaining pages keep
// their original 1-based numbers.
func (e *Extractor) Extract(ctx context.Context, pdf []byte) ([]domain.Page, error) {
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: empty input", domain.ErrExtraction)
	}

	tmp, err := os.CreateTemp("", "ragdex-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating scratch file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(pdf); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing scratch file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing scratch file: %w", err)
	}

	// "-" sends the text to stdout; pages arrive separated by \f.
	out, err := e.runner.Run(ctx, e.binary, "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	var pages []domain.Page
	for i, text := range strings.Split(string(out), "\f") {
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, domain.Page{Number: i + 1, Text: text})
	}
	return pages, nil
}

// InstallInstructions explains how to install pdftotext.
func InstallInstructions() string {
	return strings.Join([]string{
		"pdftotext (poppler-utils) is required for PDF ingestion:",
		"  macOS:         brew install poppler",
		"  Debian/Ubuntu: apt install poppler-utils",
		"  Fedora:        dnf install poppler-utils",
	}, "\n")
}

// execRunner runs commands with os/exec, surfacing stderr in errors.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %v: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	return out, nil
}
