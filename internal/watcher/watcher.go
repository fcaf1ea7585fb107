// Package watcher ingests PDFs dropped into a watched directory.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragdex/internal/core/domain"
	"github.com/custodia-labs/ragdex/internal/logger"
)

// DefaultSettle is how long a file must stay quiet before ingestion.
// Copies into the drop directory arrive as a Create followed by many
// Writes; ingesting early would read a half-written PDF.
const DefaultSettle = 500 * time.Millisecond

// Ingestor is the slice of the engine the watcher drives.
type Ingestor interface {
	Upload(ctx context.Context, filename string, data []byte, action domain.UploadAction) (domain.UploadResult, error)
}

// Watcher feeds PDFs from a drop directory into the engine.
type Watcher struct {
	dir    string
	ingest Ingestor
	settle time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// Option configures the watcher.
type Option func(*Watcher)

// WithSettle overrides the quiet period before ingestion.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// New creates a watcher over dir feeding the given ingestor.
func New(dir string, ingest Ingestor, opts ...Option) *Watcher {
	w := &Watcher{
		dir:     dir,
		ingest:  ingest,
		settle:  DefaultSettle,
		pending: make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the drop directory until the context is cancelled.
// Files already present at startup are ingested first.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0700); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}

	w.ingestExisting(ctx)
	logger.Info("Watching %s for PDF drops", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// handleEvent schedules ingestion after the settle period, resetting
// the timer on every further write to the same file.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}
	if !eligible(event.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[event.Name]; ok {
		timer.Reset(w.settle)
		return
	}
	path := event.Name
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.ingestFile(ctx, path)
	})
}

func (w *Watcher) ingestExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logger.Warn("Reading watch directory: %v", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if eligible(path) {
			w.ingestFile(ctx, path)
		}
	}
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Reading dropped file %s: %v", path, err)
		return
	}

	result, err := w.ingest.Upload(ctx, filepath.Base(path), data, domain.ActionAuto)
	switch {
	case result.Status == domain.UploadDuplicate:
		logger.Info("Skipping %s: already indexed as %s", filepath.Base(path), result.ExistingFilename)
	case err != nil:
		logger.Warn("Ingesting %s failed: %s", filepath.Base(path), result.Message)
	default:
		logger.Info("Ingested %s: %d chunks across %d pages", result.Filename, result.Chunks, result.Pages)
	}
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// eligible reports whether a dropped path should be ingested. Hidden
// files cover editor temp files and in-progress browser downloads.
func eligible(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
