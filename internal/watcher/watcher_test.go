package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdex/internal/core/domain"
)

// recordingIngestor captures uploads for assertions.
type recordingIngestor struct {
	mu      sync.Mutex
	uploads []string
	result  domain.UploadResult
}

func (r *recordingIngestor) Upload(_ context.Context, filename string, _ []byte, action domain.UploadAction) (domain.UploadResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads = append(r.uploads, filename)
	result := r.result
	result.Filename = filename
	return result, nil
}

func (r *recordingIngestor) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.uploads...)
}

func TestEligible(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"report.pdf", true},
		{"REPORT.PDF", true},
		{"/drop/dir/report.pdf", true},
		{"notes.txt", false},
		{".hidden.pdf", false},
		{"archive.pdf.part", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, eligible(tt.path), "path %q", tt.path)
	}
}

func TestRun_IngestsDroppedPDF(t *testing.T) {
	dir := t.TempDir()
	ingest := &recordingIngestor{result: domain.UploadResult{Status: domain.UploadSuccess}}
	w := New(dir, ingest, WithSettle(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	// Give the watcher a moment to register before dropping the file.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dropped.pdf"), []byte("%PDF-1.7 fake"), 0600))

	require.Eventually(t, func() bool {
		return len(ingest.names()) == 1 && ingest.names()[0] == "dropped.pdf"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestRun_IgnoresNonPDFDrops(t *testing.T) {
	dir := t.TempDir()
	ingest := &recordingIngestor{result: domain.UploadResult{Status: domain.UploadSuccess}}
	w := New(dir, ingest, WithSettle(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("plain text"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".partial.pdf"), []byte("%PDF"), 0600))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, ingest.names())
}

func TestRun_IngestsFilesPresentAtStartup(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "backlog.pdf"), []byte("%PDF-1.7 fake"), 0600))

	ingest := &recordingIngestor{result: domain.UploadResult{Status: domain.UploadSuccess}}
	w := New(dir, ingest, WithSettle(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.Eventually(t, func() bool {
		names := ingest.names()
		return len(names) == 1 && names[0] == "backlog.pdf"
	}, 5*time.Second, 10*time.Millisecond)
}
