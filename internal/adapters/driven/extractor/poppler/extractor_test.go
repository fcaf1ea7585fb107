package poppler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdex/internal/core/domain"
	"github.com/custodia-labs/ragdex/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output   []byte
	err      error
	lastName string
	lastArgs []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.lastName = name
	m.lastArgs = args
	return m.output, m.err
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.TextExtractor = (*Extractor)(nil)
}

func TestExtract_SplitsPagesOnFormFeed(t *testing.T) {
	runner := &mockRunner{output: []byte("intro text\fbody text\fconclusion\f")}
	e := New(WithRunner(runner))

	pages, err := e.Extract(context.Background(), []byte("%PDF-1.7 fake"))
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "intro text", pages[0].Text)
	assert.Equal(t, 3, pages[2].Number)
	assert.Equal(t, "conclusion", pages[2].Text)
}

func TestExtract_SkipsBlankPagesKeepingNumbers(t *testing.T) {
	runner := &mockRunner{output: []byte("first\f   \n\fthird\f")}
	e := New(WithRunner(runner))

	pages, err := e.Extract(context.Background(), []byte("%PDF-1.7 fake"))
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, 3, pages[1].Number, "blank pages are skipped without renumbering")
}

func TestExtract_NoTextAtAll(t *testing.T) {
	runner := &mockRunner{output: []byte("\f\f")}
	e := New(WithRunner(runner))

	pages, err := e.Extract(context.Background(), []byte("%PDF-1.7 fake"))
	require.NoError(t, err)
	assert.Empty(t, pages, "a scanned PDF with no text layer yields no pages")
}

func TestExtract_RunnerFailure(t *testing.T) {
	runner := &mockRunner{err: errors.New("pdftotext: exit status 1: Syntax Error")}
	e := New(WithRunner(runner))

	_, err := e.Extract(context.Background(), []byte("not a pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Contains(t, err.Error(), "Syntax Error")
}

func TestExtract_EmptyInput(t *testing.T) {
	e := New(WithRunner(&mockRunner{}))

	_, err := e.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtract_InvokesConfiguredBinary(t *testing.T) {
	runner := &mockRunner{output: []byte("text")}
	e := New(WithRunner(runner), WithBinary("/opt/poppler/bin/pdftotext"))

	_, err := e.Extract(context.Background(), []byte("%PDF-1.7 fake"))
	require.NoError(t, err)

	assert.Equal(t, "/opt/poppler/bin/pdftotext", runner.lastName)
	require.Len(t, runner.lastArgs, 4)
	assert.Equal(t, []string{"-enc", "UTF-8"}, runner.lastArgs[:2])
	assert.True(t, strings.HasSuffix(runner.lastArgs[2], ".pdf"), "input is staged as a scratch .pdf file")
	assert.Equal(t, "-", runner.lastArgs[3], "output goes to stdout")
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}
