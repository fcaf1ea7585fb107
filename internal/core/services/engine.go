package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragdex/internal/chunker"
	"github.com/custodia-labs/ragdex/internal/core/domain"
	"github.com/custodia-labs/ragdex/internal/core/ports/driven"
	"github.com/custodia-labs/ragdex/internal/core/ports/driving"
	"github.com/custodia-labs/ragdex/internal/index"
	"github.com/custodia-labs/ragdex/internal/logger"
)

// Ensure Engine implements the interface.
var _ driving.Engine = (*Engine)(nil)

// DefaultTopK is the default number of chunks retrieved per question.
const DefaultTopK = 5

// Fixed answers for queries that never reach the generation service.
const (
	noDocumentsAnswer = "No documents have been uploaded yet. Please upload PDF documents first."
	noContextAnswer   = "I don't have enough information to answer this question. Please upload relevant documents first."
)

// answerInstructions grounds generation in the retrieved context only.
const answerInstructions = `You are a helpful assistant that answers questions based ONLY on the provided context.
Do NOT make up information that is not in the context.
If the context doesn't contain enough information to answer, say so clearly.
You may summarize, combine, or rephrase information from the context to make your answer clear and helpful.`

// Config holds engine tuning parameters.
type Config struct {
	// ChunkWindow is the number of words per chunk.
	ChunkWindow int

	// ChunkOverlap is the number of words shared between consecutive
	// chunks. Must be smaller than ChunkWindow.
	ChunkOverlap int

	// TopK is the default retrieval depth for Ask.
	TopK int

	// MaxTokens and Temperature tune answer generation.
	// Zero values mean provider defaults.
	MaxTokens   int
	Temperature float64
}

func (c *Config) applyDefaults() {
	if c.ChunkWindow == 0 {
		c.ChunkWindow = chunker.DefaultWindowSize
	}
	if c.ChunkOverlap == 0 && c.ChunkWindow == chunker.DefaultWindowSize {
		c.ChunkOverlap = chunker.DefaultOverlap
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
}

// Engine orchestrates ingestion, retrieval and answer generation over
// the document registry and the chunk arena.
//
// The registry and arena form one shared mutable unit guarded by mu:
// mutations (Upload, Delete) hold the write lock end to end, reads
// (Ask, Documents, Stats) hold the read lock. Mutations are staged on
// clones and swapped into live state only after persistence succeeds,
// so memory and disk never diverge silently.
type Engine struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	idx       *index.Flat

	chunker   *chunker.Chunker
	extractor driven.TextExtractor
	embedder  driven.EmbeddingService
	llm       driven.LLMService
	store     driven.EngineStore

	topK    int
	genOpts driven.GenerateOptions
}

// NewEngine loads persisted state and validates the collaborators.
// This is the single most expensive startup operation (it pings the
// embedding service and reads the on-disk index) and is expected to be
// run in the background; see Handle.
func NewEngine(
	ctx context.Context,
	cfg Config,
	extractor driven.TextExtractor,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	store driven.EngineStore,
) (*Engine, error) {
	cfg.applyDefaults()

	ch, err := chunker.New(cfg.ChunkWindow, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	if err := embedder.Ping(ctx); err != nil {
		return nil, fmt.Errorf("embedding service unreachable: %w", err)
	}

	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading engine state: %w", err)
	}
	if state.Index.Dimension() != embedder.Dimensions() {
		return nil, fmt.Errorf("index dimension %d does not match embedding model %q dimension %d",
			state.Index.Dimension(), embedder.ModelName(), embedder.Dimensions())
	}

	logger.Info("Engine initialised: %d documents, %d chunks", len(state.Documents), state.Index.Len())

	return &Engine{
		documents: state.Documents,
		idx:       state.Index,
		chunker:   ch,
		extractor: extractor,
		embedder:  embedder,
		llm:       llm,
		store:     store,
		topK:      cfg.TopK,
		genOpts: driven.GenerateOptions{
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
	}, nil
}

// Upload ingests a PDF with duplicate detection.
//
// Processing failures (extraction, empty document, embedding) are
// reported inside the result with Status == UploadError and a non-nil
// error wrapping the corresponding sentinel, so batch callers can keep
// going while programmatic callers can still match the cause.
func (e *Engine) Upload(ctx context.Context, filename string, data []byte, action domain.UploadAction) (domain.UploadResult, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return errResult(filename, "only PDF files are allowed"),
			fmt.Errorf("%w: %q is not a PDF", domain.ErrInvalidInput, filename)
	}

	hash := domain.Fingerprint(data)

	e.mu.Lock()
	defer e.mu.Unlock()

	existing := e.findByHash(hash)
	replacing := false

	if existing != nil {
		switch action {
		case domain.ActionAuto:
			logger.Debug("Duplicate content for %q already indexed as %q", filename, existing.Filename)
			return domain.UploadResult{
				Status:           domain.UploadDuplicate,
				Filename:         filename,
				Message:          fmt.Sprintf("Document already exists as %q", existing.Filename),
				ExistingFilename: existing.Filename,
				Hash:             hash,
				Options:          []domain.UploadAction{domain.ActionUseExisting, domain.ActionReplace, domain.ActionCancel},
			}, nil

		case domain.ActionUseExisting:
			return domain.UploadResult{
				Status:   domain.UploadSuccess,
				Filename: existing.Filename,
				Message:  "Using existing document embeddings",
				Reused:   true,
			}, nil

		case domain.ActionCancel:
			return domain.UploadResult{
				Status:   domain.UploadCancelled,
				Filename: filename,
				Message:  "Upload cancelled",
			}, nil

		case domain.ActionReplace:
			replacing = true
		}
	}

	pages, err := e.extractor.Extract(ctx, data)
	if err != nil {
		return errResult(filename, fmt.Sprintf("Error processing document: %v", err)),
			fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	var chunks []domain.Chunk
	numPages := 0
	for _, page := range pages {
		chunks = append(chunks, e.chunker.SplitPage(page, filename)...)
		if page.Number > numPages {
			numPages = page.Number
		}
	}
	if len(chunks) == 0 {
		return errResult(filename, "No text could be extracted from PDF"), domain.ErrEmptyDocument
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return errResult(filename, fmt.Sprintf("Error embedding document: %v", err)),
			fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	if len(vectors) != len(chunks) {
		return errResult(filename, "Embedding service returned a short batch"),
			fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbedding, len(vectors), len(chunks))
	}

	records := make([]index.Record, len(chunks))
	for i := range chunks {
		records[i] = index.Record{Chunk: chunks[i], Vector: vectors[i]}
	}

	// Stage the mutation; live state is only replaced after a
	// successful save.
	docs, idx := e.stage()
	if replacing {
		removed := idx.RemoveWhere(func(c domain.Chunk) bool { return c.Source != existing.Filename })
		delete(docs, existing.ID)
		logger.Debug("Replacing %q: removed %d chunks", existing.Filename, removed)
	}

	if _, err := idx.Append(records); err != nil {
		return errResult(filename, fmt.Sprintf("Error indexing document: %v", err)), err
	}

	doc := domain.Document{
		ID:         uuid.New().String(),
		Filename:   filename,
		Hash:       hash,
		UploadedAt: time.Now().UTC(),
		NumChunks:  len(records),
		NumPages:   numPages,
	}
	docs[doc.ID] = doc

	if err := e.save(ctx, docs, idx); err != nil {
		return errResult(filename, "Failed to persist document"), err
	}
	e.documents, e.idx = docs, idx

	logger.Info("Indexed %q: %d chunks over %d pages", filename, doc.NumChunks, doc.NumPages)

	return domain.UploadResult{
		Status:   domain.UploadSuccess,
		Filename: filename,
		Message:  "Document processed successfully",
		Chunks:   doc.NumChunks,
		Pages:    doc.NumPages,
	}, nil
}

// Ask answers a question from the indexed corpus.
func (e *Engine) Ask(ctx context.Context, question string, topK int) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, fmt.Errorf("%w: question cannot be empty", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = e.topK
	}

	if e.corpusEmpty() {
		return domain.Answer{Answer: noDocumentsAnswer, Sources: []domain.Source{}}, nil
	}

	query, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}

	e.mu.RLock()
	hits, err := e.idx.Search(query, topK)
	e.mu.RUnlock()
	if err != nil {
		return domain.Answer{}, err
	}
	if len(hits) == 0 {
		return domain.Answer{Answer: noContextAnswer, Sources: []domain.Source{}}, nil
	}

	logger.Debug("Retrieved %d chunks for question (best distance %.4f)", len(hits), hits[0].Distance)

	answer, err := e.llm.Generate(ctx, buildPrompt(question, hits), e.genOpts)
	if err != nil {
		// Degrade to a textual error rather than failing the query.
		logger.Warn("Answer generation failed: %v", err)
		answer = fmt.Sprintf("Error generating answer: %v", err)
	}

	return domain.Answer{
		Answer:     answer,
		Sources:    uniqueSources(hits),
		ChunksUsed: len(hits),
	}, nil
}

// Delete removes a document, its chunks and its vectors. The returned
// message is suitable for display to the caller.
func (e *Engine) Delete(ctx context.Context, docID string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, ok := e.documents[docID]
	if !ok {
		return "", fmt.Errorf("%w: document %s", domain.ErrNotFound, docID)
	}

	docs, idx := e.stage()
	removed := idx.RemoveWhere(func(c domain.Chunk) bool { return c.Source != doc.Filename })
	delete(docs, docID)

	if err := e.save(ctx, docs, idx); err != nil {
		return "", err
	}
	e.documents, e.idx = docs, idx

	logger.Info("Deleted %q (%d chunks removed)", doc.Filename, removed)
	return fmt.Sprintf("Document %q deleted successfully", doc.Filename), nil
}

// Documents lists registered documents ordered by upload time, oldest
// first, with ID as tiebreaker.
func (e *Engine) Documents(_ context.Context) []domain.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()

	docs := make([]domain.Document, 0, len(e.documents))
	for _, d := range e.documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.Before(docs[j].UploadedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs
}

// Stats reports corpus and index statistics.
func (e *Engine) Stats(_ context.Context) domain.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return domain.Stats{
		TotalDocuments:     len(e.documents),
		TotalChunks:        e.idx.Len(),
		IndexSize:          e.idx.Len(),
		EmbeddingModel:     e.embedder.ModelName(),
		EmbeddingDimension: e.embedder.Dimensions(),
	}
}

// stage returns clones of the registry and arena for a staged mutation.
// Caller must hold the write lock.
func (e *Engine) stage() (map[string]domain.Document, *index.Flat) {
	docs := make(map[string]domain.Document, len(e.documents)+1)
	for id, d := range e.documents {
		docs[id] = d
	}
	return docs, e.idx.Clone()
}

// save persists a staged state. Caller must hold the write lock.
func (e *Engine) save(ctx context.Context, docs map[string]domain.Document, idx *index.Flat) error {
	err := e.store.Save(ctx, &driven.EngineState{Documents: docs, Index: idx})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// findByHash scans the registry for a document with the given content
// hash. Caller must hold at least the read lock.
func (e *Engine) findByHash(hash string) *domain.Document {
	for _, d := range e.documents {
		if d.Hash == hash {
			doc := d
			return &doc
		}
	}
	return nil
}

func (e *Engine) corpusEmpty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.documents) == 0
}

func errResult(filename, message string) domain.UploadResult {
	return domain.UploadResult{
		Status:   domain.UploadError,
		Filename: filename,
		Message:  message,
	}
}

func buildPrompt(question string, hits []index.Hit) string {
	var b strings.Builder
	b.WriteString(answerInstructions)
	b.WriteString("\n\nCONTEXT:\n")
	for i, h := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Source: %s, Page %d]\n%s", h.Record.Chunk.Source, h.Record.Chunk.Page, h.Record.Chunk.Text)
	}
	b.WriteString("\n\nQUESTION:\n")
	b.WriteString(question)
	b.WriteString("\n\nANSWER:")
	return b.String()
}

func uniqueSources(hits []index.Hit) []domain.Source {
	sources := make([]domain.Source, 0, len(hits))
	seen := make(map[domain.Source]struct{}, len(hits))
	for _, h := range hits {
		s := domain.Source{File: h.Record.Chunk.Source, Page: h.Record.Chunk.Page}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		sources = append(sources, s)
	}
	return sources
}
