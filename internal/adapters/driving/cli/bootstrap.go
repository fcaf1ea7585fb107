package cli

import (
	"context"
	"errors"
	"fmt"

	cfgfile "github.com/custodia-labs/ragdex/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragdex/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/ragdex/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragdex/internal/adapters/driven/extractor/poppler"
	"github.com/custodia-labs/ragdex/internal/adapters/driven/llm/gemini"
	"github.com/custodia-labs/ragdex/internal/adapters/driven/ratelimit"
	storage "github.com/custodia-labs/ragdex/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/ragdex/internal/core/ports/driven"
	"github.com/custodia-labs/ragdex/internal/core/services"
)

// loadConfig reads the config honouring the --config flag.
func loadConfig() (*cfgfile.Config, error) {
	return cfgfile.Load(configPath)
}

// buildEngine assembles all driven adapters and constructs the engine.
// It blocks on the embedding service ping and the state load, so
// callers run it behind the lifecycle handle.
func buildEngine(ctx context.Context, cfg *cfgfile.Config) (*services.Engine, error) {
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.LLM.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required (set it in the environment or a .env file)")
	}
	llm, err := gemini.NewLLMService(gemini.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Limiter: limiterFor(cfg.LLM.RequestsPerSecond, cfg.LLM.BurstSize),
	})
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.Storage.Dir, embedder.Dimensions())
	if err != nil {
		return nil, err
	}

	return services.NewEngine(ctx, services.Config{
		ChunkWindow:  cfg.Chunking.WindowSize,
		ChunkOverlap: cfg.Chunking.Overlap,
		TopK:         cfg.Retrieval.TopK,
		MaxTokens:    cfg.LLM.MaxTokens,
		Temperature:  cfg.LLM.Temperature,
	}, poppler.New(), embedder, llm, store)
}

func buildEmbedder(cfg *cfgfile.Config) (driven.EmbeddingService, error) {
	limiter := limiterFor(cfg.Embedding.RequestsPerSecond, cfg.Embedding.BurstSize)
	switch cfg.Embedding.Provider {
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Limiter:    limiter,
		}), nil
	case "openai":
		if cfg.Embedding.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required for the openai embedding provider")
		}
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Limiter:    limiter,
		})
	}
	return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
}

// limiterFor returns nil (unlimited) when no rate is configured.
func limiterFor(rps float64, burst int) *ratelimit.Limiter {
	if rps <= 0 {
		return nil
	}
	return ratelimit.New(ratelimit.Config{RequestsPerSecond: rps, BurstSize: burst})
}
