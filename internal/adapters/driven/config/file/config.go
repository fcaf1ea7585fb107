// Package file loads application configuration from a TOML file.
//
// Configuration lives in ~/.ragdex/config.toml by default. API keys
// are never read from the file; they come from the environment
// (GEMINI_API_KEY, OPENAI_API_KEY), optionally via a .env file loaded
// at startup.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ragdex/internal/core/domain"
)

// Default configuration values.
const (
	DefaultHost       = "0.0.0.0"
	DefaultPort       = 8000
	DefaultProvider   = "ollama"
	DefaultWindowSize = 200
	DefaultOverlap    = 50
	DefaultTopK       = 5
)

// Config is the application configuration tree.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Watch     WatchConfig     `toml:"watch"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig configures on-disk persistence.
type StorageConfig struct {
	// Dir is the storage root. Empty means ~/.ragdex/storage.
	Dir string `toml:"dir"`
}

// ChunkingConfig configures document splitting.
type ChunkingConfig struct {
	WindowSize int `toml:"window_size"`
	Overlap    int `toml:"overlap"`
}

// RetrievalConfig configures answer retrieval.
type RetrievalConfig struct {
	TopK int `toml:"top_k"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	// Provider selects the embedding backend: "ollama" or "openai".
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url"`
	Model    string `toml:"model"`
	// Dimensions overrides the provider's default vector size.
	Dimensions        int     `toml:"dimensions"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	BurstSize         int     `toml:"burst_size"`

	// APIKey is populated from the environment, never from the file.
	APIKey string `toml:"-"`
}

// LLMConfig configures the answer generation model.
type LLMConfig struct {
	BaseURL           string  `toml:"base_url"`
	Model             string  `toml:"model"`
	MaxTokens         int     `toml:"max_tokens"`
	Temperature       float64 `toml:"temperature"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	BurstSize         int     `toml:"burst_size"`

	// APIKey is populated from the environment, never from the file.
	APIKey string `toml:"-"`
}

// WatchConfig configures the ingestion drop directory.
type WatchConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".ragdex", "config.toml"), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Host: DefaultHost, Port: DefaultPort},
		Chunking:  ChunkingConfig{WindowSize: DefaultWindowSize, Overlap: DefaultOverlap},
		Retrieval: RetrievalConfig{TopK: DefaultTopK},
		Embedding: EmbeddingConfig{Provider: DefaultProvider},
	}
}

// Load reads the configuration at path, or the default location when
// path is empty. A missing file yields the defaults. API keys are
// filled in from the environment either way.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidConfiguration, path, err)
		}
	}

	cfg.applyDefaults()
	cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")

	return cfg, cfg.validate()
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Chunking.WindowSize == 0 {
		c.Chunking.WindowSize = DefaultWindowSize
	}
	if c.Chunking.Overlap == 0 && c.Chunking.WindowSize == DefaultWindowSize {
		c.Chunking.Overlap = DefaultOverlap
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = DefaultTopK
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = DefaultProvider
	}
}

func (c *Config) validate() error {
	switch c.Embedding.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidConfiguration, c.Embedding.Provider)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", domain.ErrInvalidConfiguration, c.Server.Port)
	}
	return nil
}

// WriteDefault writes a commented starter config to path, creating
// parent directories. Existing files are left untouched.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := toml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
