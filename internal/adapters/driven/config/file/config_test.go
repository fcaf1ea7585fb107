package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdex/internal/core/domain"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, DefaultWindowSize, cfg.Chunking.WindowSize)
	assert.Equal(t, DefaultOverlap, cfg.Chunking.Overlap)
	assert.Equal(t, DefaultTopK, cfg.Retrieval.TopK)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9000

[chunking]
window_size = 100
overlap = 25

[embedding]
provider = "openai"
model = "text-embedding-3-large"

[watch]
enabled = true
dir = "/srv/ragdex/inbox"
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, DefaultHost, cfg.Server.Host)
	assert.Equal(t, 100, cfg.Chunking.WindowSize)
	assert.Equal(t, 25, cfg.Chunking.Overlap)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedding.Model)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, "/srv/ragdex/inbox", cfg.Watch.Dir)
}

func TestLoad_APIKeysComeFromEnvironment(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("OPENAI_API_KEY", "oai-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "gem-key", cfg.LLM.APIKey)
	assert.Equal(t, "oai-key", cfg.Embedding.APIKey)
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[embedding]\nprovider = \"cohere\"\n"), 0600))

	_, err := Load(path)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestLoad_RejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport=1"), 0600))

	_, err := Load(path)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)

	// A second call leaves an existing file alone.
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 9999\n"), 0600))
	require.NoError(t, WriteDefault(path))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}
