package embed

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	assert.Equal(t, ProviderOllama, ParseProvider("ollama"))
	assert.Equal(t, ProviderOllama, ParseProvider("Ollama"))
	assert.Equal(t, ProviderStatic, ParseProvider("static"))
	assert.Equal(t, ProviderStatic, ParseProvider("unknown"))
}

func TestIsValidProvider(t *testing.T) {
	assert.True(t, IsValidProvider("ollama"))
	assert.True(t, IsValidProvider("STATIC"))
	assert.False(t, IsValidProvider("mlx"))
}

func TestNewEmbedder_StaticProviderWrappedInCache(t *testing.T) {
	embedder, err := NewEmbedder(context.Background(), ProviderStatic, "", 32)
	require.NoError(t, err)
	defer embedder.Close()

	_, ok := embedder.(*CachedEmbedder)
	assert.True(t, ok)
	assert.Equal(t, 32, embedder.Dimension())
}

func TestNewEmbedder_CacheDisabledByEnv(t *testing.T) {
	t.Setenv("SYNTONDB_EMBED_CACHE", "false")
	embedder, err := NewEmbedder(context.Background(), ProviderStatic, "", 16)
	require.NoError(t, err)
	defer embedder.Close()

	_, ok := embedder.(*CachedEmbedder)
	assert.False(t, ok)
}

func TestNewEmbedder_EnvOverridesProvider(t *testing.T) {
	os.Unsetenv("SYNTONDB_EMBED_CACHE")
	t.Setenv("SYNTONDB_EMBEDDER", "static")
	embedder, err := NewEmbedder(context.Background(), ProviderOllama, "", 16)
	require.NoError(t, err)
	defer embedder.Close()

	info := GetInfo(context.Background(), embedder)
	assert.Equal(t, ProviderStatic, info.Provider)
}

func TestGetInfo_UnwrapsCachedEmbedder(t *testing.T) {
	t.Setenv("SYNTONDB_EMBED_CACHE", "false")
	static := NewStaticEmbedder(16)
	cached := NewCachedEmbedderWithDefaults(static)

	info := GetInfo(context.Background(), cached)
	assert.Equal(t, ProviderStatic, info.Provider)
	assert.Equal(t, 16, info.Dimension)
}
