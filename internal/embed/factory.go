package embed

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/synton-db/syntondb/internal/syntonerr"
)

// ProviderType names an embedding backend.
type ProviderType string

const (
	// ProviderOllama calls a local/remote Ollama instance over HTTP.
	ProviderOllama ProviderType = "ollama"

	// ProviderStatic uses the deterministic hash-based embedder — the
	// degraded-mode fallback spec §4.5.6 describes, and the default in
	// tests.
	ProviderStatic ProviderType = "static"
)

// NewEmbedder builds an Embedder for provider, honoring the
// SYNTONDB_EMBEDDER environment override, and wraps it with an LRU
// cache unless SYNTONDB_EMBED_CACHE disables it.
//
// dimension is the store's configured D (spec §4.3): for static it sets
// the output width directly; for Ollama it's passed through as
// OllamaConfig.Dimension so a configured D skips auto-detection.
func NewEmbedder(ctx context.Context, provider ProviderType, model string, dimension int) (Embedder, error) {
	if envProvider := os.Getenv("SYNTONDB_EMBEDDER"); envProvider != "" {
		provider = ParseProvider(envProvider)
	}

	var embedder Embedder
	var err error
	switch provider {
	case ProviderStatic:
		embedder = NewStaticEmbedder(dimension)
	default:
		embedder, err = newOllamaEmbedder(ctx, model, dimension)
	}
	if err != nil {
		return nil, err
	}

	if !isCacheDisabled() {
		embedder = NewCachedEmbedderWithDefaults(embedder)
	}
	return embedder, nil
}

func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("SYNTONDB_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off" || v == "disabled"
}

func newOllamaEmbedder(ctx context.Context, model string, dimension int) (Embedder, error) {
	cfg := DefaultOllamaConfig()
	if model != "" {
		cfg.Model = model
	}
	cfg.Dimension = dimension

	if host := os.Getenv("SYNTONDB_OLLAMA_HOST"); host != "" {
		cfg.Host = host
	}
	if modelOverride := os.Getenv("SYNTONDB_OLLAMA_MODEL"); modelOverride != "" {
		cfg.Model = modelOverride
	}
	if timeoutStr := os.Getenv("SYNTONDB_OLLAMA_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			cfg.Timeout = timeout
		}
	}

	embedder, err := NewOllamaEmbedder(ctx, cfg)
	if err != nil {
		return nil, syntonerr.Wrap(syntonerr.EmbedderUnavailable, "ollama embedder unavailable, use --embedder=static instead", err)
	}
	return embedder, nil
}

// ParseProvider converts a string to a ProviderType, defaulting to
// static for anything unrecognized (the safe, network-free choice).
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(s) {
	case "ollama":
		return ProviderOllama
	case "static":
		return ProviderStatic
	default:
		return ProviderStatic
	}
}

func (p ProviderType) String() string { return string(p) }

// ValidProviders lists all accepted provider names.
func ValidProviders() []string {
	return []string{string(ProviderOllama), string(ProviderStatic)}
}

// IsValidProvider reports whether s names a known provider.
func IsValidProvider(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range ValidProviders() {
		if lower == p {
			return true
		}
	}
	return false
}

// EmbedderInfo summarizes a constructed embedder for stats/diagnostics.
type EmbedderInfo struct {
	Provider  ProviderType
	Model     string
	Dimension int
	Available bool
}

// GetInfo inspects embedder, unwrapping a CachedEmbedder to classify the
// underlying provider.
func GetInfo(ctx context.Context, embedder Embedder) EmbedderInfo {
	info := EmbedderInfo{
		Model:     embedder.ModelName(),
		Dimension: embedder.Dimension(),
		Available: embedder.Available(ctx),
	}

	inner := embedder
	if cached, ok := embedder.(*CachedEmbedder); ok {
		inner = cached.Inner()
	}

	switch inner.(type) {
	case *OllamaEmbedder:
		info.Provider = ProviderOllama
	default:
		info.Provider = ProviderStatic
	}
	return info
}
