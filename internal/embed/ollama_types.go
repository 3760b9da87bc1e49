package embed

import "time"

const (
	// DefaultOllamaHost is the default Ollama API endpoint.
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOllamaModel is the default embedding model requested.
	DefaultOllamaModel = "nomic-embed-text"
)

// FallbackOllamaModels are tried in order if the primary model isn't
// pulled into the local Ollama instance.
var FallbackOllamaModels = []string{
	"mxbai-embed-large",
	"all-minilm",
}

// OllamaConfig configures the Ollama-backed embedder.
type OllamaConfig struct {
	// Host is the Ollama API endpoint.
	Host string

	// Model is the embedding model to request.
	Model string

	// FallbackModels are tried in order if Model isn't available.
	FallbackModels []string

	// Dimension overrides auto-detection (0 = auto-detect, and must then
	// match the store's configured D).
	Dimension int

	// BatchSize caps how many texts go in one EmbedBatch HTTP call.
	BatchSize int

	// Timeout bounds a single embed request.
	Timeout time.Duration

	// ConnectTimeout bounds the startup health check.
	ConnectTimeout time.Duration

	// MaxRetries for transient failures.
	MaxRetries int

	// PoolSize for the HTTP connection pool.
	PoolSize int

	// SkipHealthCheck skips the startup health check and model discovery
	// (used by tests that substitute a fake HTTP server without /api/tags).
	SkipHealthCheck bool
}

// DefaultOllamaConfig returns sensible defaults.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Host:           DefaultOllamaHost,
		Model:          DefaultOllamaModel,
		FallbackModels: FallbackOllamaModels,
		BatchSize:      DefaultBatchSize,
		Timeout:        DefaultTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		MaxRetries:     DefaultMaxRetries,
		PoolSize:       OllamaPoolSize,
	}
}

// OllamaEmbedRequest is the Ollama /api/embed request body.
type OllamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

// OllamaEmbedResponse is the Ollama /api/embed response body.
type OllamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// OllamaModelListResponse is the Ollama /api/tags response body.
type OllamaModelListResponse struct {
	Models []OllamaModelInfo `json:"models"`
}

// OllamaModelInfo describes one installed model.
type OllamaModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}
