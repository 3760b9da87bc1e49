// Package embed implements the Embedder capability (spec §6): a small,
// swappable interface for turning text into dense vectors of the
// store's configured dimension D.
package embed

import (
	"context"
	"math"
	"time"
)

const (
	// MinBatchSize is the minimum allowed batch size.
	MinBatchSize = 1

	// MaxBatchSize is the largest batch size this package declares; the
	// embedders here do not enforce it.
	MaxBatchSize = 256

	// DefaultBatchSize is used when a caller doesn't chunk its own batches.
	DefaultBatchSize = 32

	// DefaultTimeout bounds a single embed/embed-batch call.
	DefaultTimeout = 30 * time.Second

	// DefaultConnectTimeout bounds the embedder's initial health check.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultMaxRetries is the default number of retry attempts on
	// transient failures.
	DefaultMaxRetries = 3

	// OllamaPoolSize is the default HTTP connection pool size for the
	// Ollama embedder.
	OllamaPoolSize = 10

	// StaticDimensions is the embedding dimension produced by the
	// deterministic fallback embedder.
	StaticDimensions = 256

	// DefaultDimensions is used when an HTTP embedder's dimension can't
	// be auto-detected (SkipHealthCheck or a degenerate response).
	DefaultDimensions = 768
)

// Embedder is the capability-shaped contract spec §9 "Dynamic dispatch"
// asks for: a test double or alternative backend can stand in for it
// without C3-C5 noticing. A failing embedder returns
// syntonerr.EmbedderUnavailable; callers degrade to text search rather
// than aborting (spec §4.5.6).
type Embedder interface {
	// Embed returns a Dimension()-length vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension is the store-wide D this embedder produces.
	Dimension() int

	// ModelName identifies the backend/model for logging and stats.
	ModelName() string

	// Available reports whether the embedder is currently usable.
	Available(ctx context.Context) bool

	// Close releases any held resources (connections, caches).
	Close() error
}

// normalizeVector scales v to unit length; zero vectors pass through
// unchanged.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
