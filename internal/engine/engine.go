// Package engine wires C1-C6 into the single constructed value spec §9
// ("Global state... no process-wide mutable singletons... configuration
// supplied at construction") calls for, and exposes exactly the
// operations spec §6 lists to a transport layer: node/edge CRUD,
// ingest_document, query, traverse, stats, export/import.
package engine

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/synton-db/syntondb/internal/chunk"
	"github.com/synton-db/syntondb/internal/config"
	"github.com/synton-db/syntondb/internal/decay"
	"github.com/synton-db/syntondb/internal/embed"
	"github.com/synton-db/syntondb/internal/graph"
	"github.com/synton-db/syntondb/internal/kvstore"
	"github.com/synton-db/syntondb/internal/retrieval"
	"github.com/synton-db/syntondb/internal/syntonerr"
	"github.com/synton-db/syntondb/internal/vector"
)

// Engine owns every sub-component and is the only way a caller reaches
// them. It is a value, not a package-level singleton: two Engines over
// two data directories coexist without interfering (spec §9).
type Engine struct {
	cfg     *config.Config
	dataDir string

	kv       *kvstore.Store
	vec      vector.Index
	embedder embed.Embedder

	Graph     *graph.Store
	Memory    *decay.Manager
	planner   *retrieval.Planner
	executor  *retrieval.Executor
	chunkers  map[string]chunk.Chunker
	hierarchy *chunk.HierarchicalChunker

	logger *slog.Logger
}

// Option customizes Open.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	embedder embed.Embedder // override, mainly for tests
}

// WithLogger overrides the default slog.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEmbedder overrides the Embedder capability constructed from cfg —
// chiefly for tests that want a deterministic embedder without touching
// the environment-variable auto-detection in embed.NewEmbedder.
func WithEmbedder(e embed.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// Open constructs an Engine rooted at dataDir: it opens C1, builds C2,
// reconciles the two (spec §5 crash recovery — "rebuild any C2 entries
// present in nodes.embedding but missing from C2, or vice versa — drop
// orphans"), then wires C3-C6 on top. This reconciliation runs to
// completion before Open returns, so the engine never accepts a write
// against an inconsistent index.
func Open(ctx context.Context, dataDir string, cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	kvCfg := kvstore.DefaultConfig()
	kvCfg.CacheSizeBytes = cfg.Store.CacheSizeBytes
	kvCfg.MaxOpenFiles = cfg.Store.MaxOpenFiles
	kvCfg.Compression = cfg.Store.Compression
	kvCfg.NoSync = cfg.Store.NoSync

	dbPath := filepath.Join(dataDir, "syntondb.db")
	kv, err := kvstore.Open(dbPath, kvCfg)
	if err != nil {
		return nil, err
	}

	// Pin/validate the store-wide constants (D, schema version) and pick
	// up any persisted decay-parameter hot-update before wiring anything
	// that depends on them.
	cfg, err = initMetadata(kv, cfg)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	vecCfg := vector.Config{
		Dimension:      cfg.Vector.Dimension,
		Type:           vector.IndexType(cfg.Vector.Type),
		M:              cfg.Vector.M,
		EfConstruction: cfg.Vector.EfConstruction,
		EfSearch:       cfg.Vector.EfSearch,
		NList:          cfg.Vector.NList,
		NProbe:         cfg.Vector.NProbe,
		AutoThreshold:  cfg.Vector.AutoThreshold,
	}
	vec, err := vector.New(vecCfg)
	if err != nil {
		_ = kv.Close()
		return nil, syntonerr.Wrap(syntonerr.Storage, "build vector index", err)
	}

	graphStore := graph.NewStore(kv, vec)

	if err := reconcileVectorIndex(ctx, graphStore, vec); err != nil {
		_ = kv.Close()
		_ = vec.Close()
		return nil, err
	}

	embedder := o.embedder
	if embedder == nil {
		embedder, err = buildEmbedder(ctx, cfg)
		if err != nil {
			o.logger.Warn("embedder unavailable at startup, queries will degrade to text search", "error", err)
			embedder = nil
		}
	}

	memory := decay.NewManager(graphStore, decay.Config{
		Model:              decay.Model(cfg.Decay.Model),
		ScaleDays:          cfg.Decay.ScaleDays,
		Alpha:              cfg.Decay.Alpha,
		LinearHorizonDays:  cfg.Decay.LinearHorizonDays,
		Boost:              cfg.Decay.Boost,
		RetentionThreshold: cfg.Decay.RetentionThreshold,
	})

	planner := retrieval.NewPlanner(retrieval.PlannerConfig{
		Alpha:         cfg.Fusion.Alpha,
		Beta:          cfg.Fusion.Beta,
		DefaultKSeeds: cfg.Fusion.DefaultKSeeds,
		DefaultLimit:  cfg.Fusion.DefaultLimit,
	})
	executor := retrieval.NewExecutor(graphStore, vec, embedder, memory,
		retrieval.ExecutorConfig{NodeLimit: cfg.Fusion.NodeLimit}, o.logger)

	chunkers, hierarchy := buildChunkers(cfg, embedder)

	return &Engine{
		cfg:       cfg,
		dataDir:   dataDir,
		kv:        kv,
		vec:       vec,
		embedder:  embedder,
		Graph:     graphStore,
		Memory:    memory,
		planner:   planner,
		executor:  executor,
		chunkers:  chunkers,
		hierarchy: hierarchy,
		logger:    o.logger,
	}, nil
}

// buildEmbedder constructs the Embedder capability named by
// cfg.Embeddings.Provider, falling back to the D configured on
// cfg.Vector.Dimension when Embeddings.Dimensions is unset.
func buildEmbedder(ctx context.Context, cfg *config.Config) (embed.Embedder, error) {
	dim := cfg.Embeddings.Dimensions
	if dim <= 0 {
		dim = cfg.Vector.Dimension
	}
	provider := embed.ParseProvider(cfg.Embeddings.Provider)
	if cfg.Embeddings.Provider == "" {
		provider = embed.ProviderStatic
	}
	return embed.NewEmbedder(ctx, provider, cfg.Embeddings.Model, dim)
}

func buildChunkers(cfg *config.Config, embedder embed.Embedder) (map[string]chunk.Chunker, *chunk.HierarchicalChunker) {
	fixed := chunk.NewFixedChunker(chunk.FixedChunkerOptions{
		MaxChunkSize:    cfg.Chunking.MaxChunkSize,
		Overlap:         cfg.Chunking.Overlap,
		ToleranceWindow: cfg.Chunking.ToleranceWindow,
	})
	semanticOpts := chunk.DefaultSemanticChunkerOptions()
	semanticOpts.MaxChunkSize = cfg.Chunking.MaxChunkSize
	semanticOpts.MinChunkSize = cfg.Chunking.MinChunkSize
	semanticOpts.MergeThreshold = cfg.Chunking.BoundaryThreshold
	semantic := chunk.NewSemanticChunker(semanticOpts, embedder)

	hierarchy := chunk.NewHierarchicalChunker(chunk.HierarchicalChunkerOptions{
		SummaryLength: cfg.Chunking.SummaryLength,
		Semantic:      semanticOpts,
	}, embedder)

	codeAware := chunk.NewCodeAwareChunker(chunk.CodeAwareChunkerOptions{
		MaxChunkSize: cfg.Chunking.MaxChunkSize,
		Overlap:      cfg.Chunking.Overlap,
	})

	return map[string]chunk.Chunker{
		"fixed":        fixed,
		"semantic":     semantic,
		"hierarchical": hierarchy, // satisfies Chunker via Chunk(); ChunkHierarchical used directly by IngestDocument
		"code_aware":   codeAware,
	}, hierarchy
}

// reconcileVectorIndex implements spec §5's crash-recovery pass: every
// node whose Embedding is non-nil must have a matching C2 entry, and
// every C2 entry must correspond to a node that still carries an
// embedding; anything else is repaired or dropped. It runs once, before
// Open returns, so no write is accepted against an inconsistent index.
func reconcileVectorIndex(ctx context.Context, store *graph.Store, vec vector.Index) error {
	seen := make(map[string]bool)
	err := store.ScanNodes(ctx, func(n *graph.Node) error {
		seen[n.ID.String()] = true
		hasVec := vec.Contains(n.ID.String())
		switch {
		case n.Embedding != nil && !hasVec:
			return vec.Insert(ctx, n.ID.String(), n.Embedding)
		case n.Embedding == nil && hasVec:
			return vec.Remove(ctx, n.ID.String())
		}
		return nil
	})
	if err != nil {
		return syntonerr.Wrap(syntonerr.Storage, "reconcile vector index", err)
	}
	return nil
}

// Close releases every owned resource.
func (e *Engine) Close() error {
	var firstErr error
	if e.embedder != nil {
		if err := e.embedder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := e.vec.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.kv.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() *config.Config { return e.cfg }
