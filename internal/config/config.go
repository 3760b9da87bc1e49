// Package config implements SYNTON-DB's layered configuration: hardcoded
// defaults, a user-global YAML file, a per-store project YAML file, then
// SYNTONDB_* environment variables, each layer overriding the last (spec
// §6's "a configuration object specifying D, decay model/scale, retention
// threshold, boost, and index tuning parameters").
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete SYNTON-DB configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Store      StoreConfig      `yaml:"store" json:"store"`
	Vector     VectorConfig     `yaml:"vector" json:"vector"`
	Decay      DecayConfig      `yaml:"decay" json:"decay"`
	Fusion     FusionConfig     `yaml:"fusion" json:"fusion"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Chunking   ChunkingConfig   `yaml:"chunking" json:"chunking"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// StoreConfig configures the KV store (C1, spec §4.1).
type StoreConfig struct {
	DataDir        string `yaml:"data_dir" json:"data_dir"`
	CacheSizeBytes int64  `yaml:"cache_size_bytes" json:"cache_size_bytes"`
	MaxOpenFiles   int    `yaml:"max_open_files" json:"max_open_files"`
	Compression    string `yaml:"compression" json:"compression"` // "lz4" (default), "none"
	NoSync         bool   `yaml:"no_sync" json:"no_sync"`
}

// VectorConfig configures the vector index (C2, spec §4.2). Dimension is
// the store-wide D every node's embedding (if present) must match (spec
// §3).
type VectorConfig struct {
	Dimension int    `yaml:"dimension" json:"dimension"`
	Type      string `yaml:"type" json:"type"` // flat | hnsw | ivf | auto

	M              int `yaml:"m" json:"m"`
	EfConstruction int `yaml:"ef_construction" json:"ef_construction"`
	EfSearch       int `yaml:"ef_search" json:"ef_search"`

	NList  int `yaml:"nlist" json:"nlist"`
	NProbe int `yaml:"nprobe" json:"nprobe"`

	AutoThreshold int `yaml:"auto_threshold" json:"auto_threshold"`
}

// DecayConfig configures the Memory Manager (C4, spec §4.4).
type DecayConfig struct {
	Model              string  `yaml:"model" json:"model"` // exponential | power_law | linear
	ScaleDays          float64 `yaml:"scale_days" json:"scale_days"`
	Alpha              float64 `yaml:"alpha" json:"alpha"`
	LinearHorizonDays  float64 `yaml:"linear_horizon_days" json:"linear_horizon_days"`
	Boost              float64 `yaml:"boost" json:"boost"`
	RetentionThreshold float64 `yaml:"retention_threshold" json:"retention_threshold"`
}

// FusionConfig configures the Retrieval Engine's planner defaults (C5,
// spec §4.5.2/4.5.3).
type FusionConfig struct {
	Alpha         float64 `yaml:"alpha" json:"alpha"`
	Beta          float64 `yaml:"beta" json:"beta"`
	DefaultKSeeds int     `yaml:"default_k_seeds" json:"default_k_seeds"`
	DefaultLimit  int     `yaml:"default_limit" json:"default_limit"`
	DefaultHops   int     `yaml:"default_hops" json:"default_hops"`
	NodeLimit     int     `yaml:"node_limit" json:"node_limit"`
}

// EmbeddingsConfig configures the Embedder capability (spec §6).
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider" json:"provider"` // "" (static), "static", "ollama"
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`
	CacheSize  int    `yaml:"cache_size" json:"cache_size"`
	MaxRetries int    `yaml:"max_retries" json:"max_retries"`
}

// ChunkingConfig configures the Chunker (C6, spec §4.6).
type ChunkingConfig struct {
	Strategy          string  `yaml:"strategy" json:"strategy"` // fixed | semantic | hierarchical | code_aware
	MaxChunkSize      int     `yaml:"max_chunk_size" json:"max_chunk_size"`
	MinChunkSize      int     `yaml:"min_chunk_size" json:"min_chunk_size"`
	Overlap           int     `yaml:"overlap" json:"overlap"`
	ToleranceWindow   int     `yaml:"tolerance_window" json:"tolerance_window"`
	BoundaryThreshold float64 `yaml:"boundary_threshold" json:"boundary_threshold"`
	SummaryLength     int     `yaml:"summary_length" json:"summary_length"`
}

// LoggingConfig configures structured log output (ambient stack, carried
// regardless of spec.md's transport/observability Non-goals).
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// NewConfig returns a Config populated with spec-reasonable defaults:
// decay scale 20 days, retention threshold 0.1, boost 0.5, fusion
// α=0.7/β=0.3 (spec §4.4/§4.5.2).
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Store: StoreConfig{
			DataDir:        defaultDataDir(),
			CacheSizeBytes: 64 << 20,
			MaxOpenFiles:   256,
			Compression:    "lz4",
			NoSync:         false,
		},
		Vector: VectorConfig{
			Dimension:      768,
			Type:           "auto",
			M:              16,
			EfConstruction: 128,
			EfSearch:       64,
			NList:          64,
			NProbe:         8,
			AutoThreshold:  1000,
		},
		Decay: DecayConfig{
			Model:              "exponential",
			ScaleDays:          20,
			Alpha:              0.5,
			LinearHorizonDays:  60,
			Boost:              0.5,
			RetentionThreshold: 0.1,
		},
		Fusion: FusionConfig{
			Alpha:         0.7,
			Beta:          0.3,
			DefaultKSeeds: 10,
			DefaultLimit:  20,
			DefaultHops:   1,
			NodeLimit:     500,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "", // empty selects the static embedder
			Model:      "nomic-embed-text",
			Dimensions: 0, // 0 means "inherit Vector.Dimension"
			BatchSize:  32,
			OllamaHost: "",
			CacheSize:  1000,
			MaxRetries: 3,
		},
		Chunking: ChunkingConfig{
			Strategy:          "hierarchical",
			MaxChunkSize:      2000,
			MinChunkSize:      200,
			Overlap:           250,
			ToleranceWindow:   80,
			BoundaryThreshold: 0.3,
			SummaryLength:     500,
		},
		Logging: LoggingConfig{
			Level:    "info",
			FilePath: "",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".syntondb", "data")
	}
	return filepath.Join(home, ".syntondb", "data")
}

// GetUserConfigPath returns the user/global configuration path, following
// the XDG Base Directory spec:
//   - $XDG_CONFIG_HOME/syntondb/config.yaml (if set)
//   - ~/.config/syntondb/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "syntondb", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "syntondb", "config.yaml")
	}
	return filepath.Join(home, ".config", "syntondb", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if present.
func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", path, err)
	}
	return cfg, nil
}

// LoadUserConfig loads the user configuration file, or (nil, nil) if it
// doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// Load builds a Config for a store rooted at dir, applying in order of
// increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/syntondb/config.yaml)
//  3. Store-local config (.syntondb.yaml in dir)
//  4. SYNTONDB_* environment variables
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromFile loads .syntondb.yaml or .syntondb.yml from dir, if present.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".syntondb.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}
	ymlPath := filepath.Join(dir, ".syntondb.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges other's non-zero fields into c, later layers winning.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Store.DataDir != "" {
		c.Store.DataDir = other.Store.DataDir
	}
	if other.Store.CacheSizeBytes != 0 {
		c.Store.CacheSizeBytes = other.Store.CacheSizeBytes
	}
	if other.Store.MaxOpenFiles != 0 {
		c.Store.MaxOpenFiles = other.Store.MaxOpenFiles
	}
	if other.Store.Compression != "" {
		c.Store.Compression = other.Store.Compression
	}
	if other.Store.NoSync {
		c.Store.NoSync = other.Store.NoSync
	}

	if other.Vector.Dimension != 0 {
		c.Vector.Dimension = other.Vector.Dimension
	}
	if other.Vector.Type != "" {
		c.Vector.Type = other.Vector.Type
	}
	if other.Vector.M != 0 {
		c.Vector.M = other.Vector.M
	}
	if other.Vector.EfConstruction != 0 {
		c.Vector.EfConstruction = other.Vector.EfConstruction
	}
	if other.Vector.EfSearch != 0 {
		c.Vector.EfSearch = other.Vector.EfSearch
	}
	if other.Vector.NList != 0 {
		c.Vector.NList = other.Vector.NList
	}
	if other.Vector.NProbe != 0 {
		c.Vector.NProbe = other.Vector.NProbe
	}
	if other.Vector.AutoThreshold != 0 {
		c.Vector.AutoThreshold = other.Vector.AutoThreshold
	}

	if other.Decay.Model != "" {
		c.Decay.Model = other.Decay.Model
	}
	if other.Decay.ScaleDays != 0 {
		c.Decay.ScaleDays = other.Decay.ScaleDays
	}
	if other.Decay.Alpha != 0 {
		c.Decay.Alpha = other.Decay.Alpha
	}
	if other.Decay.LinearHorizonDays != 0 {
		c.Decay.LinearHorizonDays = other.Decay.LinearHorizonDays
	}
	if other.Decay.Boost != 0 {
		c.Decay.Boost = other.Decay.Boost
	}
	if other.Decay.RetentionThreshold != 0 {
		c.Decay.RetentionThreshold = other.Decay.RetentionThreshold
	}

	if other.Fusion.Alpha != 0 {
		c.Fusion.Alpha = other.Fusion.Alpha
	}
	if other.Fusion.Beta != 0 {
		c.Fusion.Beta = other.Fusion.Beta
	}
	if other.Fusion.DefaultKSeeds != 0 {
		c.Fusion.DefaultKSeeds = other.Fusion.DefaultKSeeds
	}
	if other.Fusion.DefaultLimit != 0 {
		c.Fusion.DefaultLimit = other.Fusion.DefaultLimit
	}
	if other.Fusion.DefaultHops != 0 {
		c.Fusion.DefaultHops = other.Fusion.DefaultHops
	}
	if other.Fusion.NodeLimit != 0 {
		c.Fusion.NodeLimit = other.Fusion.NodeLimit
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}
	if other.Embeddings.MaxRetries != 0 {
		c.Embeddings.MaxRetries = other.Embeddings.MaxRetries
	}

	if other.Chunking.Strategy != "" {
		c.Chunking.Strategy = other.Chunking.Strategy
	}
	if other.Chunking.MaxChunkSize != 0 {
		c.Chunking.MaxChunkSize = other.Chunking.MaxChunkSize
	}
	if other.Chunking.MinChunkSize != 0 {
		c.Chunking.MinChunkSize = other.Chunking.MinChunkSize
	}
	if other.Chunking.Overlap != 0 {
		c.Chunking.Overlap = other.Chunking.Overlap
	}
	if other.Chunking.ToleranceWindow != 0 {
		c.Chunking.ToleranceWindow = other.Chunking.ToleranceWindow
	}
	if other.Chunking.BoundaryThreshold != 0 {
		c.Chunking.BoundaryThreshold = other.Chunking.BoundaryThreshold
	}
	if other.Chunking.SummaryLength != 0 {
		c.Chunking.SummaryLength = other.Chunking.SummaryLength
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
}

// applyEnvOverrides applies SYNTONDB_* environment variable overrides,
// the highest-precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SYNTONDB_DATA_DIR"); v != "" {
		c.Store.DataDir = v
	}
	if v := os.Getenv("SYNTONDB_DIMENSION"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d > 0 {
			c.Vector.Dimension = d
		}
	}
	if v := os.Getenv("SYNTONDB_VECTOR_TYPE"); v != "" {
		c.Vector.Type = v
	}
	if v := os.Getenv("SYNTONDB_DECAY_MODEL"); v != "" {
		c.Decay.Model = v
	}
	if v := os.Getenv("SYNTONDB_DECAY_SCALE_DAYS"); v != "" {
		if f, err := parseFloat64(v); err == nil && f > 0 {
			c.Decay.ScaleDays = f
		}
	}
	if v := os.Getenv("SYNTONDB_RETENTION_THRESHOLD"); v != "" {
		if f, err := parseFloat64(v); err == nil && f >= 0 && f <= 1 {
			c.Decay.RetentionThreshold = f
		}
	}
	if v := os.Getenv("SYNTONDB_FUSION_ALPHA"); v != "" {
		if f, err := parseFloat64(v); err == nil && f >= 0 && f <= 1 {
			c.Fusion.Alpha = f
		}
	}
	if v := os.Getenv("SYNTONDB_FUSION_BETA"); v != "" {
		if f, err := parseFloat64(v); err == nil && f >= 0 && f <= 1 {
			c.Fusion.Beta = f
		}
	}
	if v := os.Getenv("SYNTONDB_EMBEDDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("SYNTONDB_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("SYNTONDB_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("SYNTONDB_EMBED_CACHE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Embeddings.CacheSize = n
		}
	}
	if v := os.Getenv("SYNTONDB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// parseFloat64 parses s as a float64.
func parseFloat64(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// FindProjectRoot walks up from startDir looking for a .git directory or
// a .syntondb.yaml/.yml file, falling back to startDir if neither is
// found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, ".syntondb.yaml")) ||
			fileExists(filepath.Join(currentDir, ".syntondb.yml")) {
			return currentDir, nil
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Validate checks the configuration for internal consistency, refusing
// values the engine could not act on (spec §7 InvalidArgument class).
func (c *Config) Validate() error {
	if c.Vector.Dimension <= 0 {
		return fmt.Errorf("vector.dimension must be positive, got %d", c.Vector.Dimension)
	}

	validVectorTypes := map[string]bool{"flat": true, "hnsw": true, "ivf": true, "auto": true}
	if !validVectorTypes[strings.ToLower(c.Vector.Type)] {
		return fmt.Errorf("vector.type must be one of flat/hnsw/ivf/auto, got %s", c.Vector.Type)
	}

	validDecayModels := map[string]bool{"exponential": true, "power_law": true, "linear": true}
	if !validDecayModels[strings.ToLower(c.Decay.Model)] {
		return fmt.Errorf("decay.model must be one of exponential/power_law/linear, got %s", c.Decay.Model)
	}
	if c.Decay.RetentionThreshold < 0 || c.Decay.RetentionThreshold > 1 {
		return fmt.Errorf("decay.retention_threshold must be between 0 and 1, got %f", c.Decay.RetentionThreshold)
	}
	if c.Decay.Boost < 0 {
		return fmt.Errorf("decay.boost must be non-negative, got %f", c.Decay.Boost)
	}

	if c.Fusion.Alpha < 0 || c.Fusion.Alpha > 1 {
		return fmt.Errorf("fusion.alpha must be between 0 and 1, got %f", c.Fusion.Alpha)
	}
	if c.Fusion.Beta < 0 || c.Fusion.Beta > 1 {
		return fmt.Errorf("fusion.beta must be between 0 and 1, got %f", c.Fusion.Beta)
	}
	if sum := c.Fusion.Alpha + c.Fusion.Beta; math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("fusion.alpha + fusion.beta must equal 1.0, got %.2f", sum)
	}

	if c.Embeddings.Provider != "" {
		validProviders := map[string]bool{"static": true, "ollama": true}
		if !validProviders[strings.ToLower(c.Embeddings.Provider)] {
			return fmt.Errorf("embeddings.provider must be 'static', 'ollama', or empty (static), got %s", c.Embeddings.Provider)
		}
	}

	validStrategies := map[string]bool{"fixed": true, "semantic": true, "hierarchical": true, "code_aware": true}
	if !validStrategies[strings.ToLower(c.Chunking.Strategy)] {
		return fmt.Errorf("chunking.strategy must be one of fixed/semantic/hierarchical/code_aware, got %s", c.Chunking.Strategy)
	}
	if c.Chunking.MaxChunkSize <= 0 {
		return fmt.Errorf("chunking.max_chunk_size must be positive, got %d", c.Chunking.MaxChunkSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeNewDefaults backfills zero-valued fields that a config file
// written against an older schema version would be missing, returning
// the list of fields that were defaulted in.
func (c *Config) MergeNewDefaults() []string {
	defaults := NewConfig()
	var added []string

	if c.Fusion.DefaultKSeeds == 0 {
		c.Fusion.DefaultKSeeds = defaults.Fusion.DefaultKSeeds
		added = append(added, "fusion.default_k_seeds")
	}
	if c.Fusion.DefaultLimit == 0 {
		c.Fusion.DefaultLimit = defaults.Fusion.DefaultLimit
		added = append(added, "fusion.default_limit")
	}
	if c.Fusion.NodeLimit == 0 {
		c.Fusion.NodeLimit = defaults.Fusion.NodeLimit
		added = append(added, "fusion.node_limit")
	}
	if c.Embeddings.CacheSize == 0 {
		c.Embeddings.CacheSize = defaults.Embeddings.CacheSize
		added = append(added, "embeddings.cache_size")
	}
	if c.Embeddings.MaxRetries == 0 {
		c.Embeddings.MaxRetries = defaults.Embeddings.MaxRetries
		added = append(added, "embeddings.max_retries")
	}
	if c.Chunking.SummaryLength == 0 {
		c.Chunking.SummaryLength = defaults.Chunking.SummaryLength
		added = append(added, "chunking.summary_length")
	}

	return added
}
