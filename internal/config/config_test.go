package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Default configuration
// =============================================================================

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, 1, cfg.Version)

	assert.Equal(t, 768, cfg.Vector.Dimension)
	assert.Equal(t, "auto", cfg.Vector.Type)
	assert.Equal(t, 16, cfg.Vector.M)
	assert.Equal(t, 128, cfg.Vector.EfConstruction)
	assert.Equal(t, 64, cfg.Vector.EfSearch)
	assert.Equal(t, 1000, cfg.Vector.AutoThreshold)

	assert.Equal(t, "exponential", cfg.Decay.Model)
	assert.Equal(t, 20.0, cfg.Decay.ScaleDays)
	assert.Equal(t, 0.1, cfg.Decay.RetentionThreshold)
	assert.Equal(t, 0.5, cfg.Decay.Boost)

	assert.Equal(t, 0.7, cfg.Fusion.Alpha)
	assert.Equal(t, 0.3, cfg.Fusion.Beta)
	assert.Equal(t, 10, cfg.Fusion.DefaultKSeeds)
	assert.Equal(t, 20, cfg.Fusion.DefaultLimit)

	assert.Equal(t, "", cfg.Embeddings.Provider) // empty selects the static embedder
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.Model)
	assert.Equal(t, 0, cfg.Embeddings.Dimensions) // 0 inherits Vector.Dimension
	assert.Equal(t, 32, cfg.Embeddings.BatchSize)
	assert.Equal(t, "", cfg.Embeddings.OllamaHost)

	assert.Equal(t, "hierarchical", cfg.Chunking.Strategy)
	assert.Equal(t, 2000, cfg.Chunking.MaxChunkSize)
	assert.Equal(t, 250, cfg.Chunking.Overlap)

	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestConfig_FusionWeightsSumToOne(t *testing.T) {
	cfg := NewConfig()
	sum := cfg.Fusion.Alpha + cfg.Fusion.Beta
	assert.InDelta(t, 1.0, sum, 0.01)
}

func TestConfig_Validate_Defaults(t *testing.T) {
	cfg := NewConfig()
	assert.NoError(t, cfg.Validate())
}

// =============================================================================
// Validate
// =============================================================================

func TestConfig_Validate_RejectsBadDimension(t *testing.T) {
	cfg := NewConfig()
	cfg.Vector.Dimension = 0
	assert.Error(t, cfg.Validate())

	cfg.Vector.Dimension = -5
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_RejectsBadVectorType(t *testing.T) {
	cfg := NewConfig()
	cfg.Vector.Type = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_RejectsBadDecayModel(t *testing.T) {
	cfg := NewConfig()
	cfg.Decay.Model = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_RejectsOutOfRangeRetentionThreshold(t *testing.T) {
	cfg := NewConfig()
	cfg.Decay.RetentionThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg.Decay.RetentionThreshold = -0.1
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_RejectsUnbalancedFusionWeights(t *testing.T) {
	cfg := NewConfig()
	cfg.Fusion.Alpha = 0.9
	cfg.Fusion.Beta = 0.9
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_RejectsBadEmbeddingsProvider(t *testing.T) {
	cfg := NewConfig()
	cfg.Embeddings.Provider = "bogus"
	assert.Error(t, cfg.Validate())

	cfg.Embeddings.Provider = ""
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_RejectsBadChunkingStrategy(t *testing.T) {
	cfg := NewConfig()
	cfg.Chunking.Strategy = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_RejectsBadLogLevel(t *testing.T) {
	cfg := NewConfig()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

// =============================================================================
// Layered loading
// =============================================================================

func TestLoad_DefaultsOnly(t *testing.T) {
	tmpDir := t.TempDir()

	origXDG := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	defer os.Setenv("XDG_CONFIG_HOME", origXDG)

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 768, cfg.Vector.Dimension)
	assert.Equal(t, "exponential", cfg.Decay.Model)
}

func TestLoad_ProjectConfigOverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	origXDG := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	defer os.Setenv("XDG_CONFIG_HOME", origXDG)

	yamlContent := "vector:\n  dimension: 1536\ndecay:\n  scale_days: 45\n"
	err := os.WriteFile(filepath.Join(tmpDir, ".syntondb.yaml"), []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 1536, cfg.Vector.Dimension)
	assert.Equal(t, 45.0, cfg.Decay.ScaleDays)
	// untouched fields keep their defaults
	assert.Equal(t, "exponential", cfg.Decay.Model)
}

func TestLoad_EnvOverridesProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()

	origXDG := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	defer os.Setenv("XDG_CONFIG_HOME", origXDG)

	yamlContent := "vector:\n  dimension: 1536\n"
	err := os.WriteFile(filepath.Join(tmpDir, ".syntondb.yaml"), []byte(yamlContent), 0644)
	require.NoError(t, err)

	origDim := os.Getenv("SYNTONDB_DIMENSION")
	os.Setenv("SYNTONDB_DIMENSION", "4096")
	defer os.Setenv("SYNTONDB_DIMENSION", origDim)

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 4096, cfg.Vector.Dimension)
}

func TestLoad_RejectsInvalidMergedConfig(t *testing.T) {
	tmpDir := t.TempDir()

	origXDG := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	defer os.Setenv("XDG_CONFIG_HOME", origXDG)

	yamlContent := "vector:\n  type: bogus\n"
	err := os.WriteFile(filepath.Join(tmpDir, ".syntondb.yaml"), []byte(yamlContent), 0644)
	require.NoError(t, err)

	_, err = Load(tmpDir)
	assert.Error(t, err)
}

// =============================================================================
// Paths
// =============================================================================

func TestGetUserConfigPath_RespectsXDG(t *testing.T) {
	origXDG := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", "/tmp/xdgtest")
	defer os.Setenv("XDG_CONFIG_HOME", origXDG)

	path := GetUserConfigPath()
	assert.Equal(t, "/tmp/xdgtest/syntondb/config.yaml", path)
}

func TestFindProjectRoot_FallsBackToStartDir(t *testing.T) {
	tmpDir := t.TempDir()
	root, err := FindProjectRoot(tmpDir)
	require.NoError(t, err)
	absTmp, _ := filepath.Abs(tmpDir)
	assert.Equal(t, absTmp, root)
}

func TestFindProjectRoot_FindsSyntonConfig(t *testing.T) {
	tmpDir := t.TempDir()
	sub := filepath.Join(tmpDir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".syntondb.yaml"), []byte("version: 1\n"), 0644))

	root, err := FindProjectRoot(sub)
	require.NoError(t, err)
	absTmp, _ := filepath.Abs(tmpDir)
	assert.Equal(t, absTmp, root)
}
