package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synton-db/syntondb/internal/config"
	"github.com/synton-db/syntondb/internal/syntonerr"
)

func TestOpen_RefusesDimensionChangeOnExistingStore(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()

	e := openTestEngineAt(t, dataDir, newStubEmbedder([]float32{1, 0, 0, 0}))
	require.NoError(t, e.Close())

	cfg := testConfig()
	cfg.Vector.Dimension = 8
	_, err := Open(ctx, dataDir, cfg, WithLogger(discardLogger()))
	require.Error(t, err)
	assert.Equal(t, syntonerr.Conflict, syntonerr.Of(err))
}

func TestUpdateDecayParams_HotSwapsAndPersists(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()

	e := openTestEngineAt(t, dataDir, newStubEmbedder([]float32{1, 0, 0, 0}))

	dc := config.DecayConfig{
		Model:              "linear",
		LinearHorizonDays:  30,
		Boost:              1.0,
		RetentionThreshold: 0.2,
	}
	require.NoError(t, e.UpdateDecayParams(ctx, dc))

	assert.Equal(t, "linear", string(e.Memory.Config().Model))
	assert.Equal(t, 1.0, e.Memory.Config().Boost)

	stats, err := e.Stats(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "linear", stats.MemoryStats.Model)
	assert.Equal(t, 0.2, stats.MemoryStats.RetentionThreshold)

	// The hot-update survives a restart via the metadata column family.
	require.NoError(t, e.Close())
	reopened := openTestEngineAt(t, dataDir, newStubEmbedder([]float32{1, 0, 0, 0}))
	assert.Equal(t, "linear", string(reopened.Memory.Config().Model))
	assert.Equal(t, 1.0, reopened.Memory.Config().Boost)
}
