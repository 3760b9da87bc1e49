package engine

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/synton-db/syntondb/internal/config"
	"github.com/synton-db/syntondb/internal/decay"
	"github.com/synton-db/syntondb/internal/kvstore"
	"github.com/synton-db/syntondb/internal/syntonerr"
)

const schemaVersion = 1

// Reserved metadata column-family keys (spec §6: schema version,
// embedding dimension D, decay parameters).
var (
	metaKeySchemaVersion = []byte("schema_version")
	metaKeyDimension     = []byte("embedding_dimension")
	metaKeyDecayParams   = []byte("decay_params")
)

// initMetadata pins the store-wide constants on first open and validates
// them on every later one. D is chosen at initialization and can never
// change for the store's lifetime (spec §3), so a mismatch between the
// stored and configured dimension refuses to open rather than silently
// corrupting the vector index. Persisted decay parameters, if any,
// override the configured ones so a hot-update survives restart (spec
// §9). Returns the effective configuration; cfg itself is not mutated.
func initMetadata(kv *kvstore.Store, cfg *config.Config) (*config.Config, error) {
	effective := *cfg

	data, ok, err := kv.Get(kvstore.CFMetadata, metaKeyDimension)
	if err != nil {
		return nil, err
	}
	if ok {
		stored := int(binary.BigEndian.Uint64(data))
		if stored != cfg.Vector.Dimension {
			return nil, syntonerr.New(syntonerr.Conflict,
				fmt.Sprintf("store was initialized with embedding dimension %d, configured %d", stored, cfg.Vector.Dimension))
		}
	} else {
		var dim [8]byte
		binary.BigEndian.PutUint64(dim[:], uint64(cfg.Vector.Dimension))
		err := kv.WriteBatch([]kvstore.Op{
			{CF: kvstore.CFMetadata, Key: metaKeySchemaVersion, Value: []byte{schemaVersion}},
			{CF: kvstore.CFMetadata, Key: metaKeyDimension, Value: dim[:]},
		})
		if err != nil {
			return nil, err
		}
	}

	data, ok, err = kv.Get(kvstore.CFMetadata, metaKeyDecayParams)
	if err != nil {
		return nil, err
	}
	if ok {
		var dc config.DecayConfig
		if err := json.Unmarshal(data, &dc); err != nil {
			return nil, syntonerr.Wrap(syntonerr.Corrupted, "decode stored decay parameters", err)
		}
		effective.Decay = dc
	}
	return &effective, nil
}

// UpdateDecayParams hot-swaps the Memory Manager's decay tuning and
// persists it through the metadata column family so the update survives
// restart (spec §9: configuration is immutable post-construction except
// the decay parameters).
func (e *Engine) UpdateDecayParams(ctx context.Context, dc config.DecayConfig) error {
	data, err := json.Marshal(dc)
	if err != nil {
		return syntonerr.Wrap(syntonerr.InvalidArgument, "encode decay parameters", err)
	}
	if err := e.kv.Put(kvstore.CFMetadata, metaKeyDecayParams, data); err != nil {
		return err
	}
	e.Memory.SetConfig(decay.Config{
		Model:              decay.Model(dc.Model),
		ScaleDays:          dc.ScaleDays,
		Alpha:              dc.Alpha,
		LinearHorizonDays:  dc.LinearHorizonDays,
		Boost:              dc.Boost,
		RetentionThreshold: dc.RetentionThreshold,
	})
	e.cfg.Decay = dc
	return nil
}
