// Package kvstore is the C1 durable key-value layer: an ordered byte
// store partitioned into column families, with atomic write batches and
// snapshot-consistent iteration, layered on go.etcd.io/bbolt.
//
// bbolt already gives us exactly the guarantees spec §4.1 and §5 ask for:
// a single-writer, copy-on-write B+tree with its own write-ahead
// memory-mapped file, so a crash mid-batch leaves the store exactly as if
// the batch had never been attempted (I6), and readers see a consistent
// snapshot at least as new as the last committed batch.
package kvstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/synton-db/syntondb/internal/syntonerr"
)

// Column family names, exactly as enumerated in spec §4.1/§6.
const (
	CFNodes     = "nodes"
	CFEdges     = "edges"
	CFEdgesOut  = "edges_out"
	CFEdgesIn   = "edges_in"
	CFMetadata  = "metadata"
	CFAccessLog = "access_log"
)

// AllColumnFamilies lists every bucket the store creates on Open.
var AllColumnFamilies = []string{CFNodes, CFEdges, CFEdgesOut, CFEdgesIn, CFMetadata, CFAccessLog}

// Config carries the knobs spec §4.1 calls out: cache size, max open
// files, compression codec, WAL on/off. bbolt does not expose all of
// these directly (it has no pluggable compression or file-handle cache,
// being a single mmap'd file); the fields are retained on Config so the
// engine's configuration object has one stable shape regardless of which
// KV backend is behind it, and the ones bbolt can honor (NoSync /
// "WAL off") are wired through.
type Config struct {
	// CacheSizeBytes is advisory; bbolt relies on the OS page cache
	// instead of an in-process block cache.
	CacheSizeBytes int64
	MaxOpenFiles   int
	Compression    string // "lz4" (default), "none" — advisory only; no code in this package reads it.
	// NoSync disables fsync on every commit ("WAL off"), trading
	// durability for throughput. Default false (WAL/fsync on).
	NoSync bool
	// OpenTimeout bounds how long Open waits for the bbolt file lock.
	OpenTimeout time.Duration
}

// DefaultConfig returns the spec's defaults: LZ4 compression (advisory),
// WAL on.
func DefaultConfig() Config {
	return Config{
		CacheSizeBytes: 64 << 20,
		MaxOpenFiles:   256,
		Compression:    "lz4",
		NoSync:         false,
		OpenTimeout:    5 * time.Second,
	}
}

// Store is the durable, ordered, column-family KV store (C1).
type Store struct {
	db     *bolt.DB
	path   string
	config Config
	lock   *FileLock
}

// Open opens (creating if absent) a Store at path, creating any missing
// column-family bucket. Schema evolution is additive: new buckets can be
// introduced by adding to AllColumnFamilies without migrating existing
// data.
//
// Open first takes an exclusive FileLock on the store's directory. This
// catches a second engine process pointed at the same path before it
// can race bbolt's own mmap'd file for the writer role, so the crash
// recovery reconciliation spec §5 describes ("open C1, replay to the
// last committed batch, reconcile C2") always runs against a directory
// no other process is touching.
func Open(path string, cfg Config) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, syntonerr.Wrap(syntonerr.Storage, "create data directory", err)
	}

	lock := NewFileLock(dir)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, syntonerr.Wrap(syntonerr.Storage, "acquire store lock", err)
	}
	if !acquired {
		return nil, syntonerr.New(syntonerr.Storage, "store already open by another process")
	}

	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: cfg.OpenTimeout})
	if err != nil {
		_ = lock.Unlock()
		return nil, syntonerr.Wrap(syntonerr.Storage, "open kv store", err)
	}
	db.NoSync = cfg.NoSync

	err = db.Update(func(tx *bolt.Tx) error {
		for _, cf := range AllColumnFamilies {
			if _, err := tx.CreateBucketIfNotExists([]byte(cf)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, syntonerr.Wrap(syntonerr.Storage, "initialize column families", err)
	}

	return &Store{db: db, path: path, config: cfg, lock: lock}, nil
}

// Close releases the underlying file handle and the directory lock.
func (s *Store) Close() error {
	err := s.db.Close()
	if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	if err != nil {
		return syntonerr.Wrap(syntonerr.Storage, "close kv store", err)
	}
	return nil
}

// Get returns the value for key in cf, or ok=false if absent.
func (s *Store) Get(cf string, key []byte) (value []byte, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(cf))
		if b == nil {
			return fmt.Errorf("unknown column family %q", cf)
		}
		v := b.Get(key)
		if v != nil {
			value = append([]byte(nil), v...)
			ok = true
		}
		return nil
	})
	if err != nil {
		return nil, false, syntonerr.Wrap(syntonerr.Storage, "get", err)
	}
	return value, ok, nil
}

// Put overwrites key's value in cf.
func (s *Store) Put(cf string, key, value []byte) error {
	return s.WriteBatch([]Op{{CF: cf, Key: key, Value: value}})
}

// Delete removes key from cf, if present.
func (s *Store) Delete(cf string, key []byte) error {
	return s.WriteBatch([]Op{{CF: cf, Key: key, IsDelete: true}})
}

// Op is one mutation within a WriteBatch.
type Op struct {
	CF       string
	Key      []byte
	Value    []byte
	IsDelete bool
}

// WriteBatch applies every op in a single bbolt transaction: either all
// land, or — on any error, or a crash mid-commit — none do (spec I6).
func (s *Store) WriteBatch(ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, op := range ops {
			b := tx.Bucket([]byte(op.CF))
			if b == nil {
				return fmt.Errorf("unknown column family %q", op.CF)
			}
			if op.IsDelete {
				if err := b.Delete(op.Key); err != nil {
					return err
				}
				continue
			}
			if err := b.Put(op.Key, op.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return syntonerr.Wrap(syntonerr.Storage, "write batch", err)
	}
	return nil
}

// KV is one (key, value) pair yielded by Scan.
type KV struct {
	Key   []byte
	Value []byte
}

// Iterator walks a column family's keys in lexicographic order within a
// single read-only snapshot, stable for its own lifetime per spec §4.1.
type Iterator struct {
	tx     *bolt.Tx
	cursor *bolt.Cursor
	prefix []byte
	k, v   []byte
	done   bool
	err    error
}

// Scan opens a snapshot iterator over cf restricted to keys with the
// given prefix (nil/empty prefix scans the whole column family). The
// caller must call Close when done to release the read transaction.
func (s *Store) Scan(cf string, prefix []byte) (*Iterator, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, syntonerr.Wrap(syntonerr.Storage, "begin scan", err)
	}
	b := tx.Bucket([]byte(cf))
	if b == nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("unknown column family %q", cf)
	}
	it := &Iterator{tx: tx, cursor: b.Cursor(), prefix: prefix}
	if len(prefix) > 0 {
		it.k, it.v = it.cursor.Seek(prefix)
	} else {
		it.k, it.v = it.cursor.First()
	}
	it.checkBounds()
	return it, nil
}

func (it *Iterator) checkBounds() {
	if it.k == nil || (len(it.prefix) > 0 && !bytes.HasPrefix(it.k, it.prefix)) {
		it.done = true
		it.k, it.v = nil, nil
	}
}

// Next reports whether a current entry is available; KV consumes it and
// advances. Check Err afterward to distinguish exhaustion from an error
// (iteration over bbolt's in-memory cursor cannot itself error, but the
// shape mirrors other backends' Iterator contracts).
func (it *Iterator) Next() bool {
	return !it.done && it.k != nil
}

// KV returns the current (key, value) and advances to the next entry.
func (it *Iterator) KV() KV {
	kv := KV{Key: append([]byte(nil), it.k...), Value: append([]byte(nil), it.v...)}
	it.k, it.v = it.cursor.Next()
	it.checkBounds()
	return kv
}

// Err returns any error encountered during iteration.
func (it *Iterator) Err() error { return it.err }

// Close releases the iterator's read transaction.
func (it *Iterator) Close() error {
	return it.tx.Rollback()
}

// ScanAll is a convenience wrapper returning every (key, value) under
// prefix as a slice; for callers that don't need streaming semantics.
func (s *Store) ScanAll(cf string, prefix []byte) ([]KV, error) {
	it, err := s.Scan(cf, prefix)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var out []KV
	for it.Next() {
		out = append(out, it.KV())
	}
	return out, it.Err()
}

// Flush forces bbolt's page cache to disk. bbolt fsyncs on every
// committed Update transaction already (unless NoSync is set), so Flush
// is a best-effort no-op barrier kept for interface parity with spec
// §4.1's durability-barrier operation.
func (s *Store) Flush() error { return nil }

// Checkpoint writes a consistent on-disk copy of the store to path,
// usable as a hot backup (spec §4.1).
func (s *Store) Checkpoint(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return syntonerr.Wrap(syntonerr.Storage, "create checkpoint directory", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return syntonerr.Wrap(syntonerr.Storage, "create checkpoint file", err)
	}
	defer f.Close()

	err = s.db.View(func(tx *bolt.Tx) error {
		_, err := tx.WriteTo(f)
		return err
	})
	if err != nil {
		return syntonerr.Wrap(syntonerr.Storage, "checkpoint", err)
	}
	return nil
}

// Path returns the store's on-disk file path.
func (s *Store) Path() string { return s.path }
