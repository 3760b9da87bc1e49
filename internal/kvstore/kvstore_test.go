package kvstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synton-db/syntondb/internal/syntonerr"
)

func TestOpen_CreatesColumnFamilies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := Open(path, DefaultConfig())
	require.NoError(t, err)
	defer s.Close()

	for _, cf := range AllColumnFamilies {
		_, ok, err := s.Get(cf, []byte("missing"))
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestOpen_RefusesSecondProcessOnSamePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	first, err := Open(path, DefaultConfig())
	require.NoError(t, err)
	defer first.Close()

	_, err = Open(path, DefaultConfig())
	require.Error(t, err)
	assert.Equal(t, syntonerr.Storage, syntonerr.Of(err))
}

func TestOpen_ReopenAfterCloseSucceeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	first, err := Open(path, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path, DefaultConfig())
	require.NoError(t, err)
	defer second.Close()
}

func TestPutGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := Open(path, DefaultConfig())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(CFNodes, []byte("k1"), []byte("v1")))

	v, ok, err := s.Get(CFNodes, []byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	require.NoError(t, s.Delete(CFNodes, []byte("k1")))
	_, ok, err = s.Get(CFNodes, []byte("k1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteBatch_Atomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := Open(path, DefaultConfig())
	require.NoError(t, err)
	defer s.Close()

	batch := []Op{
		{CF: CFNodes, Key: []byte("a"), Value: []byte("1")},
		{CF: CFEdges, Key: []byte("b"), Value: []byte("2")},
	}
	require.NoError(t, s.WriteBatch(batch))

	_, ok, _ := s.Get(CFNodes, []byte("a"))
	assert.True(t, ok)
	_, ok, _ = s.Get(CFEdges, []byte("b"))
	assert.True(t, ok)
}

func TestScanAll_ReturnsAllEntriesInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := Open(path, DefaultConfig())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(CFNodes, []byte("b"), []byte("2")))
	require.NoError(t, s.Put(CFNodes, []byte("a"), []byte("1")))
	require.NoError(t, s.Put(CFNodes, []byte("c"), []byte("3")))

	entries, err := s.ScanAll(CFNodes, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []byte("a"), entries[0].Key)
	assert.Equal(t, []byte("b"), entries[1].Key)
	assert.Equal(t, []byte("c"), entries[2].Key)
}

func TestFileLock_TryLockRefusesSecondHolder(t *testing.T) {
	dir := t.TempDir()
	l1 := NewFileLock(dir)
	acquired, err := l1.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	defer l1.Unlock()

	l2 := NewFileLock(dir)
	acquired, err = l2.TryLock()
	require.NoError(t, err)
	assert.False(t, acquired)
}

func TestFileLock_UnlockThenRelock(t *testing.T) {
	dir := t.TempDir()
	l1 := NewFileLock(dir)
	acquired, err := l1.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	require.NoError(t, l1.Unlock())

	l2 := NewFileLock(dir)
	acquired, err = l2.TryLock()
	require.NoError(t, err)
	assert.True(t, acquired)
	l2.Unlock()
}
