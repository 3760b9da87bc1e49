package graph

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synton-db/syntondb/internal/kvstore"
	"github.com/synton-db/syntondb/internal/vector"
)

func TestTouch_AppendsAccessLogEvents(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.db")
	kv, err := kvstore.Open(path, kvstore.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	clock := time.Unix(1700000000, 0).UTC()
	s := NewStore(kv, vector.NewMemoryIndex(4), WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))

	id, err := s.InsertNode(ctx, &Node{Content: "x", NodeType: NodeFact})
	require.NoError(t, err)

	require.NoError(t, s.Touch(ctx, id, 0.5))
	require.NoError(t, s.Touch(ctx, id, 0.5))

	events, err := s.AccessLog(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, id, events[0].NodeID)
	assert.Equal(t, 0.5, events[0].Boost)
	assert.Equal(t, 0.5, events[0].Score)
	assert.Equal(t, 1.0, events[1].Score)
	assert.True(t, events[1].At.After(events[0].At))

	// Another node's touches don't leak into this node's log.
	other, err := s.InsertNode(ctx, &Node{Content: "y", NodeType: NodeFact})
	require.NoError(t, err)
	require.NoError(t, s.Touch(ctx, other, 0.5))
	events, err = s.AccessLog(ctx, id)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
