package embed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synton-db/syntondb/internal/syntonerr"
)

func TestWithRetry_SucceedsWithoutRetrying(t *testing.T) {
	calls := 0
	cfg := DefaultRetryConfig()
	err := WithRetry(context.Background(), cfg, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
	err := WithRetry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ExhaustsRetriesReturnsEmbedderUnavailable(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	err := WithRetry(context.Background(), cfg, func() error {
		return errors.New("permanent")
	})
	require.Error(t, err)
	assert.Equal(t, syntonerr.EmbedderUnavailable, syntonerr.Of(err))
}

func TestWithRetry_RespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultRetryConfig()
	err := WithRetry(ctx, cfg, func() error {
		t.Fatal("fn should not run after cancellation")
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, syntonerr.Cancelled, syntonerr.Of(err))
}
