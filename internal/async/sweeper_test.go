package async

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackgroundSweeper(t *testing.T) {
	cfg := SweeperConfig{DataDir: t.TempDir()}

	sweeper := NewBackgroundSweeper(cfg)

	require.NotNil(t, sweeper)
	assert.NotNil(t, sweeper.Progress())
	assert.False(t, sweeper.IsRunning())
}

func TestBackgroundSweeper_Start_RunsInGoroutine(t *testing.T) {
	cfg := SweeperConfig{DataDir: t.TempDir()}
	sweeper := NewBackgroundSweeper(cfg)

	var ran atomic.Bool
	sweeper.SweepFunc = func(ctx context.Context, progress *SweepProgress) error {
		ran.Store(true)
		return nil
	}

	ctx := context.Background()
	sweeper.Start(ctx)

	assert.True(t, sweeper.IsRunning())

	err := sweeper.Wait()
	require.NoError(t, err)
	assert.True(t, ran.Load())
	assert.False(t, sweeper.IsRunning())
}

func TestBackgroundSweeper_Progress_UpdatesDuringRun(t *testing.T) {
	cfg := SweeperConfig{DataDir: t.TempDir()}
	sweeper := NewBackgroundSweeper(cfg)

	sweeper.SweepFunc = func(ctx context.Context, progress *SweepProgress) error {
		progress.UpdateScanned(50, 10, 2)
		time.Sleep(10 * time.Millisecond)
		progress.UpdateScanned(100, 20, 4)
		return nil
	}

	ctx := context.Background()
	sweeper.Start(ctx)
	err := sweeper.Wait()
	require.NoError(t, err)

	snap := sweeper.Progress().Snapshot()
	assert.Equal(t, "idle", snap.Status)
	assert.Equal(t, 100, snap.NodesScanned)
}

func TestBackgroundSweeper_Stop_GracefulShutdown(t *testing.T) {
	cfg := SweeperConfig{DataDir: t.TempDir()}
	sweeper := NewBackgroundSweeper(cfg)

	var stopped atomic.Bool
	sweeper.SweepFunc = func(ctx context.Context, progress *SweepProgress) error {
		for i := 0; i < 1000; i++ {
			select {
			case <-ctx.Done():
				stopped.Store(true)
				return ctx.Err()
			case <-time.After(1 * time.Millisecond):
				progress.UpdateScanned(i, 0, 0)
			}
		}
		return nil
	}

	ctx := context.Background()
	sweeper.Start(ctx)
	time.Sleep(10 * time.Millisecond)
	sweeper.Stop()

	assert.True(t, stopped.Load())
	assert.False(t, sweeper.IsRunning())
}

func TestBackgroundSweeper_Stop_ContextCancellation(t *testing.T) {
	cfg := SweeperConfig{DataDir: t.TempDir()}
	sweeper := NewBackgroundSweeper(cfg)

	var stopped atomic.Bool
	sweeper.SweepFunc = func(ctx context.Context, progress *SweepProgress) error {
		<-ctx.Done()
		stopped.Store(true)
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	sweeper.Start(ctx)
	time.Sleep(5 * time.Millisecond)
	cancel()

	_ = sweeper.Wait()

	assert.True(t, stopped.Load())
	assert.False(t, sweeper.IsRunning())
}

func TestBackgroundSweeper_Wait_BlocksUntilComplete(t *testing.T) {
	cfg := SweeperConfig{DataDir: t.TempDir()}
	sweeper := NewBackgroundSweeper(cfg)

	sweeper.SweepFunc = func(ctx context.Context, progress *SweepProgress) error {
		time.Sleep(50 * time.Millisecond)
		return nil
	}

	ctx := context.Background()
	sweeper.Start(ctx)

	start := time.Now()
	err := sweeper.Wait()
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
}

func TestBackgroundSweeper_LockFile_Created(t *testing.T) {
	dataDir := t.TempDir()
	cfg := SweeperConfig{DataDir: dataDir}
	sweeper := NewBackgroundSweeper(cfg)

	var lockExists atomic.Bool
	sweeper.SweepFunc = func(ctx context.Context, progress *SweepProgress) error {
		lockPath := filepath.Join(dataDir, "sweep.lock")
		_, err := os.Stat(lockPath)
		lockExists.Store(err == nil)
		return nil
	}

	ctx := context.Background()
	sweeper.Start(ctx)
	err := sweeper.Wait()

	require.NoError(t, err)
	assert.True(t, lockExists.Load())

	lockPath := filepath.Join(dataDir, "sweep.lock")
	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err))
}

func TestBackgroundSweeper_Error_SetsProgress(t *testing.T) {
	cfg := SweeperConfig{DataDir: t.TempDir()}
	sweeper := NewBackgroundSweeper(cfg)

	expectedErr := "storage unavailable"
	sweeper.SweepFunc = func(ctx context.Context, progress *SweepProgress) error {
		return &testError{message: expectedErr}
	}

	ctx := context.Background()
	sweeper.Start(ctx)
	err := sweeper.Wait()

	require.Error(t, err)
	snap := sweeper.Progress().Snapshot()
	assert.Equal(t, "error", snap.Status)
	assert.Contains(t, snap.ErrorMessage, expectedErr)
}

func TestBackgroundSweeper_Start_IdempotentWhenRunning(t *testing.T) {
	cfg := SweeperConfig{DataDir: t.TempDir()}
	sweeper := NewBackgroundSweeper(cfg)

	var startCount atomic.Int32
	sweeper.SweepFunc = func(ctx context.Context, progress *SweepProgress) error {
		startCount.Add(1)
		time.Sleep(50 * time.Millisecond)
		return nil
	}

	ctx := context.Background()
	sweeper.Start(ctx)
	sweeper.Start(ctx) // ignored
	sweeper.Start(ctx) // ignored
	_ = sweeper.Wait()

	assert.Equal(t, int32(1), startCount.Load())
}

func TestBackgroundSweeper_Interval_RunsMultiplePasses(t *testing.T) {
	cfg := SweeperConfig{DataDir: t.TempDir(), Interval: 5 * time.Millisecond}
	sweeper := NewBackgroundSweeper(cfg)

	var runs atomic.Int32
	sweeper.SweepFunc = func(ctx context.Context, progress *SweepProgress) error {
		runs.Add(1)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	sweeper.Start(ctx)
	_ = sweeper.Wait()

	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}

func TestHasIncompleteLock(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(dir string)
		wantResult bool
	}{
		{
			name:       "no lock file",
			setup:      func(dir string) {},
			wantResult: false,
		},
		{
			name: "lock file exists",
			setup: func(dir string) {
				_ = os.WriteFile(filepath.Join(dir, "sweep.lock"), []byte("test"), 0644)
			},
			wantResult: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(dir)

			result := HasIncompleteLock(dir)
			assert.Equal(t, tt.wantResult, result)
		})
	}
}

// testError is a simple error type for testing.
type testError struct {
	message string
}

func (e *testError) Error() string {
	return e.message
}
