package engine

import (
	"context"
	"time"

	"github.com/synton-db/syntondb/internal/async"
)

// StartSweeper launches the Memory Manager's periodic decay sweep (spec
// §4.4) in a background goroutine, running decay.Manager.Sweep every
// interval. Each call builds and starts a new sweeper; the engine keeps
// no reference to it. Callers own the returned sweeper's lifecycle — stop
// it via BackgroundSweeper.Stop before Close.
func (e *Engine) StartSweeper(ctx context.Context, interval time.Duration) *async.BackgroundSweeper {
	sweeper := async.NewBackgroundSweeper(async.SweeperConfig{
		DataDir:  e.dataDir,
		Interval: interval,
	})
	sweeper.SweepFunc = func(ctx context.Context, progress *async.SweepProgress) error {
		result, err := e.Memory.Sweep(ctx)
		if err != nil {
			return err
		}
		progress.UpdateScanned(result.Scanned, result.Rewritten, len(result.EvictionCandidates))
		return nil
	}
	sweeper.Start(ctx)
	return sweeper
}
