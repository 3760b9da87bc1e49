package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	var (
		interval time.Duration
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Recompute decayed access scores and list eviction candidates",
		Long: `Runs the memory-decay sweep once and reports what it found. With
--interval set, runs it repeatedly in the background (lock-file guarded
against a second sweeper on the same data directory) until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return fmt.Errorf("open engine: %w", err)
			}
			defer closeFn()

			if interval <= 0 {
				result, err := e.Memory.Sweep(cmd.Context())
				if err != nil {
					return fmt.Errorf("sweep: %w", err)
				}
				if jsonOut {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(result)
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "scanned:            %d\n", result.Scanned)
				fmt.Fprintf(w, "rewritten:          %d\n", result.Rewritten)
				fmt.Fprintf(w, "eviction candidates: %d\n", len(result.EvictionCandidates))
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sweeper := e.StartSweeper(ctx, interval)
			fmt.Fprintf(cmd.OutOrStdout(), "sweeping every %s, ctrl-c to stop\n", interval)
			<-ctx.Done()
			sweeper.Stop()
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Run continuously in the background at this interval instead of once")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON (one-shot mode only)")

	return cmd
}
