package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var (
		detailed bool
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show store-wide counts and memory-manager configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return fmt.Errorf("open engine: %w", err)
			}
			defer closeFn()

			s, err := e.Stats(cmd.Context(), detailed)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "nodes:              %d\n", s.NodeCount)
			fmt.Fprintf(w, "edges:              %d\n", s.EdgeCount)
			fmt.Fprintf(w, "embedded:           %d\n", s.EmbeddedCount)
			fmt.Fprintf(w, "decay model:        %s\n", s.MemoryStats.Model)
			fmt.Fprintf(w, "retention threshold: %.3f\n", s.MemoryStats.RetentionThreshold)
			return nil
		},
	}

	cmd.Flags().BoolVar(&detailed, "detailed", false, "Read embedded_count directly from the live vector index (the default output reads the same live count)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}
