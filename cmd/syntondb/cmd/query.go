package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synton-db/syntondb/internal/engine"
	"github.com/synton-db/syntondb/internal/retrieval"
)

func newQueryCmd() *cobra.Command {
	var (
		format      string
		level       string
		compression string
		tokenBudget int
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "query [paql]",
		Short: "Run a PaQL query against the store",
		Long: `Parses and plans the given PaQL expression, executes it across the
vector index and graph, and synthesizes a context string from the
ranked results. Contradictions found among the result's edges are
reported alongside the ranking.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return fmt.Errorf("open engine: %w", err)
			}
			defer closeFn()

			opts := engine.QueryOptions{
				Format:      retrieval.Format(format),
				Level:       retrieval.SummaryLevel(level),
				Compression: retrieval.Compression(compression),
				TokenBudget: tokenBudget,
			}
			result, err := e.Query(cmd.Context(), args[0], opts)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "results: %d (truncated=%v, degraded_text=%v)\n", result.TotalCount, result.Truncated, result.DegradedText)
			for _, note := range result.Contradictions {
				fmt.Fprintf(w, "contradiction: %s --%s--> kept=%v superseded=%v\n",
					note.Source, note.Relation, note.Kept, note.Superseded)
			}
			fmt.Fprintln(w, "---")
			fmt.Fprintln(w, result.Context)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(retrieval.FormatFlat), "Output synthesis format")
	cmd.Flags().StringVar(&level, "level", "", "Summary level: document, paragraph, sentence")
	cmd.Flags().StringVar(&compression, "compression", string(retrieval.CompressNone), "Compression strategy")
	cmd.Flags().IntVar(&tokenBudget, "token-budget", 0, "Approximate token budget for the synthesized context (0 = unbounded)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the full ranked result as JSON")

	return cmd
}
