package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var inFile string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replay a snapshot produced by export",
		Long:  `Reads newline-delimited JSON from stdin or --in, inserting every node before any edge so dangling references from a filtered snapshot are reported, not fatal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return fmt.Errorf("open engine: %w", err)
			}
			defer closeFn()

			var r io.Reader = cmd.InOrStdin()
			if inFile != "" {
				f, err := os.Open(inFile)
				if err != nil {
					return fmt.Errorf("open %s: %w", inFile, err)
				}
				defer f.Close()
				r = f
			}

			result, err := e.Import(cmd.Context(), r)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "nodes inserted: %d\n", result.NodesInserted)
			fmt.Fprintf(w, "edges inserted: %d\n", result.EdgesInserted)
			fmt.Fprintf(w, "edges skipped:  %d\n", result.EdgesSkipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&inFile, "in", "", "Read the snapshot from this file instead of stdin")
	return cmd
}
