package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Snapshot every node and edge as newline-delimited JSON",
		Long:  `Writes one JSON object per line, nodes first then edges, to stdout or --out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return fmt.Errorf("open engine: %w", err)
			}
			defer closeFn()

			w := cmd.OutOrStdout()
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return fmt.Errorf("create %s: %w", outFile, err)
				}
				defer f.Close()
				buf := bufio.NewWriter(f)
				defer buf.Flush()
				w = buf
			}

			return e.Export(cmd.Context(), w)
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "", "Write the snapshot to this file instead of stdout")
	return cmd
}
