package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	var (
		strategy string
		embed    bool
		jsonOut  bool
		fromFile string
	)

	cmd := &cobra.Command{
		Use:   "ingest [text]",
		Short: "Chunk text and insert it as a document graph",
		Long: `Chunks text using the given strategy (fixed, semantic, hierarchical,
code_aware), inserts one node per chunk, links them with IsPartOf edges
to a Document root, and optionally embeds each chunk for later vector
retrieval.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readIngestText(cmd, args, fromFile)
			if err != nil {
				return err
			}

			e, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return fmt.Errorf("open engine: %w", err)
			}
			defer closeFn()

			result, err := e.IngestDocument(cmd.Context(), text, strategy, embed)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"document_id": result.DocumentID.String(),
					"chunk_ids":   idStrings(result.ChunkIDs),
					"edge_count":  result.EdgeCount,
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "document: %s\n", result.DocumentID)
			fmt.Fprintf(w, "chunks:   %d\n", len(result.ChunkIDs))
			fmt.Fprintf(w, "edges:    %d\n", result.EdgeCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "hierarchical", "Chunking strategy: fixed, semantic, hierarchical, code_aware")
	cmd.Flags().BoolVar(&embed, "embed", true, "Compute embeddings for each chunk")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&fromFile, "file", "", "Read text from a file instead of the argument/stdin")

	return cmd
}

func readIngestText(cmd *cobra.Command, args []string, fromFile string) (string, error) {
	if fromFile != "" {
		data, err := os.ReadFile(fromFile)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", fromFile, err)
		}
		return string(data), nil
	}
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no text given: pass an argument, --file, or pipe stdin")
	}
	return string(data), nil
}
