package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synton-db/syntondb/internal/graph"
	"github.com/synton-db/syntondb/internal/paql"
)

func newTraverseCmd() *cobra.Command {
	var (
		direction string
		depth     int
		nodeLimit int
		filterExp string
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "traverse [node-id]",
		Short: "Bounded BFS from a node",
		Long:  `Walks the graph outward from start-id up to depth hops, returning every node and edge visited, optionally filtered by a PaQL predicate.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := graph.ParseID(args[0])
			if err != nil {
				return fmt.Errorf("invalid node id: %w", err)
			}
			dir, err := parseDirection(direction)
			if err != nil {
				return err
			}
			filter, err := parseFilterFlag(filterExp)
			if err != nil {
				return fmt.Errorf("invalid --filter: %w", err)
			}

			e, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return fmt.Errorf("open engine: %w", err)
			}
			defer closeFn()

			result, err := e.Traverse(cmd.Context(), id, dir, depth, nodeLimit, filter)
			if err != nil {
				return fmt.Errorf("traverse: %w", err)
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "nodes: %d, edges: %d (truncated=%v)\n", len(result.Nodes), len(result.Edges), result.Truncated)
			for _, n := range result.Nodes {
				fmt.Fprintf(w, "  %s [%s] %.60q\n", n.ID, n.NodeType, n.Content)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&direction, "direction", "out", "Traversal direction: out, in, both")
	cmd.Flags().IntVar(&depth, "depth", 1, "Maximum hop count")
	cmd.Flags().IntVar(&nodeLimit, "node-limit", 500, "Maximum nodes to visit")
	cmd.Flags().StringVar(&filterExp, "filter", "", "PaQL filter predicate, e.g. \"confidence > 0.5 AND type = Fact\"")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

func parseDirection(s string) (graph.Direction, error) {
	switch s {
	case "out", "":
		return graph.Out, nil
	case "in":
		return graph.In, nil
	case "both":
		return graph.Both, nil
	default:
		return 0, fmt.Errorf("unknown direction %q: want out, in, or both", s)
	}
}

// parseFilterFlag reuses the Semantic grammar's WHERE clause to parse a
// standalone filter predicate: PaQL has no top-level filter-only form, so
// we splice the predicate into a minimal query and pull the Filter back
// out of the resulting AST.
func parseFilterFlag(expr string) (*paql.FilterExpr, error) {
	if expr == "" {
		return nil, nil
	}
	ast, err := paql.Parse("_ WHERE " + expr)
	if err != nil {
		return nil, err
	}
	return ast.Filter, nil
}
