package cmd

import "github.com/synton-db/syntondb/internal/graph"

func idStrings(ids []graph.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
