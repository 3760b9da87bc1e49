// Package main provides the entry point for the syntondb CLI.
package main

import (
	"os"

	"github.com/synton-db/syntondb/cmd/syntondb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
