// Package cmd provides the CLI commands for SYNTON-DB.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/synton-db/syntondb/internal/logging"
	"github.com/synton-db/syntondb/pkg/version"
)

var (
	dataDirFlag string
	debugMode   bool

	loggingCleanup func()
)

// NewRootCmd creates the root command for the syntondb CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "syntondb",
		Short: "Tensor-Graph memory store with decay-aware Graph-RAG retrieval",
		Long: `syntondb stores semantic atoms as a typed node/edge graph layered
over a vector index, decays their relevance over time, and answers
Graph-RAG style queries against the result (PaQL).

It operates entirely on a local data directory; there is no server
process to start.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetVersionTemplate("syntondb version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Path to the SYNTON-DB data directory (default: .syntondb under the project root)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.syntondb/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newTraverseCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newSweepCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.Debug())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
