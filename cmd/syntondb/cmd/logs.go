package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/synton-db/syntondb/internal/logging"
)

func newLogsCmd() *cobra.Command {
	var (
		file    string
		lines   int
		follow  bool
		level   string
		pattern string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Tail the engine's JSON log",
		Long: `Prints the last entries of the rotating log file written when the
engine runs with --debug, optionally following new entries as they are
appended. Entries can be filtered by minimum level or a regexp over the
raw line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := logging.FindLogFile(file)
			if err != nil {
				return err
			}

			filter := logging.Filter{MinLevel: level, NoColor: noColor}
			if pattern != "" {
				re, err := regexp.Compile(pattern)
				if err != nil {
					return fmt.Errorf("invalid --grep pattern: %w", err)
				}
				filter.Pattern = re
			}
			viewer := logging.NewViewer(filter, cmd.OutOrStdout())

			entries, err := viewer.Tail(path, lines)
			if err != nil {
				return err
			}
			viewer.Print(entries)

			if !follow {
				return nil
			}
			ch := make(chan logging.Entry, 64)
			go func() {
				for e := range ch {
					fmt.Fprintln(cmd.OutOrStdout(), viewer.FormatEntry(e))
				}
			}()
			defer close(ch)
			return viewer.Follow(cmd.Context(), path, ch)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Log file to read (default: the engine's own log)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing entries to print")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new entries until interrupted")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level to show: debug, info, warn, error")
	cmd.Flags().StringVar(&pattern, "grep", "", "Only show entries matching this regexp")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable ANSI colors")

	return cmd
}
