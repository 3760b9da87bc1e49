// Package logging wires slog-based structured logging for the engine
// and CLI: a JSON handler over a size-rotated file under ~/.syntondb,
// plus a viewer for tailing and filtering those files. Library code
// never installs a default logger; callers receive a *slog.Logger and
// thread it through.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options controls Setup.
type Options struct {
	// Level is the minimum level emitted: debug, info, warn, error.
	Level string
	// Path of the log file. Empty selects DefaultLogPath.
	Path string
	// MaxSizeMB triggers rotation once the active file exceeds it.
	MaxSizeMB int
	// MaxFiles bounds how many rotated files are kept.
	MaxFiles int
	// AlsoStderr mirrors every record to stderr.
	AlsoStderr bool
}

// Default returns the production options: info level, rotating file,
// stderr mirror on.
func Default() Options {
	return Options{
		Level:      "info",
		Path:       DefaultLogPath(),
		MaxSizeMB:  10,
		MaxFiles:   5,
		AlsoStderr: true,
	}
}

// Debug is Default at debug level.
func Debug() Options {
	o := Default()
	o.Level = "debug"
	return o
}

// Setup opens the rotating log file and builds a JSON slog.Logger over
// it. The returned cleanup flushes and closes the file; call it once on
// shutdown.
func Setup(opts Options) (*slog.Logger, func(), error) {
	if opts.Path == "" {
		opts.Path = DefaultLogPath()
	}
	w, err := NewRollingWriter(opts.Path, opts.MaxSizeMB, opts.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = w
	if opts.AlsoStderr {
		out = io.MultiWriter(w, os.Stderr)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	cleanup := func() {
		_ = w.Sync()
		_ = w.Close()
	}
	return slog.New(handler), cleanup, nil
}

// ParseLevel maps a level name to its slog.Level, defaulting unknown
// names to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DefaultLogDir is ~/.syntondb/logs, or its equivalent under the temp
// dir when no home directory resolves.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".syntondb", "logs")
}

// DefaultLogPath is the engine log file inside DefaultLogDir.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "syntondb.log")
}

// FindLogFile resolves the log file to view: the explicit path when
// given, otherwise the default location. Errors if neither exists.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("log file not found: %s", explicit)
		}
		return explicit, nil
	}
	path := DefaultLogPath()
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no log file at %s; run with --debug to produce one", path)
	}
	return path, nil
}
