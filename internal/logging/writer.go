package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RollingWriter is an io.Writer over a single log file that rolls to
// numbered siblings (name.1, name.2, ...) once the active file passes a
// size bound, dropping the oldest once maxFiles exist.
type RollingWriter struct {
	path     string
	maxBytes int64
	maxFiles int

	mu      sync.Mutex
	file    *os.File
	size    int64
	eagerly bool // fsync every write so `syntondb logs -f` sees records live
}

// NewRollingWriter opens (creating as needed) the log file at path.
// maxSizeMB bounds the active file; maxFiles bounds the rotation chain.
func NewRollingWriter(path string, maxSizeMB, maxFiles int) (*RollingWriter, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if maxFiles <= 0 {
		maxFiles = 5
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	w := &RollingWriter{
		path:     path,
		maxBytes: int64(maxSizeMB) << 20,
		maxFiles: maxFiles,
		eagerly:  true,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// SetImmediateSync toggles per-write fsync. On (the default), a tailing
// reader sees records as they happen; off trades that for throughput.
func (w *RollingWriter) SetImmediateSync(enabled bool) {
	w.mu.Lock()
	w.eagerly = enabled
	w.mu.Unlock()
}

func (w *RollingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size+int64(len(p)) > w.maxBytes {
		if err := w.roll(); err != nil {
			// Keep logging into the oversized file rather than dropping
			// records.
			fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	if err == nil && w.eagerly {
		_ = w.file.Sync()
	}
	return n, err
}

// Sync flushes the active file to disk.
func (w *RollingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Close closes the active file.
func (w *RollingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *RollingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

// roll shifts the rotation chain up by one slot — name.(k) becomes
// name.(k+1), the oldest falls off the end — then moves the active file
// to name.1 and reopens a fresh one.
func (w *RollingWriter) roll() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("close before rotation: %w", err)
		}
		w.file = nil
	}

	for k := w.maxFiles; k >= 1; k-- {
		slot := fmt.Sprintf("%s.%d", w.path, k)
		if _, err := os.Stat(slot); err != nil {
			continue
		}
		if k == w.maxFiles {
			_ = os.Remove(slot)
			continue
		}
		_ = os.Rename(slot, fmt.Sprintf("%s.%d", w.path, k+1))
	}
	if _, err := os.Stat(w.path); err == nil {
		if err := os.Rename(w.path, w.path+".1"); err != nil {
			return fmt.Errorf("rotate active log file: %w", err)
		}
	}

	w.size = 0
	return w.open()
}
