package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/synton-db/syntondb/internal/config"
	"github.com/synton-db/syntondb/internal/engine"
)

// resolveDataDir finds the project root (nearest .git or .syntondb.yaml
// ancestor) and returns its .syntondb subdirectory, unless --data-dir
// overrides it explicitly.
func resolveDataDir() (string, error) {
	if dataDirFlag != "" {
		return dataDirFlag, nil
	}
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(root, ".syntondb"), nil
}

// openEngine resolves the data directory, loads layered configuration,
// and opens an Engine rooted there. Callers must call the returned
// close func once done.
func openEngine(ctx context.Context) (*engine.Engine, func() error, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(filepath.Dir(dataDir))
	if err != nil {
		return nil, nil, err
	}

	e, err := engine.Open(ctx, dataDir, cfg)
	if err != nil {
		return nil, nil, err
	}
	return e, e.Close, nil
}
