package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MaxBackups bounds how many timestamped copies of the user config are
// kept; older ones are pruned after each new backup.
const MaxBackups = 3

// BackupSuffix separates a backup's timestamp from the config filename.
const BackupSuffix = ".bak"

// BackupUserConfig snapshots the user config file next to itself as
// <name>.bak.<timestamp> and prunes old snapshots. Returns "" when
// there is no user config to back up.
func BackupUserConfig() (string, error) {
	if !UserConfigExists() {
		return "", nil
	}
	src := GetUserConfigPath()
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("read config for backup: %w", err)
	}

	dst := fmt.Sprintf("%s%s.%s", src, BackupSuffix, time.Now().Format("20060102-150405"))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write config backup: %w", err)
	}

	// Pruning is best-effort; the snapshot above already succeeded.
	if backups, err := ListUserConfigBackups(); err == nil && len(backups) > MaxBackups {
		for _, stale := range backups[MaxBackups:] {
			_ = os.Remove(stale)
		}
	}
	return dst, nil
}

// ListUserConfigBackups returns the user config's backup files, newest
// first.
func ListUserConfigBackups() ([]string, error) {
	src := GetUserConfigPath()
	dir := filepath.Dir(src)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list config directory: %w", err)
	}

	prefix := filepath.Base(src) + BackupSuffix + "."
	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Slice(backups, func(i, j int) bool {
		a, errA := os.Stat(backups[i])
		b, errB := os.Stat(backups[j])
		if errA != nil || errB != nil {
			return false
		}
		return a.ModTime().After(b.ModTime())
	})
	return backups, nil
}

// RestoreUserConfig replaces the user config with the given backup,
// snapshotting the current config first so the restore itself can be
// undone.
func RestoreUserConfig(backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	if UserConfigExists() {
		if _, err := BackupUserConfig(); err != nil {
			return fmt.Errorf("snapshot current config before restore: %w", err)
		}
	}
	if err := os.MkdirAll(GetUserConfigDir(), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(GetUserConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("write restored config: %w", err)
	}
	return nil
}
