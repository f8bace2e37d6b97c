package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// MigrateStateFile 将文件后端的状态导入 SQLite
// MigrateStateFile imports the file backend's state document into store
// for projectDir. It does nothing when the file is missing or the project
// already has a row. It reports whether a document was imported.
func MigrateStateFile(statePath, projectDir string, store Store) (bool, error) {
	statePath = strings.TrimSpace(statePath)
	if statePath == "" {
		return false, nil
	}
	data, err := os.ReadFile(statePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read state file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return false, nil
	}

	// 检查是否已存在 / Check if already migrated
	existing, err := store.LoadState(projectDir)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if err := store.SaveState(projectDir, data); err != nil {
		return false, err
	}
	return true, nil
}
