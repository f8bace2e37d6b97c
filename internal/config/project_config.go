package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InitProjectConfigScaffold 在 projectDir 下初始化项目级配置模板（./.storysync/config.json）。
// InitProjectConfigScaffold writes a project-level config scaffold to
// projectDir/.storysync/config.json. An existing file is left alone. It
// returns the config path.
func InitProjectConfigScaffold(projectDir string) (string, error) {
	dir := filepath.Join(strings.TrimSpace(projectDir), ".storysync")
	path := filepath.Join(dir, "config.json")

	// 若项目已经有配置，则尊重用户现有配置。
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return "", fmt.Errorf("project config path is a directory: %s", path)
		}
		return path, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat project config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir .storysync: %w", err)
	}

	cfg := Default()
	scaffold := map[string]any{
		"sync":    cfg.Sync,
		"story":   map[string]any{"dirs": cfg.Story.Dirs, "core_config": cfg.Story.CoreConfig},
		"storage": map[string]any{"backend": cfg.Storage.Backend},
		"log":     map[string]any{"level": cfg.Log.Level},
	}
	data, err := json.MarshalIndent(scaffold, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write project config: %w", err)
	}
	return path, nil
}

// WriteSyncEnabled 将 sync.enabled 写入项目配置（./.storysync/config.json）；目录不存在则创建
// WriteSyncEnabled writes sync.enabled to the project config, keeping the
// other keys; creates the directory if needed.
func WriteSyncEnabled(projectDir string, enabled bool) error {
	dir := filepath.Join(strings.TrimSpace(projectDir), ".storysync")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir .storysync: %w", err)
	}
	path := filepath.Join(dir, "config.json")
	var root map[string]any
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(stripJSONComments(data), &root); err != nil {
			root = nil
		}
	}
	if root == nil {
		root = make(map[string]any)
	}
	syncMap, _ := root["sync"].(map[string]any)
	if syncMap == nil {
		syncMap = make(map[string]any)
	}
	syncMap["enabled"] = enabled
	root["sync"] = syncMap
	data, err = json.MarshalIndent(root, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
