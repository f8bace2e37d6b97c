package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"storysync/internal/story"
)

type SyncConfig struct {
	// Enabled 控制是否回写 checkbox / Enabled gates checkbox write-back
	Enabled         bool    `json:"enabled"`
	SimilarityFloor float64 `json:"similarity_floor"`
	SearchRadius    int     `json:"search_radius"`
	DryRun          bool    `json:"dry_run"`
}

type StoryConfig struct {
	Dirs       []string `json:"dirs"`
	CoreConfig string   `json:"core_config"`
	// HeadingAliases 以 section 名为键追加标题别名
	// HeadingAliases adds heading aliases keyed by section name.
	HeadingAliases map[string][]string `json:"heading_aliases"`
}

type StorageConfig struct {
	BaseDir string `json:"base_dir"`
	Backend string `json:"backend"`
}

type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type MetricsConfig struct {
	Textfile string `json:"textfile"`
}

type ContextConfig struct {
	TokenBudget int    `json:"token_budget"`
	Encoding    string `json:"encoding"`
}

type Config struct {
	WorkspaceRoot string        `json:"workspace_root"`
	Sync          SyncConfig    `json:"sync"`
	Story         StoryConfig   `json:"story"`
	Storage       StorageConfig `json:"storage"`
	Log           LogConfig     `json:"log"`
	Metrics       MetricsConfig `json:"metrics"`
	Context       ContextConfig `json:"context"`
}

type fileSyncConfig struct {
	Enabled         *bool    `json:"enabled"`
	SimilarityFloor *float64 `json:"similarity_floor"`
	SearchRadius    *int     `json:"search_radius"`
	DryRun          *bool    `json:"dry_run"`
}

type fileConfig struct {
	WorkspaceRoot *string         `json:"workspace_root"`
	Sync          *fileSyncConfig `json:"sync"`
	Story         *StoryConfig    `json:"story"`
	Storage       *StorageConfig  `json:"storage"`
	Log           *LogConfig      `json:"log"`
	Metrics       *MetricsConfig  `json:"metrics"`
	Context       *ContextConfig  `json:"context"`
}

func Default() Config {
	return Config{
		Sync: SyncConfig{
			Enabled:         true,
			SimilarityFloor: DefaultSimilarityFloor,
			SearchRadius:    DefaultSearchRadius,
		},
		Story: StoryConfig{
			Dirs:       []string{DefaultStoryDir},
			CoreConfig: DefaultCoreConfig,
		},
		Storage: StorageConfig{
			BaseDir: DefaultStorageBaseDir,
			Backend: DefaultStorageBackend,
		},
		Log: LogConfig{Level: DefaultLogLevel},
		Context: ContextConfig{
			TokenBudget: DefaultTokenBudget,
			Encoding:    DefaultTokenEncoding,
		},
	}
}

// Load 按 默认值 → 全局 → 项目 → 环境变量 的顺序合并配置
// Load merges defaults, the global file, the project file and the
// environment, in that order. The project file is looked up in the
// current directory.
func Load(path string) (Config, error) {
	return LoadFor(path, "")
}

// LoadFor is Load with the project file looked up under projectDir.
func LoadFor(path, projectDir string) (Config, error) {
	cfg := Default()

	for _, globalPath := range globalConfigPaths() {
		if err := mergeFromFile(&cfg, globalPath); err != nil {
			return Config{}, err
		}
	}

	resolvedPath := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("STORYSYNC_CONFIG_PATH")); envPath != "" {
		resolvedPath = envPath
	}
	if resolvedPath == "" {
		resolvedPath = findProjectConfigPath(projectDir)
	}
	if err := mergeFromFile(&cfg, resolvedPath); err != nil {
		return Config{}, err
	}

	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return applyEnv(cfg)
}

func globalConfigPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".storysync", "config.json")}
}

func findProjectConfigPath(dir string) string {
	candidates := []string{
		"storysync.config.json",
		".storysync/config.json",
	}
	for _, c := range candidates {
		if dir != "" {
			c = filepath.Join(dir, c)
		}
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", resolved, err)
	}

	cleaned := stripJSONComments(data)
	var fileCfg fileConfig
	if err := json.Unmarshal(cleaned, &fileCfg); err != nil {
		return fmt.Errorf("parse config %q: %w", resolved, err)
	}
	applyFileConfig(cfg, fileCfg)
	return nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.WorkspaceRoot != nil {
		cfg.WorkspaceRoot = *fc.WorkspaceRoot
	}
	if fc.Sync != nil {
		if fc.Sync.Enabled != nil {
			cfg.Sync.Enabled = *fc.Sync.Enabled
		}
		if fc.Sync.SimilarityFloor != nil {
			cfg.Sync.SimilarityFloor = *fc.Sync.SimilarityFloor
		}
		if fc.Sync.SearchRadius != nil {
			cfg.Sync.SearchRadius = *fc.Sync.SearchRadius
		}
		if fc.Sync.DryRun != nil {
			cfg.Sync.DryRun = *fc.Sync.DryRun
		}
	}
	if fc.Story != nil {
		cfg.Story = mergeStory(cfg.Story, *fc.Story)
	}
	if fc.Storage != nil {
		cfg.Storage = mergeStorage(cfg.Storage, *fc.Storage)
	}
	if fc.Log != nil {
		cfg.Log = mergeLog(cfg.Log, *fc.Log)
	}
	if fc.Metrics != nil && strings.TrimSpace(fc.Metrics.Textfile) != "" {
		cfg.Metrics.Textfile = fc.Metrics.Textfile
	}
	if fc.Context != nil {
		cfg.Context = mergeContext(cfg.Context, *fc.Context)
	}
}

func mergeStory(base StoryConfig, override StoryConfig) StoryConfig {
	if len(override.Dirs) > 0 {
		base.Dirs = append([]string(nil), override.Dirs...)
	}
	if strings.TrimSpace(override.CoreConfig) != "" {
		base.CoreConfig = override.CoreConfig
	}
	if len(override.HeadingAliases) > 0 {
		merged := make(map[string][]string, len(base.HeadingAliases)+len(override.HeadingAliases))
		for k, v := range base.HeadingAliases {
			merged[k] = append([]string(nil), v...)
		}
		for k, v := range override.HeadingAliases {
			merged[k] = append(merged[k], v...)
		}
		base.HeadingAliases = merged
	}
	return base
}

func mergeStorage(base StorageConfig, override StorageConfig) StorageConfig {
	if strings.TrimSpace(override.BaseDir) != "" {
		base.BaseDir = override.BaseDir
	}
	if strings.TrimSpace(override.Backend) != "" {
		base.Backend = override.Backend
	}
	return base
}

func mergeLog(base LogConfig, override LogConfig) LogConfig {
	if strings.TrimSpace(override.Level) != "" {
		base.Level = override.Level
	}
	if strings.TrimSpace(override.File) != "" {
		base.File = override.File
	}
	return base
}

func mergeContext(base ContextConfig, override ContextConfig) ContextConfig {
	if override.TokenBudget > 0 {
		base.TokenBudget = override.TokenBudget
	}
	if strings.TrimSpace(override.Encoding) != "" {
		base.Encoding = override.Encoding
	}
	return base
}

func normalize(cfg *Config) error {
	if cfg.Sync.SimilarityFloor <= 0 || cfg.Sync.SimilarityFloor > 1 {
		cfg.Sync.SimilarityFloor = DefaultSimilarityFloor
	}
	if cfg.Sync.SearchRadius <= 0 {
		cfg.Sync.SearchRadius = DefaultSearchRadius
	}

	// story 目录相对工作区解析，不做绝对化 / story dirs stay workspace-relative
	cfg.Story.Dirs = normalizeList(cfg.Story.Dirs)
	if len(cfg.Story.Dirs) == 0 {
		cfg.Story.Dirs = []string{DefaultStoryDir}
	}
	cfg.Story.CoreConfig = strings.TrimSpace(cfg.Story.CoreConfig)
	for section := range cfg.Story.HeadingAliases {
		if !story.Section(section).Valid() {
			return fmt.Errorf("unknown section %q in story.heading_aliases", section)
		}
	}

	storageDir, err := expandPath(cfg.Storage.BaseDir)
	if err != nil {
		return err
	}
	if storageDir == "" {
		if storageDir, err = expandPath(DefaultStorageBaseDir); err != nil {
			return err
		}
	}
	cfg.Storage.BaseDir = storageDir
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	switch cfg.Storage.Backend {
	case "":
		cfg.Storage.Backend = DefaultStorageBackend
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q (want %s or %s)", cfg.Storage.Backend, BackendFile, BackendSQLite)
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.File, err = expandPath(cfg.Log.File); err != nil {
		return err
	}
	if cfg.Metrics.Textfile, err = expandPath(cfg.Metrics.Textfile); err != nil {
		return err
	}

	if cfg.Context.TokenBudget <= 0 {
		cfg.Context.TokenBudget = DefaultTokenBudget
	}
	if strings.TrimSpace(cfg.Context.Encoding) == "" {
		cfg.Context.Encoding = DefaultTokenEncoding
	}
	cfg.WorkspaceRoot = strings.TrimSpace(cfg.WorkspaceRoot)
	return nil
}

func applyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv("STORYSYNC_SYNC_ENABLED")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid STORYSYNC_SYNC_ENABLED: %q", v)
		}
		cfg.Sync.Enabled = b
	}
	if v := strings.TrimSpace(os.Getenv("STORYSYNC_SIMILARITY_FLOOR")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 1 {
			return Config{}, fmt.Errorf("invalid STORYSYNC_SIMILARITY_FLOOR: %q", v)
		}
		cfg.Sync.SimilarityFloor = f
	}
	if v := strings.TrimSpace(os.Getenv("STORYSYNC_SEARCH_RADIUS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid STORYSYNC_SEARCH_RADIUS: %q", v)
		}
		cfg.Sync.SearchRadius = n
	}
	if v := strings.TrimSpace(os.Getenv("STORYSYNC_STATE_BACKEND")); v != "" {
		cfg.Storage.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("STORYSYNC_HOME")); v != "" {
		cfg.Storage.BaseDir = v
	}
	if v := strings.TrimSpace(os.Getenv("STORYSYNC_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}

	return cfg, normalize(&cfg)
}

// ParserOptions converts the configured heading aliases for the story
// parser.
func (c StoryConfig) ParserOptions() story.ParserOptions {
	if len(c.HeadingAliases) == 0 {
		return story.ParserOptions{}
	}
	aliases := make(map[story.Section][]string, len(c.HeadingAliases))
	for section, list := range c.HeadingAliases {
		aliases[story.Section(section)] = append([]string(nil), list...)
	}
	return story.ParserOptions{HeadingAliases: aliases}
}

// StatePath 文件后端的状态文件路径 / State file of the file backend
func (c Config) StatePath() string {
	return filepath.Join(c.Storage.BaseDir, DefaultStateFileName)
}

// DatabasePath 返回 SQLite 数据库路径 / SQLite database path
func (c Config) DatabasePath() string {
	return filepath.Join(c.Storage.BaseDir, DefaultDatabaseName)
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return filepath.Abs(path)
}

func stripJSONComments(data []byte) []byte {
	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	escaped := false
	out := bytes.Buffer{}

	for i := 0; i < len(data); i++ {
		c := data[i]
		next := byte(0)
		if i+1 < len(data) {
			next = data[i+1]
		}

		switch state {
		case stateNormal:
			if c == '"' {
				state = stateString
				out.WriteByte(c)
				continue
			}
			if c == '/' && next == '/' {
				state = stateLineComment
				i++
				continue
			}
			if c == '/' && next == '*' {
				state = stateBlockComment
				i++
				continue
			}
			out.WriteByte(c)
		case stateString:
			out.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out.Bytes()
}
