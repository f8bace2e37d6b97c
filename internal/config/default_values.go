package config

const (
	DefaultSimilarityFloor = 0.7
	DefaultSearchRadius    = 15

	DefaultStoryDir       = "docs/stories"
	DefaultCoreConfig     = ".bmad-core/core-config.yaml"
	DefaultStorageBaseDir = "~/.storysync"
	DefaultStorageBackend = BackendFile
	DefaultLogLevel       = "info"
	DefaultTokenBudget    = 1200
	DefaultTokenEncoding  = "cl100k_base"
	DefaultStateFileName  = "state.json"
	DefaultDatabaseName   = "storysync.db"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)
