// Package storage is the SQLite persistence backend: tracker state per
// project plus a log of reconciliation passes.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore 基于 SQLite (WAL 模式) 的持久化实现
// SQLiteStore implements Store using SQLite with WAL mode
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore 创建并初始化 SQLite 数据库
// NewSQLiteStore creates and initializes a SQLite database
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// 启用 WAL 模式和优化 PRAGMA / Enable WAL and performance PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tracker_state (
		project_dir TEXT PRIMARY KEY,
		payload     TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sync_events (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id      TEXT NOT NULL DEFAULT '',
		project_dir     TEXT NOT NULL DEFAULT '',
		story_id        TEXT NOT NULL DEFAULT '',
		processed       INTEGER NOT NULL DEFAULT 0,
		matched_id      INTEGER NOT NULL DEFAULT 0,
		matched_exact   INTEGER NOT NULL DEFAULT 0,
		matched_similar INTEGER NOT NULL DEFAULT 0,
		low_confidence  INTEGER NOT NULL DEFAULT 0,
		identity_misses INTEGER NOT NULL DEFAULT 0,
		locate_misses   INTEGER NOT NULL DEFAULT 0,
		updated         INTEGER NOT NULL DEFAULT 0,
		invalid         INTEGER NOT NULL DEFAULT 0,
		dry_run         INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sync_events_project ON sync_events(project_dir, id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	// databases created before the invalid counter existed
	return s.ensureColumn("sync_events", "invalid", "INTEGER NOT NULL DEFAULT 0")
}

func (s *SQLiteStore) ensureColumn(table, column, decl string) error {
	rows, err := s.db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("inspect %s: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	if _, err := s.db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl)); err != nil {
		return fmt.Errorf("add %s.%s: %w", table, column, err)
	}
	return nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// Close 关闭数据库连接 / Close the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// --- Tracker State ---

// LoadState returns the state document of projectDir, or nil when none
// was saved.
func (s *SQLiteStore) LoadState(projectDir string) ([]byte, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM tracker_state WHERE project_dir=?`, projectDir).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return []byte(payload), nil
}

// SaveState replaces the state document of projectDir.
func (s *SQLiteStore) SaveState(projectDir string, data []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO tracker_state (project_dir, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(project_dir) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
		projectDir, string(data), nowUTC())
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// --- Sync Events ---

func (s *SQLiteStore) RecordSyncEvent(ev SyncEvent) error {
	created := ev.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO sync_events (session_id, project_dir, story_id, processed, matched_id, matched_exact,
			matched_similar, low_confidence, identity_misses, locate_misses, updated, invalid, dry_run, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.SessionID, ev.ProjectDir, ev.StoryID, ev.Processed, ev.MatchedID, ev.MatchedExact,
		ev.MatchedSimilar, ev.LowConfidence, ev.IdentityMisses, ev.LocateMisses, ev.Updated,
		ev.Invalid, boolToInt(ev.DryRun), created.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record sync event: %w", err)
	}
	return nil
}

// ListSyncEvents returns the newest events of projectDir first. An empty
// projectDir lists every project; limit <= 0 means no limit.
func (s *SQLiteStore) ListSyncEvents(projectDir string, limit int) ([]SyncEvent, error) {
	query := `
		SELECT id, session_id, project_dir, story_id, processed, matched_id, matched_exact, matched_similar,
			low_confidence, identity_misses, locate_misses, updated, invalid, dry_run, created_at
		FROM sync_events`
	var args []any
	if projectDir != "" {
		query += ` WHERE project_dir=?`
		args = append(args, projectDir)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sync events: %w", err)
	}
	defer rows.Close()

	var events []SyncEvent
	for rows.Next() {
		var ev SyncEvent
		var dryRun int
		var created string
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.ProjectDir, &ev.StoryID, &ev.Processed,
			&ev.MatchedID, &ev.MatchedExact, &ev.MatchedSimilar, &ev.LowConfidence,
			&ev.IdentityMisses, &ev.LocateMisses, &ev.Updated, &ev.Invalid, &dryRun, &created); err != nil {
			continue
		}
		ev.DryRun = dryRun != 0
		ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// --- Helpers ---

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
