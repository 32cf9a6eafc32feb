// Package store provides SQLite-based persistence for pggit.
// It manages the append-only history ledger, branches, commits, schema
// objects, the dependency graph, and merge/rollback operation records.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store represents the SQLite database store
type Store struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx so store methods can run
// standalone or inside an enclosing transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// New creates a new store connection
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for advanced queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// InTx runs fn inside a single transaction with commit-or-full-rollback
// semantics. Any error from fn rolls back everything fn did.
func (s *Store) InTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Initialize creates the database schema
func (s *Store) Initialize() error {
	schema := `
	-- Branches (metadata owned by the branch-CRUD collaborator; this core
	-- reads them and updates status/head_commit as a merge/rollback side effect)
	CREATE TABLE IF NOT EXISTS branches (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		parent_branch_id TEXT,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		head_commit TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Commits
	CREATE TABLE IF NOT EXISTS commits (
		hash TEXT PRIMARY KEY,
		branch_id TEXT NOT NULL,
		parent_hash TEXT,
		merge_parent_hash TEXT,
		author TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		entry_count INTEGER DEFAULT 0,
		FOREIGN KEY (branch_id) REFERENCES branches(id)
	);

	-- Schema object identities
	CREATE TABLE IF NOT EXISTS schema_objects (
		id TEXT PRIMARY KEY,
		object_type TEXT NOT NULL,
		schema_name TEXT NOT NULL,
		object_name TEXT NOT NULL,
		UNIQUE(schema_name, object_name, object_type)
	);

	-- History ledger (append-only; rows are never updated or deleted)
	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		object_id TEXT NOT NULL,
		branch_id TEXT NOT NULL,
		change_type TEXT NOT NULL,
		before_hash TEXT,
		after_hash TEXT,
		before_def TEXT,
		after_def TEXT,
		commit_hash TEXT,
		author TEXT NOT NULL DEFAULT '',
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (object_id) REFERENCES schema_objects(id),
		FOREIGN KEY (branch_id) REFERENCES branches(id)
	);

	-- Derived per-branch head index: latest active history entry per object.
	-- Only appends advance it; it is never edited independently.
	CREATE TABLE IF NOT EXISTS object_heads (
		branch_id TEXT NOT NULL,
		object_id TEXT NOT NULL,
		history_id INTEGER NOT NULL,
		PRIMARY KEY (branch_id, object_id),
		FOREIGN KEY (history_id) REFERENCES history(id)
	);

	-- Dependency graph (read-mostly; maintained externally)
	CREATE TABLE IF NOT EXISTS dependencies (
		source_object_id TEXT NOT NULL,
		target_object_id TEXT NOT NULL,
		dep_type TEXT NOT NULL,
		strength TEXT NOT NULL,
		PRIMARY KEY (source_object_id, target_object_id, dep_type)
	);

	-- Merge operations and their recorded conflicts
	CREATE TABLE IF NOT EXISTS merges (
		id TEXT PRIMARY KEY,
		source_branch TEXT NOT NULL,
		target_branch TEXT NOT NULL,
		merge_base TEXT NOT NULL,
		strategy TEXT NOT NULL,
		status TEXT NOT NULL,
		conflicts_detected INTEGER DEFAULT 0,
		conflicts_resolved INTEGER DEFAULT 0,
		result_commit TEXT,
		message TEXT,
		author TEXT NOT NULL DEFAULT '',
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS merge_conflicts (
		merge_id TEXT NOT NULL,
		object_id TEXT NOT NULL,
		object_type TEXT NOT NULL,
		object_name TEXT NOT NULL,
		conflict_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		base_hash TEXT,
		source_hash TEXT,
		target_hash TEXT,
		base_def TEXT,
		source_def TEXT,
		target_def TEXT,
		auto_resolvable BOOLEAN DEFAULT FALSE,
		resolved BOOLEAN DEFAULT FALSE,
		resolution TEXT,
		resolved_def TEXT,
		PRIMARY KEY (merge_id, object_id),
		FOREIGN KEY (merge_id) REFERENCES merges(id)
	);

	-- Rollback operations
	CREATE TABLE IF NOT EXISTS rollbacks (
		id TEXT PRIMARY KEY,
		branch_id TEXT NOT NULL,
		source_commit TEXT NOT NULL,
		target_commit TEXT,
		rollback_type TEXT NOT NULL,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		rollback_commit TEXT,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME
	);

	-- Config / misc
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT
	);

	-- Indexes
	CREATE INDEX IF NOT EXISTS idx_history_object_branch ON history(object_id, branch_id);
	CREATE INDEX IF NOT EXISTS idx_history_branch_time ON history(branch_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_history_commit ON history(commit_hash);
	CREATE INDEX IF NOT EXISTS idx_commits_branch ON commits(branch_id);
	CREATE INDEX IF NOT EXISTS idx_deps_target ON dependencies(target_object_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// GetValue gets a value from the key-value store
func (s *Store) GetValue(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetValue sets a value in the key-value store
func (s *Store) SetValue(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = ?",
		key, value, value,
	)
	return err
}

// parseTimestamp parses a timestamp string from SQLite in various formats
func parseTimestamp(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999+07:00",
		"2006-01-02 15:04:05.999999-07:00",
		"2006-01-02 15:04:05.999999+07:00",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05+07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// nullable converts an empty string to a NULL-able value
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
