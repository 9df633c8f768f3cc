package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"deleteafter/internal/deferred"
)

// DB manages the SQLite database of finished helper runs
type DB struct {
	db *sql.DB
}

// Record represents a single finished run
type Record struct {
	ID             int64     `json:"id"`
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Target         string    `json:"target"`
	FileName       string    `json:"file_name"`
	ObjectType     string    `json:"object_type"`
	DelaySeconds   int64     `json:"delay_seconds"`
	DelayDefaulted bool      `json:"delay_defaulted"`
	Status         string    `json:"status"`
	Size           int64     `json:"size"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}

// Open creates a new database connection and initializes schema
func Open(dbPath string) (*DB, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// _loc=auto enables DATETIME parsing; the busy timeout lets helpers that
	// finish at the same moment queue up instead of failing with SQLITE_BUSY
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// Execute a query instead of Ping() so the file is created now
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	// WAL allows the query CLI to read while helpers write
	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	hdb := &DB{db: db}
	if err = hdb.initSchema(); err != nil {
		return nil, err
	}

	return hdb, nil
}

// initSchema creates tables and indexes if they don't exist
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		target TEXT NOT NULL,
		file_name TEXT,
		object_type TEXT NOT NULL,
		delay_seconds INTEGER NOT NULL,
		delay_defaulted INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,

		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_finished_at ON runs(finished_at);
	CREATE INDEX IF NOT EXISTS idx_status ON runs(status);
	CREATE INDEX IF NOT EXISTS idx_target ON runs(target);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// RecordRun inserts a finished run
func (d *DB) RecordRun(res deferred.Result) error {
	query := `
	INSERT INTO runs (
		run_id, started_at, finished_at, target, file_name, object_type,
		delay_seconds, delay_defaulted, status, size, error_message
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var errMsg sql.NullString
	if res.Err != nil {
		errMsg = sql.NullString{String: res.Err.Error(), Valid: true}
	}

	_, err := d.db.Exec(
		query,
		res.RunID,
		res.StartedAt.UTC(),
		res.FinishedAt.UTC(),
		res.Target,
		filepath.Base(res.Target),
		res.ObjectType,
		int64(res.Delay/time.Second),
		res.DelayDefaulted,
		string(res.Status),
		res.Size,
		errMsg,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", res.RunID, err)
	}
	return nil
}

// Observe implements deferred.Observer
func (d *DB) Observe(res deferred.Result) error {
	return d.RecordRun(res)
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// PathRecorder records results into the database at Path, opening it only
// when a result arrives so a waiting helper holds no connection
type PathRecorder struct {
	Path string
}

// Observe implements deferred.Observer
func (p PathRecorder) Observe(res deferred.Result) error {
	db, err := Open(p.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.RecordRun(res)
}
