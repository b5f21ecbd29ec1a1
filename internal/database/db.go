// Package database opens and maintains the SQLite file behind the price
// history store.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stockdash/stockdash/pkg/embedded"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrCorrupted is returned by IntegrityCheck when SQLite reports damage.
var ErrCorrupted = errors.New("database corrupted")

// pragmas tune the connection for rebuildable data: WAL with no fsync.
var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(OFF)",
	"auto_vacuum(FULL)",
	"temp_store(MEMORY)",
	"busy_timeout(5000)",
}

// DB is an open SQLite database with its embedded schema name.
type DB struct {
	conn *sql.DB
	path string
	name string
}

// Config holds database configuration
type Config struct {
	Path string
	Name string // also selects schemas/<name>_schema.sql
}

// New opens the database at cfg.Path, creating its directory when needed.
func New(cfg Config) (*DB, error) {
	// file: URIs are used for in-memory databases and skip path handling
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		cfg.Path = absPath
	}

	conn, err := sql.Open("sqlite", connectionString(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}
	conn.SetMaxOpenConns(8)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{conn: conn, path: cfg.Path, name: cfg.Name}, nil
}

func connectionString(path string) string {
	params := make([]string, len(pragmas))
	for i, p := range pragmas {
		params[i] = "_pragma=" + p
	}
	return path + "?" + strings.Join(params, "&")
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying connection pool for repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the database name for logging
func (db *DB) Name() string {
	return db.name
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Migrate applies schemas/<name>_schema.sql in one transaction. A database
// without a schema file is left untouched. Schemas use IF NOT EXISTS.
func (db *DB) Migrate() error {
	schemaFile := "schemas/" + db.name + "_schema.sql"
	content, err := fs.ReadFile(embedded.Files, schemaFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read schema %s: %w", schemaFile, err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration of %s: %w", db.name, err)
	}
	if _, err := tx.Exec(string(content)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to execute schema %s for %s: %w", schemaFile, db.name, err)
	}
	return tx.Commit()
}

// QuickCheck pings the connection without touching the pages.
func (db *DB) QuickCheck(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// IntegrityCheck runs PRAGMA integrity_check and returns ErrCorrupted with the
// first reported problem when the result is not "ok".
func (db *DB) IntegrityCheck(ctx context.Context) error {
	var result string
	if err := db.conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check on %s: %w", db.name, err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: %s: %s", ErrCorrupted, db.name, result)
	}
	return nil
}

// CheckpointResult is the row returned by PRAGMA wal_checkpoint.
type CheckpointResult struct {
	Busy         bool
	WALPages     int
	Checkpointed int
}

// Checkpoint runs a passive WAL checkpoint, which never blocks writers.
func (db *DB) Checkpoint(ctx context.Context) (CheckpointResult, error) {
	var (
		busy int
		res  CheckpointResult
	)
	if err := db.conn.QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &res.WALPages, &res.Checkpointed); err != nil {
		return CheckpointResult{}, fmt.Errorf("wal checkpoint on %s: %w", db.name, err)
	}
	res.Busy = busy != 0
	return res, nil
}

// Stats describes the on-disk footprint of a database.
type Stats struct {
	SizeBytes int64 `json:"size_bytes"`
	PageCount int64 `json:"page_count"`
	PageSize  int64 `json:"page_size"`
	FreePages int64 `json:"free_pages"`
}

// GetStats reads the file size and page counters.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	if fileInfo, err := os.Stat(db.path); err == nil {
		stats.SizeBytes = fileInfo.Size()
	}

	for _, p := range []struct {
		pragma string
		dest   *int64
	}{
		{"page_count", &stats.PageCount},
		{"page_size", &stats.PageSize},
		{"freelist_count", &stats.FreePages},
	} {
		if err := db.conn.QueryRowContext(ctx, "PRAGMA "+p.pragma).Scan(p.dest); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p.pragma, err)
		}
	}

	return stats, nil
}
