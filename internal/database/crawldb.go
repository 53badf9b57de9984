package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the database file created inside the data directory.
const FileName = "menuscan.db"

// CrawlDB provides SQLite-based storage for crawl results and batch state.
// It is safe for concurrent use.
type CrawlDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}
	dsn += "&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

func (cdb *CrawlDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Latest crawl of each business
	CREATE TABLE IF NOT EXISTS crawl_results (
		business_id TEXT PRIMARY KEY,
		seed_url TEXT NOT NULL,
		origin TEXT NOT NULL,
		extracted_text TEXT NOT NULL,
		urls TEXT NOT NULL,
		state TEXT NOT NULL,
		failures INTEGER NOT NULL DEFAULT 0,
		started_at TEXT,
		finished_at TEXT,
		result_json TEXT NOT NULL,
		saved_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_saved ON crawl_results(saved_at);

	-- Pages processed by the latest crawl of each business
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		business_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		kind TEXT NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		title TEXT,
		text_bytes INTEGER NOT NULL DEFAULT 0,
		duplicate INTEGER NOT NULL DEFAULT 0,
		raw_hash TEXT,
		UNIQUE(business_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_business ON pages(business_id);
	CREATE INDEX IF NOT EXISTS idx_pages_hash ON pages(raw_hash);

	-- Batch work queue; seq is the checkpoint order
	CREATE TABLE IF NOT EXISTS crawl_jobs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		business_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_status ON crawl_jobs(status, seq);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// Put stores value under key, replacing any previous value.
func (cdb *CrawlDB) Put(ctx context.Context, key, value string) error {
	query := `
	INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := cdb.db.ExecContext(ctx, query, key, value, formatTimestamp(time.Now())); err != nil {
		return fmt.Errorf("failed to put %q: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key. The boolean is false when the key
// does not exist.
func (cdb *CrawlDB) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := cdb.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return value, true, nil
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
