package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/readmark/readmark/internal/model"
	"github.com/readmark/readmark/internal/normalize"
)

// AnchorDB provides SQLite-based storage for verification runs.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all books rather
// than one file per book. This makes cross-book queries (history
// listings, compare) trivial and simplifies backup/restore.
type AnchorDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures AnchorDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an AnchorDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*AnchorDB, error) {
	dbPath := filepath.Join(dbDir, "readmark.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple readers don't help a
	// CLI that runs one batch at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AnchorDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Close closes the database connection.
func (adb *AnchorDB) Close() error {
	return adb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (adb *AnchorDB) createTables() error {
	schema := `
	-- Runs store one citation verification result per book per invocation
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_title TEXT NOT NULL,
		normalized_title TEXT NOT NULL,
		backup_file TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		total INTEGER NOT NULL,
		matched INTEGER NOT NULL,
		partial INTEGER NOT NULL,
		unmatched INTEGER NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_title ON runs(normalized_title);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores one verification run. backupFile names the backup the
// highlights came from; empty is fine for direct invocations.
func (adb *AnchorDB) SaveRun(ctx context.Context, report *model.CitationReport, backupFile string) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO runs (book_title, normalized_title, backup_file, total, matched, partial, unmatched, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = adb.db.ExecContext(ctx, query,
		report.BookTitle,
		normalize.Fold(report.BookTitle),
		backupFile,
		report.Total,
		report.Matched,
		report.Partial,
		report.Unmatched,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// GetLatestRun retrieves the most recent run for a book title.
// Title lookup is case and accent insensitive. Returns nil when the
// book has never been processed.
func (adb *AnchorDB) GetLatestRun(ctx context.Context, bookTitle string) (*model.CitationReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE normalized_title = ?
	ORDER BY timestamp DESC
	LIMIT 1
	`

	var reportJSON string
	err := adb.db.QueryRowContext(ctx, query, normalize.Fold(bookTitle)).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.CitationReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetRunHistory retrieves all runs for a book, newest first.
func (adb *AnchorDB) GetRunHistory(ctx context.Context, bookTitle string) ([]*model.CitationReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE normalized_title = ?
	ORDER BY timestamp DESC
	`

	rows, err := adb.db.QueryContext(ctx, query, normalize.Fold(bookTitle))
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var reports []*model.CitationReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		var report model.CitationReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// ListBooks returns the titles of every book with at least one run.
func (adb *AnchorDB) ListBooks(ctx context.Context) ([]string, error) {
	query := `
	SELECT book_title FROM runs
	GROUP BY normalized_title
	ORDER BY book_title
	`

	rows, err := adb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, title)
	}

	return titles, rows.Err()
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying run history without loading the full report.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// BookTitle is the book the run covered.
	BookTitle string

	// BackupFile is the backup the highlights came from.
	BackupFile string

	// Timestamp is when the run was stored.
	Timestamp time.Time

	// Total, Matched, Partial and Unmatched are the stored tallies.
	Total     int
	Matched   int
	Partial   int
	Unmatched int
}

// GetRunHistoryWithMetadata retrieves run metadata for a book.
// This is more efficient than GetRunHistory when only tallies are needed.
func (adb *AnchorDB) GetRunHistoryWithMetadata(ctx context.Context, bookTitle string) ([]RunMetadata, error) {
	query := `
	SELECT id, book_title, backup_file, timestamp, total, matched, partial, unmatched
	FROM runs
	WHERE normalized_title = ?
	ORDER BY timestamp DESC
	`

	rows, err := adb.db.QueryContext(ctx, query, normalize.Fold(bookTitle))
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var backupFile sql.NullString
		var timestamp string

		if err := rows.Scan(&meta.ID, &meta.BookTitle, &backupFile, &timestamp,
			&meta.Total, &meta.Matched, &meta.Partial, &meta.Unmatched); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.BackupFile = backupFile.String
		meta.Timestamp = parseTimestamp(timestamp)

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetRunByID retrieves a run's full report by its database ID.
func (adb *AnchorDB) GetRunByID(ctx context.Context, id int64) (*model.CitationReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE id = ?
	`

	var reportJSON string
	err := adb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.CitationReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
