package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/phishguard/phishguard/internal/model"
)

// dbFileName is the SQLite file created inside the data directory.
const dbFileName = "phishguard.db"

// HistoryDB stores the append-only scan-history log.
// Writes are serialized by the single-connection pool; reads never require
// read-modify-write coordination because rows are immutable once inserted.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// read performance while scans insert.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in the specified directory.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

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

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
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

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY churn while keeping the append-only write path simple.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// Path returns the SQLite file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Scan history is append-only: one row per completed scan.
	CREATE TABLE IF NOT EXISTS scan_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		verdict TEXT NOT NULL,
		score REAL NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON scan_history(timestamp);
	CREATE INDEX IF NOT EXISTS idx_history_verdict ON scan_history(verdict);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// InsertScan appends one history row for a completed scan.
func (hdb *HistoryDB) InsertScan(ctx context.Context, verdict model.Verdict, score float64) (int64, error) {
	result, err := hdb.db.ExecContext(ctx,
		`INSERT INTO scan_history (verdict, score) VALUES (?, ?)`,
		string(verdict), score,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert history row: %w", err)
	}
	return result.LastInsertId()
}

// RecentScans returns up to limit history rows, most recent first.
func (hdb *HistoryDB) RecentScans(ctx context.Context, limit int) ([]model.HistoryRecord, error) {
	if limit <= 0 {
		return []model.HistoryRecord{}, nil
	}

	rows, err := hdb.db.QueryContext(ctx,
		`SELECT id, verdict, score, timestamp
		 FROM scan_history
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	records := make([]model.HistoryRecord, 0, limit)
	for rows.Next() {
		var rec model.HistoryRecord
		var verdict string
		var timestamp string
		if err := rows.Scan(&rec.ID, &verdict, &rec.Score, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		rec.Verdict = model.Verdict(verdict)
		rec.Timestamp = parseTimestamp(timestamp)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Stats returns aggregate counts over the whole history log.
func (hdb *HistoryDB) Stats(ctx context.Context) (model.HistoryStats, error) {
	var stats model.HistoryStats

	err := hdb.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN verdict = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN verdict = ? THEN 1 ELSE 0 END), 0)
		 FROM scan_history`,
		string(model.VerdictPhishing), string(model.VerdictLegitimate),
	).Scan(&stats.TotalScans, &stats.PhishingScans, &stats.LegitimateScans)
	if err != nil {
		return model.HistoryStats{}, fmt.Errorf("failed to query history stats: %w", err)
	}

	return stats, nil
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
