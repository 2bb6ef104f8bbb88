package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS dispatches (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	tool TEXT NOT NULL,
	outcome TEXT NOT NULL,
	error_code TEXT,
	exit_code INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL,
	trace_id TEXT,
	source TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_dispatches_tool
ON dispatches(tool, created_at);`

// SQLiteStore persists dispatch records in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite-backed history store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("history sqlite store dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history sqlite store open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history sqlite store set WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history sqlite store create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO dispatches
	(id, tool, outcome, error_code, exit_code, duration_ms, trace_id, source, created_at)
VALUES
	(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Tool,
		rec.Outcome,
		nullIfEmpty(rec.ErrorCode),
		rec.ExitCode,
		rec.DurationMS,
		nullIfEmpty(rec.TraceID),
		rec.Source,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("history sqlite store append: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	query := `
SELECT id, tool, outcome, error_code, exit_code, duration_ms, trace_id, source, created_at
FROM dispatches
ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history sqlite store list: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history sqlite store list rows: %w", err)
	}
	return records, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type recordScanner interface {
	Scan(dest ...any) error
}

func scanRecord(scanner recordScanner) (Record, error) {
	var (
		id         string
		tool       string
		outcome    string
		errorCode  sql.NullString
		exitCode   int
		durationMS int64
		traceID    sql.NullString
		source     string
		createdAt  string
	)
	if err := scanner.Scan(&id, &tool, &outcome, &errorCode, &exitCode, &durationMS, &traceID, &source, &createdAt); err != nil {
		return Record{}, fmt.Errorf("history sqlite store scan: %w", err)
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Record{}, fmt.Errorf("history sqlite store parse created_at: %w", err)
	}

	return Record{
		ID:         id,
		Tool:       tool,
		Outcome:    outcome,
		ErrorCode:  errorCode.String,
		ExitCode:   exitCode,
		DurationMS: durationMS,
		TraceID:    traceID.String,
		Source:     source,
		CreatedAt:  created,
	}, nil
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

var _ Store = (*SQLiteStore)(nil)
