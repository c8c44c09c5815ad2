package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"pdftriage/internal/record"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes incompatibly.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const insertRecordSQL = `INSERT OR IGNORE INTO records
	(file_path, file_size_bytes, page_count, category, error_message, processing_time_ms, run_id)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

type sqliteWriter struct {
	db    *sql.DB
	runID string
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	return db, nil
}

func openSQLite(path, runID string) (*sqliteWriter, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteWriter{db: db, runID: runID}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	var tableExists int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return createSchema(ctx, db)
	}

	var version int
	if err := db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (move the store aside to start fresh)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// WriteBatch inserts the batch in one transaction. Paths already present are
// left untouched so a store never holds two records for one path.
func (s *sqliteWriter) WriteBatch(ctx context.Context, batch []record.Record) error {
	if len(batch) == 0 {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin batch tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, insertRecordSQL)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range batch {
			if _, err := stmt.ExecContext(ctx,
				rec.Path,
				int64(rec.SizeBytes),
				int64(rec.PageCount),
				string(rec.Category),
				rec.Error,
				float64(rec.Duration)/float64(time.Millisecond),
				s.runID,
			); err != nil {
				return fmt.Errorf("insert %s: %w", rec.Path, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
		return nil
	})
}

func (s *sqliteWriter) Close() error {
	_, ckptErr := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	closeErr := s.db.Close()
	if ckptErr != nil {
		ckptErr = fmt.Errorf("checkpoint sqlite store: %w", ckptErr)
	}
	return errors.Join(ckptErr, closeErr)
}

func readSQLite(path string, fn func(record.Record) error, onSkip SkipFunc) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := checkSchemaVersion(ctx, db); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `SELECT rowid, file_path, file_size_bytes, page_count, category, error_message, processing_time_ms
		FROM records ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rowid    int
			rec      record.Record
			size     int64
			pages    int64
			category string
			ms       float64
		)
		if err := rows.Scan(&rowid, &rec.Path, &size, &pages, &category, &rec.Error, &ms); err != nil {
			return fmt.Errorf("scan record: %w", err)
		}
		rec.SizeBytes = uint64(max(size, 0))
		rec.PageCount = uint64(max(pages, 0))
		if rec.Category, err = record.ParseCategory(category); err != nil {
			err = fmt.Errorf("record %s: %w", rec.Path, err)
			if onSkip == nil {
				return err
			}
			onSkip(rowid, err)
			continue
		}
		rec.Duration = time.Duration(ms * float64(time.Millisecond))
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

func checkSchemaVersion(ctx context.Context, db *sql.DB) error {
	var version int
	err := db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
