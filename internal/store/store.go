package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"pdftriage/internal/record"
)

// Store formats.
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// ErrUnknownFormat is returned for an unsupported store format.
var ErrUnknownFormat = errors.New("unknown store format")

// Writer appends batches of records durably.
type Writer interface {
	// WriteBatch appends every record and returns once they are on stable storage.
	WriteBatch(ctx context.Context, batch []record.Record) error
	// Close performs a final durable flush and releases the store.
	Close() error
}

// ResolveFormat returns format, or the format implied by path when empty.
func ResolveFormat(path, format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatSQLite, "sqlite3":
		return FormatSQLite, nil
	case "":
		switch strings.ToLower(filepath.Ext(path)) {
		case ".db", ".sqlite", ".sqlite3":
			return FormatSQLite, nil
		default:
			return FormatCSV, nil
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Open opens (or creates) the store at path for appending. runID tags rows in
// formats that carry it.
func Open(path, format, runID string) (Writer, error) {
	resolved, err := ResolveFormat(path, format)
	if err != nil {
		return nil, err
	}
	switch resolved {
	case FormatSQLite:
		return openSQLite(path, runID)
	default:
		return openCSV(path)
	}
}

// SkipFunc observes a stored row that could not be decoded. line is the
// 1-based CSV line or the SQLite rowid.
type SkipFunc func(line int, err error)

// ReadRecords streams every record in an existing store to fn. Reading stops
// at the first error from the store or from fn.
func ReadRecords(path, format string, fn func(record.Record) error) error {
	return ReadRecordsLenient(path, format, fn, nil)
}

// ReadRecordsLenient is ReadRecords except that rows which cannot be decoded
// are passed to onSkip and skipped. Header, schema, and fn errors still end
// the read. A nil onSkip makes it strict.
func ReadRecordsLenient(path, format string, fn func(record.Record) error, onSkip SkipFunc) error {
	resolved, err := ResolveFormat(path, format)
	if err != nil {
		return err
	}
	switch resolved {
	case FormatSQLite:
		return readSQLite(path, fn, onSkip)
	default:
		return readCSV(path, fn, onSkip)
	}
}
