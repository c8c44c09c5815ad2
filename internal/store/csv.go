package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"pdftriage/internal/record"
)

// CSV column names. The order is fixed for every store this tool creates.
const (
	ColumnPath      = "file_path"
	ColumnSize      = "file_size_bytes"
	ColumnPages     = "page_count"
	ColumnCategory  = "category"
	ColumnError     = "error_message"
	ColumnElapsedMS = "processing_time_ms"
)

var csvHeader = []string{ColumnPath, ColumnSize, ColumnPages, ColumnCategory, ColumnError, ColumnElapsedMS}

type csvWriter struct {
	file *os.File
	w    *csv.Writer
}

func openCSV(path string) (*csvWriter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv store: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat csv store: %w", err)
	}

	size := info.Size()
	if size > 0 {
		// A run killed mid-write can leave a partial last row. It is cut back
		// to the last complete line so the row is classified again instead of
		// staying behind as garbage.
		if size, err = truncatePartialRow(file, size); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	cw := &csvWriter{file: file, w: csv.NewWriter(file)}
	if size == 0 {
		if err := cw.w.Write(csvHeader); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		if err := cw.sync(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}
	return cw, nil
}

// truncatePartialRow drops everything after the last newline and returns
// the new size.
func truncatePartialRow(file *os.File, size int64) (int64, error) {
	const chunk = 4096
	buf := make([]byte, chunk)
	end := size
	for end > 0 {
		start := max(end-chunk, 0)
		n, err := file.ReadAt(buf[:end-start], start)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("read csv tail: %w", err)
		}
		if idx := bytes.LastIndexByte(buf[:n], '\n'); idx >= 0 {
			end = start + int64(idx) + 1
			break
		}
		end = start
	}
	if end == size {
		return size, nil
	}
	if err := file.Truncate(end); err != nil {
		return 0, fmt.Errorf("truncate partial row: %w", err)
	}
	if err := file.Sync(); err != nil {
		return 0, fmt.Errorf("sync csv store: %w", err)
	}
	return end, nil
}

func (c *csvWriter) WriteBatch(_ context.Context, batch []record.Record) error {
	for _, rec := range batch {
		if err := c.w.Write(recordToRow(rec)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	return c.sync()
}

func (c *csvWriter) sync() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("flush csv store: %w", err)
	}
	if err := c.file.Sync(); err != nil {
		return fmt.Errorf("sync csv store: %w", err)
	}
	return nil
}

func (c *csvWriter) Close() error {
	syncErr := c.sync()
	closeErr := c.file.Close()
	return errors.Join(syncErr, closeErr)
}

func recordToRow(rec record.Record) []string {
	return []string{
		rec.Path,
		strconv.FormatUint(rec.SizeBytes, 10),
		strconv.FormatUint(rec.PageCount, 10),
		string(rec.Category),
		rec.Error,
		strconv.FormatFloat(float64(rec.Duration)/float64(time.Millisecond), 'f', 3, 64),
	}
}

func readCSV(path string, fn func(record.Record) error, onSkip SkipFunc) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	pathIdx, ok := columns[ColumnPath]
	if !ok {
		return fmt.Errorf("csv store has no %s column", ColumnPath)
	}
	width := len(header)

	skip := func(line int, err error) error {
		if onSkip == nil {
			return err
		}
		onSkip(line, err)
		return nil
	}

	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return fmt.Errorf("read csv row %d: %w", line, err)
			}
			if err := skip(line, fmt.Errorf("read csv row %d: %w", line, err)); err != nil {
				return err
			}
			continue
		}
		if len(row) == 1 && row[0] == "" {
			continue
		}
		if len(row) != width {
			if err := skip(line, fmt.Errorf("csv row %d has %d fields, want %d", line, len(row), width)); err != nil {
				return err
			}
			continue
		}
		rec, err := rowToRecord(row, columns, pathIdx)
		if err != nil {
			if err := skip(line, fmt.Errorf("csv row %d: %w", line, err)); err != nil {
				return err
			}
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

func rowToRecord(row []string, columns map[string]int, pathIdx int) (record.Record, error) {
	rec := record.Record{Path: row[pathIdx], Category: record.Unknown}
	if rec.Path == "" {
		return rec, errors.New("empty file path")
	}
	field := func(name string) (string, bool) {
		idx, ok := columns[name]
		if !ok {
			return "", false
		}
		return row[idx], true
	}
	var err error
	if v, ok := field(ColumnSize); ok && v != "" {
		if rec.SizeBytes, err = strconv.ParseUint(v, 10, 64); err != nil {
			return rec, fmt.Errorf("parse %s: %w", ColumnSize, err)
		}
	}
	if v, ok := field(ColumnPages); ok && v != "" {
		if rec.PageCount, err = strconv.ParseUint(v, 10, 64); err != nil {
			return rec, fmt.Errorf("parse %s: %w", ColumnPages, err)
		}
	}
	if v, ok := field(ColumnCategory); ok && v != "" {
		if rec.Category, err = record.ParseCategory(v); err != nil {
			return rec, err
		}
	}
	if v, ok := field(ColumnError); ok {
		rec.Error = v
	}
	if v, ok := field(ColumnElapsedMS); ok && v != "" {
		ms, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return rec, fmt.Errorf("parse %s: %w", ColumnElapsedMS, err)
		}
		rec.Duration = time.Duration(ms * float64(time.Millisecond))
	}
	return rec, nil
}
