package store

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"pdftriage/internal/logging"
	"pdftriage/internal/record"
)

// ResumeIndex is the set of normalized paths already present in a store. It
// is built once before discovery starts and only read afterwards.
type ResumeIndex struct {
	keys map[string]struct{}
	fold bool
}

// NewResumeIndex builds an index from paths.
func NewResumeIndex(paths []string, caseInsensitive bool) *ResumeIndex {
	idx := &ResumeIndex{keys: make(map[string]struct{}, len(paths)), fold: caseInsensitive}
	for _, p := range paths {
		idx.add(p)
	}
	return idx
}

func (r *ResumeIndex) add(path string) {
	if key := record.NormalizePath(path, r.fold); key != "" {
		r.keys[key] = struct{}{}
	}
}

// Contains reports whether path already has a record.
func (r *ResumeIndex) Contains(path string) bool {
	if r == nil || len(r.keys) == 0 {
		return false
	}
	_, ok := r.keys[record.NormalizePath(path, r.fold)]
	return ok
}

// Len returns the number of indexed paths.
func (r *ResumeIndex) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// LoadResumeIndex reads the path column of an existing store. A missing store
// yields an empty index. Rows that cannot be decoded are skipped with a
// warning. A store whose header or schema is unreadable is logged and yields
// an empty index, so the run falls back to a full scan instead of aborting.
func LoadResumeIndex(path, format string, caseInsensitive bool, logger *slog.Logger) *ResumeIndex {
	logger = logging.NewComponentLogger(logger, "resume")
	idx := NewResumeIndex(nil, caseInsensitive)

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("no existing store, starting fresh", logging.String("store", path))
			return idx
		}
		logging.WarnWithContext(logger, "cannot stat existing store", "resume_load_failed",
			logging.String("store", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "every discovered file will be classified"),
		)
		return idx
	}

	var (
		skipped   int
		firstSkip error
	)
	err := ReadRecordsLenient(path, format, func(rec record.Record) error {
		idx.add(rec.Path)
		return nil
	}, func(_ int, err error) {
		if skipped == 0 {
			firstSkip = err
		}
		skipped++
	})
	if err != nil {
		logging.WarnWithContext(logger, "existing store unreadable, resume disabled", "resume_load_failed",
			logging.String("store", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "every discovered file will be classified"),
			logging.String(logging.FieldErrorHint, "inspect or move the store aside to avoid duplicate rows"),
		)
		return NewResumeIndex(nil, caseInsensitive)
	}

	if skipped > 0 {
		logging.WarnWithContext(logger, "skipped unreadable rows in existing store", "resume_rows_skipped",
			logging.String("store", path),
			logging.Int("skipped", skipped),
			logging.Error(firstSkip),
			logging.String(logging.FieldImpact, "files behind skipped rows will be classified again"),
		)
	}

	logger.Info("resume index loaded", logging.String("store", path), logging.Int("records", idx.Len()))
	return idx
}
