package discovery

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/afero"

	"pdftriage/internal/logging"
	"pdftriage/internal/record"
)

var errStopWalk = errors.New("discovery: stop walk")

// Options controls which files are emitted.
type Options struct {
	// Extensions are matched case-insensitively, with leading dot.
	Extensions []string
	// CaseInsensitive folds path case when deduplicating.
	CaseInsensitive bool
}

// Source enumerates matching regular files under a root.
type Source struct {
	fs      afero.Fs
	root    string
	exts    map[string]struct{}
	fold    bool
	logger  *slog.Logger
	seen    map[string]struct{}
	rootErr error

	emitted    atomic.Int64
	duplicates atomic.Int64
	skipped    atomic.Int64
}

// New constructs a Source rooted at root.
func New(fsys afero.Fs, root string, opts Options, logger *slog.Logger) *Source {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}
	if len(exts) == 0 {
		exts[".pdf"] = struct{}{}
	}
	return &Source{
		fs:     fsys,
		root:   filepath.Clean(root),
		exts:   exts,
		fold:   opts.CaseInsensitive,
		logger: logging.NewComponentLogger(logger, "discovery"),
		seen:   make(map[string]struct{}),
	}
}

// Paths returns a single-use sequence of matching file paths. Enumeration
// advances only as the consumer pulls and stops when ctx is cancelled.
func (s *Source) Paths(ctx context.Context) iter.Seq[string] {
	return func(yield func(string) bool) {
		err := afero.Walk(s.fs, s.root, func(path string, info fs.FileInfo, walkErr error) error {
			if ctx.Err() != nil {
				return errStopWalk
			}
			if walkErr != nil {
				return s.handleWalkError(path, walkErr)
			}
			if info.IsDir() || !info.Mode().IsRegular() {
				return nil
			}
			if !s.matches(path) {
				return nil
			}
			key := record.NormalizePath(path, s.fold)
			if _, dup := s.seen[key]; dup {
				s.duplicates.Add(1)
				s.logger.Debug("duplicate path skipped", logging.String(logging.FieldPath, path))
				return nil
			}
			s.seen[key] = struct{}{}
			s.emitted.Add(1)
			if !yield(path) {
				return errStopWalk
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopWalk) && !errors.Is(err, filepath.SkipDir) {
			s.logger.Warn("walk ended early", logging.Error(err))
		}
	}
}

func (s *Source) handleWalkError(path string, walkErr error) error {
	if path == s.root {
		s.rootErr = walkErr
		s.logger.Error("scan root unreadable", logging.String(logging.FieldPath, path), logging.Error(walkErr))
		return errStopWalk
	}
	s.skipped.Add(1)
	logging.WarnWithContext(s.logger, "skipping unreadable entry", "traversal_error",
		logging.String(logging.FieldPath, path),
		logging.Error(walkErr),
		logging.String(logging.FieldImpact, "entry and any children are not classified"),
	)
	// Returning nil here skips the subtree: afero only reports a directory
	// error after failing to list it.
	return nil
}

func (s *Source) matches(path string) bool {
	_, ok := s.exts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Err returns the root traversal error, if any.
func (s *Source) Err() error { return s.rootErr }

// Emitted is the number of unique paths yielded so far.
func (s *Source) Emitted() int64 { return s.emitted.Load() }

// Duplicates is the number of paths dropped by dedup.
func (s *Source) Duplicates() int64 { return s.duplicates.Load() }

// Skipped is the number of entries skipped after traversal errors.
func (s *Source) Skipped() int64 { return s.skipped.Load() }
