package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"pdftriage/internal/inspect"
	"pdftriage/internal/record"
)

// DefaultMinSizeBytes is the size floor below which files are not inspected.
const DefaultMinSizeBytes = 100

// Classifier classifies a single document.
type Classifier struct {
	Fs           afero.Fs
	Inspector    inspect.Inspector
	Thresholds   record.Thresholds
	MinSizeBytes uint64

	now func() time.Time
}

// NewClassifier wires a classifier with the given collaborators.
func NewClassifier(fsys afero.Fs, inspector inspect.Inspector, thresholds record.Thresholds, minSize uint64) *Classifier {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Classifier{
		Fs:           fsys,
		Inspector:    inspector,
		Thresholds:   thresholds,
		MinSizeBytes: minSize,
		now:          time.Now,
	}
}

// Classify never fails: every outcome, including I/O errors, is a Record.
func (c *Classifier) Classify(ctx context.Context, path string) record.Record {
	now := c.now
	if now == nil {
		now = time.Now
	}
	start := now()
	elapsed := func() time.Duration { return now().Sub(start) }

	info, err := c.Fs.Stat(path)
	if err != nil {
		return record.Failed(path, 0, fmt.Sprintf("stat: %v", err), elapsed())
	}
	if info.IsDir() {
		return record.Failed(path, 0, "not a regular file", elapsed())
	}
	size := uint64(max(info.Size(), 0))

	if size < c.MinSizeBytes {
		return record.Failed(path, size, record.ErrTooSmall, elapsed())
	}
	if c.Inspector == nil {
		return record.Failed(path, size, "no inspector configured", elapsed())
	}

	res, err := c.Inspector.Inspect(ctx, path)
	if err != nil {
		return record.Failed(path, size, err.Error(), elapsed())
	}
	if res.Encrypted {
		return record.Failed(path, size, record.ErrEncrypted, elapsed())
	}

	return record.Record{
		Path:      path,
		SizeBytes: size,
		PageCount: res.PageCount,
		Category:  c.Thresholds.Categorize(size, res.PageCount),
		Duration:  elapsed(),
	}
}
