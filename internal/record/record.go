package record

import (
	"fmt"
	"strings"
	"time"
)

// Category is the 2x2 size/page bucket of a document, labelled
// <size-class>_<page-class>.
type Category string

const (
	SmallSmall Category = "SMALL_SMALL"
	SmallLarge Category = "SMALL_LARGE"
	LargeSmall Category = "LARGE_SMALL"
	LargeLarge Category = "LARGE_LARGE"
	Unknown    Category = "UNKNOWN"
)

// Messages recorded for short-circuited classifications.
const (
	ErrTooSmall  = "file too small"
	ErrEncrypted = "encrypted"
)

var allCategories = []Category{SmallSmall, SmallLarge, LargeSmall, LargeLarge, Unknown}

// Categories lists every category in summary order.
func Categories() []Category {
	return append([]Category(nil), allCategories...)
}

// ParseCategory parses a stored category label.
func ParseCategory(value string) (Category, error) {
	candidate := Category(strings.ToUpper(strings.TrimSpace(value)))
	for _, c := range allCategories {
		if c == candidate {
			return c, nil
		}
	}
	return Unknown, fmt.Errorf("unknown category %q", value)
}

// Thresholds separate SMALL from LARGE on each axis. Values equal to a
// threshold are SMALL.
type Thresholds struct {
	PageCount uint64
	SizeBytes uint64
}

// DefaultThresholds returns 100 pages and 10 MiB.
func DefaultThresholds() Thresholds {
	return Thresholds{PageCount: 100, SizeBytes: 10 * 1024 * 1024}
}

// Categorize maps an observed size and page count onto a category.
func (t Thresholds) Categorize(sizeBytes, pages uint64) Category {
	largeSize := sizeBytes > t.SizeBytes
	largePages := pages > t.PageCount
	switch {
	case largeSize && largePages:
		return LargeLarge
	case largeSize:
		return LargeSmall
	case largePages:
		return SmallLarge
	default:
		return SmallSmall
	}
}

// Record is the persisted classification result for one document.
type Record struct {
	Path      string
	SizeBytes uint64
	PageCount uint64
	Category  Category
	Error     string
	Duration  time.Duration
}

// HasError reports whether classification failed or was short-circuited.
func (r Record) HasError() bool {
	return r.Error != ""
}

// Failed builds an UNKNOWN record carrying msg.
func Failed(path string, sizeBytes uint64, msg string, elapsed time.Duration) Record {
	return Record{
		Path:      path,
		SizeBytes: sizeBytes,
		Category:  Unknown,
		Error:     msg,
		Duration:  elapsed,
	}
}
