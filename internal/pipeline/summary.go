package pipeline

import (
	"time"

	"pdftriage/internal/record"
)

// Summary is the outcome of a run.
type Summary struct {
	RunID     string
	Processed int64
	Written   int64
	// Dropped counts records produced but not persisted after a store failure.
	Dropped         int64
	Resumed         int64
	Duplicates      int64
	TraversalErrors int64
	Categories      map[record.Category]int64
	Elapsed         time.Duration
	Interrupted     bool
}

// Failed returns the number of UNKNOWN records produced.
func (s Summary) Failed() int64 {
	return s.Categories[record.Unknown]
}
