package progress

import (
	"sync/atomic"

	"pdftriage/internal/record"
)

// Counters are updated by workers and the sink and read by the reporter.
type Counters struct {
	processed  atomic.Int64
	written    atomic.Int64
	resumed    atomic.Int64
	categories [5]atomic.Int64
}

func categoryIndex(c record.Category) int {
	switch c {
	case record.SmallSmall:
		return 0
	case record.SmallLarge:
		return 1
	case record.LargeSmall:
		return 2
	case record.LargeLarge:
		return 3
	default:
		return 4
	}
}

// Classified counts one finished classification.
func (c *Counters) Classified(rec record.Record) {
	c.processed.Add(1)
	c.categories[categoryIndex(rec.Category)].Add(1)
}

// Written counts records made durable.
func (c *Counters) Written(n int) {
	c.written.Add(int64(n))
}

// Resumed counts one path skipped because a previous run recorded it.
func (c *Counters) Resumed() {
	c.resumed.Add(1)
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Processed  int64
	Written    int64
	Resumed    int64
	Categories map[record.Category]int64
}

// Snapshot reads every counter.
func (c *Counters) Snapshot() Snapshot {
	snap := Snapshot{
		Processed:  c.processed.Load(),
		Written:    c.written.Load(),
		Resumed:    c.resumed.Load(),
		Categories: make(map[record.Category]int64, len(c.categories)),
	}
	for _, cat := range record.Categories() {
		snap.Categories[cat] = c.categories[categoryIndex(cat)].Load()
	}
	return snap
}
