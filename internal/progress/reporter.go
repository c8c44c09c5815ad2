package progress

import (
	"context"
	"log/slog"
	"math"
	"time"

	"pdftriage/internal/logging"
)

// DefaultInterval is how often progress is logged.
const DefaultInterval = 3 * time.Second

// Reporter logs processed count and throughput on a fixed interval.
type Reporter struct {
	Interval time.Duration
	Counters *Counters
	// QueueDepth reports the output channel's length and capacity.
	QueueDepth func() (int, int)
	Logger     *slog.Logger

	now func() time.Time
}

// NewReporter returns a reporter over counters.
func NewReporter(interval time.Duration, counters *Counters, queueDepth func() (int, int), logger *slog.Logger) *Reporter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reporter{
		Interval:   interval,
		Counters:   counters,
		QueueDepth: queueDepth,
		Logger:     logging.NewComponentLogger(logger, "progress"),
		now:        time.Now,
	}
}

// Run logs until ctx is done.
func (r *Reporter) Run(ctx context.Context) {
	now := r.now
	if now == nil {
		now = time.Now
	}
	start := now()
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.report(now().Sub(start))
		}
	}
}

func (r *Reporter) report(elapsed time.Duration) {
	snap := r.Counters.Snapshot()
	attrs := []logging.Attr{
		logging.Int64("processed", snap.Processed),
		logging.Int64("written", snap.Written),
		logging.Float64("rate", Rate(snap.Processed, elapsed)),
		logging.Duration("elapsed", elapsed.Round(time.Second)),
	}
	if snap.Resumed > 0 {
		attrs = append(attrs, logging.Int64("resumed", snap.Resumed))
	}
	if r.QueueDepth != nil {
		depth, capacity := r.QueueDepth()
		attrs = append(attrs, logging.Int("queue", depth), logging.Int("queue_cap", capacity))
	}
	r.Logger.Info("progress", logging.Args(attrs...)...)
}

// Rate returns files per second rounded to one decimal.
func Rate(processed int64, elapsed time.Duration) float64 {
	if elapsed <= 0 || processed <= 0 {
		return 0
	}
	return math.Round(float64(processed)/elapsed.Seconds()*10) / 10
}
