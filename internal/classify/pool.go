package classify

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"pdftriage/internal/logging"
	"pdftriage/internal/record"
)

// Pool runs a Classifier across a fixed number of workers.
type Pool struct {
	Workers    int
	Classifier *Classifier
	Logger     *slog.Logger
}

// NewPool returns a pool with one worker per CPU when workers <= 0.
func NewPool(workers int, classifier *Classifier, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		Workers:    workers,
		Classifier: classifier,
		Logger:     logging.NewComponentLogger(logger, "classify"),
	}
}

// Run classifies every path received on jobs and sends one record per path
// to out. It returns once jobs is closed and every worker has delivered its
// last record. Sends on out block while it is full, which is how a slow sink
// throttles the workers.
//
// In-flight inspections are detached from ctx cancellation so an interrupt
// lets them finish and be recorded; the caller stops the flow by closing jobs.
// onDone, when set, is called after each record is delivered.
func (p *Pool) Run(ctx context.Context, jobs <-chan string, out chan<- record.Record, onDone func(record.Record)) error {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	work := context.WithoutCancel(ctx)

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for path := range jobs {
				rec := p.classifyOne(work, path)
				out <- rec
				if onDone != nil {
					onDone(rec)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (p *Pool) classifyOne(ctx context.Context, path string) (rec record.Record) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("classification panicked",
				logging.String(logging.FieldPath, path),
				logging.String("panic", fmt.Sprint(r)),
			)
			rec = record.Failed(path, 0, fmt.Sprintf("classification panic: %v", r), time.Since(start))
		}
	}()
	rec = p.Classifier.Classify(ctx, path)
	if rec.HasError() {
		p.Logger.Debug("classification failed",
			logging.String(logging.FieldPath, path),
			logging.String("reason", rec.Error),
		)
	}
	return rec
}
