package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"pdftriage/internal/classify"
	"pdftriage/internal/discovery"
	"pdftriage/internal/logging"
	"pdftriage/internal/preflight"
	"pdftriage/internal/progress"
	"pdftriage/internal/record"
	"pdftriage/internal/store"
)

// ErrSetup wraps failures that abort a run before any record is appended.
var ErrSetup = errors.New("pipeline setup failed")

type run struct {
	opts   Options
	logger *slog.Logger
	state  State
}

func (r *run) transition(next State) {
	r.logger.Info("state change",
		logging.String("from", r.state.String()),
		logging.String("to", next.String()),
	)
	r.state = next
}

// Run executes one scan and blocks until every produced record is durable
// or dropped after a store failure. On interrupt the returned error is the
// context's error and the summary reports Interrupted.
func Run(ctx context.Context, opts Options, logger *slog.Logger) (Summary, error) {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	r := &run{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "pipeline").With(logging.String(logging.FieldRunID, opts.RunID)),
		state:  StateInit,
	}
	return r.execute(ctx)
}

func (r *run) setup() (string, string, error) {
	opts := r.opts
	if opts.Inspector == nil {
		return "", "", fmt.Errorf("%w: no inspector configured", ErrSetup)
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return "", "", fmt.Errorf("%w: resolve root: %w", ErrSetup, err)
	}
	output, err := filepath.Abs(opts.Output)
	if err != nil {
		return "", "", fmt.Errorf("%w: resolve output: %w", ErrSetup, err)
	}
	if err := checkPrerequisites(opts.Fs, root, output); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrSetup, err)
	}
	return root, output, nil
}

// checkPrerequisites runs the preflight checks. A scan root on a non-OS
// filesystem is checked through that filesystem instead.
func checkPrerequisites(fsys afero.Fs, root, output string) error {
	if _, onDisk := fsys.(*afero.OsFs); onDisk {
		return preflight.FirstFailure(preflight.RunAll(root, output))
	}
	results := []preflight.Result{preflight.CheckOutputLocation(output)}
	if info, err := fsys.Stat(root); err != nil {
		results = append(results, preflight.Result{Name: "Scan root", Detail: err.Error()})
	} else if !info.IsDir() {
		results = append(results, preflight.Result{Name: "Scan root", Detail: fmt.Sprintf("%s is not a directory", root)})
	}
	return preflight.FirstFailure(results)
}

func (r *run) execute(ctx context.Context) (Summary, error) {
	start := time.Now()
	opts := r.opts
	summary := Summary{RunID: opts.RunID}

	root, output, err := r.setup()
	if err != nil {
		return summary, err
	}
	format, err := store.ResolveFormat(output, opts.Format)
	if err != nil {
		return summary, fmt.Errorf("%w: %w", ErrSetup, err)
	}

	lock, err := store.Lock(output)
	if err != nil {
		return summary, fmt.Errorf("%w: %w", ErrSetup, err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			r.logger.Warn("lock release failed", logging.Error(err))
		}
	}()

	// Opening repairs a crash-truncated store, so it precedes the resume read.
	writer, err := store.Open(output, format, opts.RunID)
	if err != nil {
		return summary, fmt.Errorf("%w: open store: %w", ErrSetup, err)
	}

	var index *store.ResumeIndex
	if opts.Resume {
		index = store.LoadResumeIndex(output, format, opts.Scan.CaseInsensitive, r.logger)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	r.logger.Info("scan starting",
		logging.String("root", root),
		logging.String("store", output),
		logging.String("format", format),
		logging.Int("workers", workers),
		logging.Int("resume_entries", index.Len()),
	)

	counters := &progress.Counters{}
	queueCapacity := opts.QueueCapacity
	if queueCapacity <= 0 {
		queueCapacity = 5000
	}
	jobs := make(chan string, workers)
	records := make(chan record.Record, queueCapacity)

	sink := store.NewSink(writer, opts.BatchSize, r.logger, func(batch []record.Record) {
		counters.Written(len(batch))
	})
	sinkDone := make(chan error, 1)
	go func() { sinkDone <- sink.Run(ctx, records) }()

	classifier := classify.NewClassifier(opts.Fs, opts.Inspector, opts.Thresholds, opts.MinSizeBytes)
	pool := classify.NewPool(workers, classifier, r.logger)
	poolDone := make(chan error, 1)
	go func() { poolDone <- pool.Run(ctx, jobs, records, counters.Classified) }()

	reportCtx, stopReporter := context.WithCancel(ctx)
	reporter := progress.NewReporter(opts.ProgressInterval, counters, func() (int, int) {
		return len(records), cap(records)
	}, r.logger)
	reporterDone := make(chan struct{})
	go func() {
		reporter.Run(reportCtx)
		close(reporterDone)
	}()

	source := discovery.New(opts.Fs, root, opts.Scan, r.logger)
	paths := source.Paths(ctx)
	if index != nil {
		paths = discovery.FilterResumed(paths, index, func(string) { counters.Resumed() })
	}

	r.transition(StateRunning)
submit:
	for path := range paths {
		select {
		case jobs <- path:
		case <-ctx.Done():
			break submit
		}
	}

	r.transition(StateDraining)
	close(jobs)
	poolErr := <-poolDone
	close(records)
	sinkErr := <-sinkDone
	stopReporter()
	<-reporterDone

	snap := counters.Snapshot()
	summary.Processed = snap.Processed
	summary.Written = sink.Written()
	summary.Dropped = sink.Dropped()
	summary.Resumed = snap.Resumed
	summary.Categories = snap.Categories
	summary.Duplicates = source.Duplicates()
	summary.TraversalErrors = source.Skipped()
	summary.Elapsed = time.Since(start)
	summary.Interrupted = ctx.Err() != nil

	r.transition(StateDone)
	r.logSummary(summary)

	switch {
	case source.Err() != nil:
		return summary, fmt.Errorf("%w: scan root: %w", ErrSetup, source.Err())
	case poolErr != nil:
		return summary, fmt.Errorf("classify: %w", poolErr)
	case sinkErr != nil:
		return summary, fmt.Errorf("persist records: %w", sinkErr)
	case summary.Interrupted:
		return summary, ctx.Err()
	}
	return summary, nil
}

func (r *run) logSummary(s Summary) {
	attrs := []logging.Attr{
		logging.Int64("processed", s.Processed),
		logging.Int64("written", s.Written),
		logging.Int64("resumed", s.Resumed),
		logging.Int64("duplicates", s.Duplicates),
		logging.Int64("traversal_errors", s.TraversalErrors),
		logging.Float64("rate", progress.Rate(s.Processed, s.Elapsed)),
		logging.Duration("elapsed", s.Elapsed.Round(time.Millisecond)),
		logging.Bool("interrupted", s.Interrupted),
	}
	for _, cat := range record.Categories() {
		attrs = append(attrs, logging.Int64(string(cat), s.Categories[cat]))
	}
	if s.Dropped > 0 {
		attrs = append(attrs, logging.Int64("dropped", s.Dropped))
	}
	r.logger.Info("scan finished", logging.Args(attrs...)...)
}
