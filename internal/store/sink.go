package store

import (
	"context"
	"log/slog"
	"sync/atomic"

	"pdftriage/internal/logging"
	"pdftriage/internal/record"
)

// DefaultBatchSize is the number of records appended per durable write.
const DefaultBatchSize = 1000

// Sink is the only writer of a store. It drains the output channel into
// batches and makes each batch durable before accepting more.
type Sink struct {
	writer    Writer
	batchSize int
	logger    *slog.Logger
	onFlushed func([]record.Record)

	written atomic.Int64
	batches atomic.Int64
	dropped atomic.Int64
}

// NewSink wraps writer. onFlushed, when set, observes every durable batch.
func NewSink(writer Writer, batchSize int, logger *slog.Logger, onFlushed func([]record.Record)) *Sink {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Sink{
		writer:    writer,
		batchSize: batchSize,
		logger:    logging.NewComponentLogger(logger, "sink"),
		onFlushed: onFlushed,
	}
}

// Run consumes in until it is closed, flushes the final partial batch, and
// closes the writer. A write failure is returned, but Run keeps draining in
// so producers never block on a dead sink. Writes are not interrupted by ctx
// cancellation; closing in is what ends the run.
func (s *Sink) Run(ctx context.Context, in <-chan record.Record) error {
	writeCtx := context.WithoutCancel(ctx)
	batch := make([]record.Record, 0, s.batchSize)
	var failed error

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if failed != nil {
			s.dropped.Add(int64(len(batch)))
			batch = batch[:0]
			return
		}
		if err := s.writer.WriteBatch(writeCtx, batch); err != nil {
			failed = err
			s.dropped.Add(int64(len(batch)))
			s.logger.Error("batch write failed, remaining records will be discarded",
				logging.Int("batch_size", len(batch)),
				logging.Error(err),
			)
			batch = batch[:0]
			return
		}
		s.written.Add(int64(len(batch)))
		s.batches.Add(1)
		s.logger.Debug("batch flushed", logging.Int("rows", len(batch)), logging.Int64("written", s.written.Load()))
		if s.onFlushed != nil {
			s.onFlushed(batch)
		}
		batch = batch[:0]
	}

	for rec := range in {
		batch = append(batch, rec)
		if len(batch) >= s.batchSize {
			flush()
		}
	}
	flush()

	if err := s.writer.Close(); err != nil {
		s.logger.Error("final flush failed", logging.Error(err))
		if failed == nil {
			failed = err
		}
	}
	if dropped := s.dropped.Load(); dropped > 0 {
		s.logger.Error("records not persisted", logging.Int64("dropped", dropped))
	}
	return failed
}

// Written returns the number of records made durable so far.
func (s *Sink) Written() int64 { return s.written.Load() }

// Batches returns the number of durable batch writes so far.
func (s *Sink) Batches() int64 { return s.batches.Load() }

// Dropped returns the number of records discarded after a write failure.
func (s *Sink) Dropped() int64 { return s.dropped.Load() }
