package match

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// ReportSource is anything execution reports can be drained from, usually an *OrderBook.
type ReportSource interface {
	PollReport() *ExecutionReport
}

// ReportWriterOption configures a ReportWriter.
type ReportWriterOption func(*ReportWriter)

// WithBatchSize sets how many reports are collected before they are published.
func WithBatchSize(size int) ReportWriterOption {
	return func(w *ReportWriter) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// WithPollInterval sets how often the source is drained.
func WithPollInterval(interval time.Duration) ReportWriterOption {
	return func(w *ReportWriter) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// ReportWriter drains a ReportSource on an interval and publishes the reports
// in batches. On Stop it drains whatever is left and flushes the partial batch.
type ReportWriter struct {
	source    ReportSource
	sink      PublishLog
	batchSize int
	interval  time.Duration
	batch     []*ExecutionReport

	isStarted  atomic.Bool
	isShutdown atomic.Bool
	done       chan struct{}
	stopped    chan struct{}
	err        error
}

// NewReportWriter creates a writer publishing reports from source into sink.
func NewReportWriter(source ReportSource, sink PublishLog, opts ...ReportWriterOption) *ReportWriter {
	w := &ReportWriter{
		source:    source,
		sink:      sink,
		batchSize: 5,
		interval:  time.Second,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.batch = make([]*ExecutionReport, 0, w.batchSize)
	return w
}

// Start launches the polling loop. Only the first call has an effect.
func (w *ReportWriter) Start() {
	if !w.isStarted.CompareAndSwap(false, true) {
		return
	}
	go w.run()
}

// Stop signals the loop to drain and flush, then waits for it or for ctx.
// It returns the error of the final flush, if any.
func (w *ReportWriter) Stop(ctx context.Context) error {
	if w.isShutdown.CompareAndSwap(false, true) {
		close(w.done)
	}

	select {
	case <-w.stopped:
		return w.err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}
}

func (w *ReportWriter) run() {
	defer close(w.stopped)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			w.drain()
			if err := w.flush(); err != nil {
				logger.Error("failed to flush execution reports", "error", err, "pending", len(w.batch))
				w.err = err
			}
			return
		case <-ticker.C:
			w.drain()
		}
	}
}

// drain moves every pending report into the batch, publishing each full batch.
func (w *ReportWriter) drain() {
	for {
		report := w.source.PollReport()
		if report == nil {
			return
		}

		w.batch = append(w.batch, report)
		if len(w.batch) >= w.batchSize {
			if err := w.flush(); err != nil {
				// keep the batch and retry on the next tick
				logger.Error("failed to publish execution reports", "error", err, "pending", len(w.batch))
				return
			}
		}
	}
}

func (w *ReportWriter) flush() error {
	if len(w.batch) == 0 {
		return nil
	}
	if err := w.sink.Publish(w.batch...); err != nil {
		return err
	}
	w.batch = make([]*ExecutionReport, 0, w.batchSize)
	return nil
}
