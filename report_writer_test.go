package match

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource hands out a fixed set of reports.
type sliceSource struct {
	mu      sync.Mutex
	reports []*ExecutionReport
}

func (s *sliceSource) add(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.reports = append(s.reports, &ExecutionReport{OrderID: uint64(len(s.reports) + 1)})
	}
}

func (s *sliceSource) PollReport() *ExecutionReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reports) == 0 {
		return nil
	}
	report := s.reports[0]
	s.reports = s.reports[1:]
	return report
}

// batchRecorder records batch sizes and fails the first failures publishes.
type batchRecorder struct {
	mu       sync.Mutex
	failures int
	batches  [][]*ExecutionReport
}

var errSinkDown = errors.New("sink down")

func (r *batchRecorder) Publish(reports ...*ExecutionReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return errSinkDown
	}
	batch := make([]*ExecutionReport, len(reports))
	copy(batch, reports)
	r.batches = append(r.batches, batch)
	return nil
}

func (r *batchRecorder) sizes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	sizes := make([]int, 0, len(r.batches))
	for _, batch := range r.batches {
		sizes = append(sizes, len(batch))
	}
	return sizes
}

func (r *batchRecorder) orderIDs() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uint64
	for _, batch := range r.batches {
		for _, report := range batch {
			ids = append(ids, report.OrderID)
		}
	}
	return ids
}

func TestReportWriterBatches(t *testing.T) {
	source := &sliceSource{}
	source.add(12)
	sink := &batchRecorder{}

	writer := NewReportWriter(source, sink, WithPollInterval(10*time.Millisecond))
	writer.Start()

	assert.Eventually(t, func() bool {
		return len(sink.sizes()) == 2
	}, time.Second, 5*time.Millisecond)

	// the partial batch waits for more reports or for Stop
	assert.Equal(t, []int{5, 5}, sink.sizes())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, writer.Stop(ctx))

	assert.Equal(t, []int{5, 5, 2}, sink.sizes())
	assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, sink.orderIDs())
}

func TestReportWriterStopDrains(t *testing.T) {
	source := &sliceSource{}
	sink := NewMemoryPublishLog()

	writer := NewReportWriter(source, sink, WithBatchSize(10), WithPollInterval(time.Hour))
	writer.Start()
	source.add(3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, writer.Stop(ctx))

	assert.Equal(t, 3, sink.Count())
	assert.Equal(t, uint64(3), sink.Get(2).OrderID)

	// stopping again is harmless
	require.NoError(t, writer.Stop(ctx))
}

func TestReportWriterRetriesFailedBatch(t *testing.T) {
	source := &sliceSource{}
	source.add(4)
	sink := &batchRecorder{failures: 2}

	writer := NewReportWriter(source, sink, WithBatchSize(2), WithPollInterval(5*time.Millisecond))
	writer.Start()

	assert.Eventually(t, func() bool {
		return len(sink.orderIDs()) == 4
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, writer.Stop(ctx))

	assert.Equal(t, []uint64{1, 2, 3, 4}, sink.orderIDs())
}

func TestReportWriterStopReportsFlushError(t *testing.T) {
	source := &sliceSource{}
	sink := &batchRecorder{failures: 100}

	writer := NewReportWriter(source, sink, WithPollInterval(time.Hour))
	writer.Start()
	source.add(1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.ErrorIs(t, writer.Stop(ctx), errSinkDown)
}

func TestReportWriterDrainsBook(t *testing.T) {
	book := createTestOrderBook("50.00")
	require.NoError(t, book.Open())

	sink := NewMemoryPublishLog()
	writer := NewReportWriter(book, sink, WithPollInterval(5*time.Millisecond))
	writer.Start()

	submit(t, book, Buy, "50.00", 10, 1)
	submit(t, book, Sell, "49.99", 10, 2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.Eventually(t, func() bool {
		return book.TradedVolume() == 10
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, book.Close(ctx))
	require.NoError(t, writer.Stop(ctx))

	reports := sink.Logs()
	require.Len(t, reports, 4)
	assert.Equal(t, ExecNew, reports[0].ExecType)
	assert.Equal(t, ExecNew, reports[1].ExecType)
	assert.Equal(t, ExecTrade, reports[2].ExecType)
	assert.Equal(t, Sell, reports[2].Side)
	assert.True(t, reports[2].LastPrice.Equal(px("49.99")))
	assert.Equal(t, ExecTrade, reports[3].ExecType)
	assert.Equal(t, Buy, reports[3].Side)
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Publish(reports ...*ExecutionReport) error {
	<-s.release
	return nil
}

func TestReportWriterStopTimeout(t *testing.T) {
	source := &sliceSource{}
	sink := &blockingSink{release: make(chan struct{})}

	writer := NewReportWriter(source, sink, WithPollInterval(time.Hour))
	writer.Start()
	source.add(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := writer.Stop(ctx)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(sink.release)
	require.NoError(t, writer.Stop(context.Background()))
}

func TestReportWriterStartOnce(t *testing.T) {
	source := &sliceSource{}
	source.add(12)
	sink := &batchRecorder{}

	writer := NewReportWriter(source, sink, WithPollInterval(5*time.Millisecond))
	writer.Start()
	writer.Start()

	assert.Eventually(t, func() bool {
		return len(sink.sizes()) == 2
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, writer.Stop(ctx))

	// a single loop owns the batch, so nothing is split or reordered
	assert.Equal(t, []int{5, 5, 2}, sink.sizes())
	assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, sink.orderIDs())
}
