package match

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// testClock is a manually advanced clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func px(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// createTestOrderBook returns a book that is not opened; tests drive matching with crossAll.
func createTestOrderBook(closePrice string, opts ...OrderBookOption) *OrderBook {
	return NewOrderBook("XYZ", px(closePrice), opts...)
}

// crossAll runs matching attempts until the book is no longer crossed.
func crossAll(book *OrderBook) int {
	n := 0
	for book.match() {
		n++
	}
	return n
}

// pollAll drains every pending report.
func pollAll(book *OrderBook) []*ExecutionReport {
	var reports []*ExecutionReport
	for {
		report := book.PollReport()
		if report == nil {
			return reports
		}
		reports = append(reports, report)
	}
}

func submit(t testing.TB, book *OrderBook, side Side, price string, qty int64, traderID int64) uint64 {
	id, err := book.SubmitNewOrder(side, px(price), qty, traderID)
	require.NoError(t, err)
	return id
}

func TestCalculateDepthChange(t *testing.T) {
	report := &ExecutionReport{Side: Sell, Price: px("1.10"), OrdQty: 100, LeavesQty: 100}

	report.ExecType = ExecNew
	require.Equal(t, int64(100), CalculateDepthChange(report, 0).SizeDiff)

	report.ExecType = ExecTrade
	report.LastQty = 30
	report.LeavesQty = 70
	change := CalculateDepthChange(report, 100)
	require.Equal(t, int64(-30), change.SizeDiff)
	require.Equal(t, Sell, change.Side)
	require.True(t, change.Price.Equal(px("1.1")))

	report.ExecType = ExecReplaced
	report.LeavesQty = 50
	require.Equal(t, int64(-20), CalculateDepthChange(report, 70).SizeDiff)

	report.ExecType = ExecCancel
	require.Equal(t, int64(-50), CalculateDepthChange(report, 50).SizeDiff)

	report.ExecType = ExecReject
	require.Equal(t, int64(0), CalculateDepthChange(report, 50).SizeDiff)

	report.ExecType = ExecCancelReject
	require.Equal(t, int64(0), CalculateDepthChange(report, 50).SizeDiff)
}
