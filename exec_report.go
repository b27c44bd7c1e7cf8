package match

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"
)

// ExecutionReport is an immutable snapshot of an order taken when the book
// accepted, rejected, traded, cancelled or amended it.
// Once enqueued the book never touches it again.
type ExecutionReport struct {
	ExecID    string          `json:"exec_id"`
	Symbol    string          `json:"symbol"`
	ExecType  ExecType        `json:"exec_type"`
	OrdStatus OrdStatus       `json:"ord_status"`
	OrderID   uint64          `json:"order_id"`
	TraderID  int64           `json:"trader_id"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	OrdQty    int64           `json:"ord_qty"`
	CumQty    int64           `json:"cum_qty"`
	LeavesQty int64           `json:"leaves_qty"`
	LastPrice decimal.Decimal `json:"last_price"`
	LastQty   int64           `json:"last_qty"`
	Text      RejectReason    `json:"text,omitempty"` // Reason for rejection, only set for Reject and CancelReject
	Timestamp time.Time       `json:"timestamp"`
}

func newExecutionReport(symbol string, order *Order, execType ExecType, now time.Time) *ExecutionReport {
	return &ExecutionReport{
		ExecID:    xid.New().String(),
		Symbol:    symbol,
		ExecType:  execType,
		OrdStatus: order.Status,
		OrderID:   order.ID,
		TraderID:  order.TraderID,
		Side:      order.Side,
		Price:     order.Price,
		OrdQty:    order.Quantity,
		CumQty:    order.CumQty,
		LeavesQty: order.LeavesQty,
		LastPrice: order.LastPrice,
		LastQty:   order.LastQty,
		Timestamp: now,
	}
}

func newRejectReport(symbol string, order *Order, execType ExecType, reason RejectReason, now time.Time) *ExecutionReport {
	report := newExecutionReport(symbol, order, execType, now)
	report.Text = reason
	return report
}

// String renders the report as a single key=value line.
func (r *ExecutionReport) String() string {
	var sb strings.Builder
	sb.Grow(192)

	field := func(k, v string) {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(v)
		sb.WriteByte(' ')
	}

	field("ExecType", r.ExecType.String())
	field("OrdStatus", r.OrdStatus.String())
	field("Side", r.Side.String())
	field("Price", r.Price.String())
	field("OrdQty", strconv.FormatInt(r.OrdQty, 10))
	field("CumQty", strconv.FormatInt(r.CumQty, 10))
	field("LeavesQty", strconv.FormatInt(r.LeavesQty, 10))
	field("LastPrice", r.LastPrice.String())
	field("LastQty", strconv.FormatInt(r.LastQty, 10))
	field("OrderID", strconv.FormatUint(r.OrderID, 10))
	field("TraderID", strconv.FormatInt(r.TraderID, 10))
	field("Text", string(r.Text))
	field("TimeStamp", r.Timestamp.Format("2006-01-02:15:04:05"))

	return strings.TrimRight(sb.String(), " ")
}

// reportQueue is the FIFO hand-off between the book and its pollers.
// It is guarded by the book's lock.
type reportQueue struct {
	items []*ExecutionReport
	head  int
}

func (q *reportQueue) push(report *ExecutionReport) {
	q.items = append(q.items, report)
}

// pop removes and returns the oldest report, nil when empty.
func (q *reportQueue) pop() *ExecutionReport {
	if q.head == len(q.items) {
		return nil
	}

	report := q.items[q.head]
	q.items[q.head] = nil
	q.head++

	// reclaim the consumed prefix once it dominates the backing array
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head >= 1024 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	return report
}

func (q *reportQueue) len() int {
	return len(q.items) - q.head
}
