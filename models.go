package match

import (
	"time"

	"github.com/0x5487/crossbook/protocol"
	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"
)

type Side = protocol.Side

const (
	Buy  Side = protocol.SideBuy
	Sell Side = protocol.SideSell
)

type OrdStatus = protocol.OrdStatus

const (
	StatusNew             OrdStatus = protocol.OrdStatusNew
	StatusPartiallyFilled OrdStatus = protocol.OrdStatusPartiallyFilled
	StatusFilled          OrdStatus = protocol.OrdStatusFilled
	StatusCancelled       OrdStatus = protocol.OrdStatusCancelled
	StatusRejected        OrdStatus = protocol.OrdStatusRejected
	StatusReplaced        OrdStatus = protocol.OrdStatusReplaced
)

type ExecType = protocol.ExecType

const (
	ExecNew          ExecType = protocol.ExecTypeNew
	ExecReject       ExecType = protocol.ExecTypeReject
	ExecCancelReject ExecType = protocol.ExecTypeCancelReject
	ExecTrade        ExecType = protocol.ExecTypeTrade
	ExecCancel       ExecType = protocol.ExecTypeCancel
	ExecReplaced     ExecType = protocol.ExecTypeReplaced
)

type RejectReason = protocol.RejectReason

// Order represents the live state of an order owned by the book.
// It is only ever read or mutated while the book's lock is held.
type Order struct {
	ID        uint64          `json:"id"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"` // Total working quantity, amended in place
	CumQty    int64           `json:"cum_qty"`
	LeavesQty int64           `json:"leaves_qty"` // Quantity - CumQty
	Status    OrdStatus       `json:"status"`
	TraderID  int64           `json:"trader_id"`
	Timestamp int64           `json:"timestamp"` // Unix nano, admission time

	LastPrice decimal.Decimal `json:"last_price"`
	LastQty   int64           `json:"last_qty"`

	// element in the side's priority queue, nil once popped
	elem *skiplist.Element
}

// isLive reports whether the order can still trade.
func (o *Order) isLive() bool {
	return o.Status != StatusCancelled && o.LeavesQty > 0
}

// fill applies an execution of qty at price.
func (o *Order) fill(price decimal.Decimal, qty int64) {
	o.CumQty += qty
	o.LeavesQty = o.Quantity - o.CumQty
	if o.LeavesQty < 0 {
		panic("match: negative remaining quantity on order fill")
	}
	o.LastPrice = price
	o.LastQty = qty
	o.Status = StatusPartiallyFilled
	if o.LeavesQty == 0 {
		o.Status = StatusFilled
	}
}

// amend sets a new total working quantity, keeping the executed quantity.
func (o *Order) amend(qty int64) {
	o.Quantity = qty
	o.LeavesQty = o.Quantity - o.CumQty
	if o.LeavesQty < 0 {
		panic("match: negative remaining quantity on amend")
	}
}

// BookStats contains statistics about the order book queues
type BookStats struct {
	BidOrderCount int64 `json:"bid_order_count"` // live resting bids
	AskOrderCount int64 `json:"ask_order_count"`
	BidDepthCount int64 `json:"bid_depth_count"` // non-empty bid price levels
	AskDepthCount int64 `json:"ask_depth_count"`
	QueuedBids    int64 `json:"queued_bids"` // bid queue entries, stale ones included
	QueuedAsks    int64 `json:"queued_asks"`
	PendingReport int64 `json:"pending_reports"`
}

// clock returns the current time, injectable for tests.
type clock func() time.Time
