package match

import (
	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"
)

// priorityKey orders resting interest: price first, then admission time, then id.
type priorityKey struct {
	price     decimal.Decimal
	timestamp int64
	id        uint64
}

// queue holds one side's resting orders in matching priority.
// Cancelled orders are not removed eagerly; peekLive discards them once they reach the front.
type queue struct {
	side Side
	list *skiplist.SkipList
}

// compareTime breaks price ties: earlier admission first, then lower id.
func compareTime(k1, k2 priorityKey) int {
	if k1.timestamp < k2.timestamp {
		return -1
	} else if k1.timestamp > k2.timestamp {
		return 1
	}

	if k1.id < k2.id {
		return -1
	} else if k1.id > k2.id {
		return 1
	}
	return 0
}

// NewBuyerQueue creates a new queue for buy orders (bids).
// The orders are sorted by price in descending order (highest price first).
func NewBuyerQueue() *queue {
	return &queue{
		side: Buy,
		list: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			k1, _ := lhs.(priorityKey)
			k2, _ := rhs.(priorityKey)

			if k1.price.LessThan(k2.price) {
				return 1
			} else if k1.price.GreaterThan(k2.price) {
				return -1
			}

			return compareTime(k1, k2)
		})),
	}
}

// NewSellerQueue creates a new queue for sell orders (asks).
// The orders are sorted by price in ascending order (lowest price first).
func NewSellerQueue() *queue {
	return &queue{
		side: Sell,
		list: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			k1, _ := lhs.(priorityKey)
			k2, _ := rhs.(priorityKey)

			if k1.price.GreaterThan(k2.price) {
				return 1
			} else if k1.price.LessThan(k2.price) {
				return -1
			}

			return compareTime(k1, k2)
		})),
	}
}

// push inserts an order at its priority position.
func (q *queue) push(order *Order) {
	order.elem = q.list.Set(priorityKey{
		price:     order.Price,
		timestamp: order.Timestamp,
		id:        order.ID,
	}, order)
}

// peekLive returns the highest-priority live order, permanently discarding
// any dead order found at the front on the way.
func (q *queue) peekLive() *Order {
	for {
		el := q.list.Front()
		if el == nil {
			return nil
		}

		order, _ := el.Value.(*Order)
		if order.isLive() {
			return order
		}
		q.list.RemoveElement(el)
		order.elem = nil
	}
}

// remove drops an order from the queue, used once it is fully filled.
func (q *queue) remove(order *Order) {
	if order.elem == nil {
		return
	}
	q.list.RemoveElement(order.elem)
	order.elem = nil
}

// isEmpty reports whether the queue holds no entries at all, stale or live.
func (q *queue) isEmpty() bool {
	return q.list.Len() == 0
}

// size returns the number of entries, stale ones included.
func (q *queue) size() int64 {
	return int64(q.list.Len())
}

// liveCount returns the number of live orders in the queue.
func (q *queue) liveCount() int64 {
	var n int64
	for el := q.list.Front(); el != nil; el = el.Next() {
		if order, _ := el.Value.(*Order); order.isLive() {
			n++
		}
	}
	return n
}
