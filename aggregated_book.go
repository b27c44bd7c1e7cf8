package match

import (
	"fmt"
	"sync"

	"github.com/igrmk/treemap/v2"
	"github.com/shopspring/decimal"
)

// DepthItem is one aggregated price level.
type DepthItem struct {
	Price decimal.Decimal `json:"price"`
	Size  int64           `json:"size"`
}

// AggregatedBook maintains a simplified view of the order book,
// tracking only price levels and their aggregated sizes (depth).
// It is designed for downstream services that need to rebuild
// order book state from the execution reports a book emits.
type AggregatedBook struct {
	mu       sync.RWMutex
	replayed uint64
	ask      *treemap.TreeMap[decimal.Decimal, int64]
	bid      *treemap.TreeMap[decimal.Decimal, int64]
	leaves   map[uint64]int64 // remaining quantity of every resting order seen
}

// NewAggregatedBook creates a new AggregatedBook instance with empty ask and bid sides.
// Both sides iterate best price first.
func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{
		ask: treemap.NewWithKeyCompare[decimal.Decimal, int64](func(a, b decimal.Decimal) bool {
			return a.LessThan(b)
		}),
		bid: treemap.NewWithKeyCompare[decimal.Decimal, int64](func(a, b decimal.Decimal) bool {
			return a.GreaterThan(b)
		}),
		leaves: make(map[uint64]int64),
	}
}

// Replayed returns the number of reports applied so far.
func (ab *AggregatedBook) Replayed() uint64 {
	ab.mu.RLock()
	defer ab.mu.RUnlock()
	return ab.replayed
}

// Publish replays reports in order, so an AggregatedBook can be used as a ReportWriter sink.
func (ab *AggregatedBook) Publish(reports ...*ExecutionReport) error {
	for _, report := range reports {
		if err := ab.Replay(report); err != nil {
			return err
		}
	}
	return nil
}

// Replay applies one execution report to the aggregated depth.
// Trade, Cancel and Replaced reports for an order that was never seen as New
// return an error and leave the view untouched.
func (ab *AggregatedBook) Replay(report *ExecutionReport) error {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	prevLeaves, known := ab.leaves[report.OrderID]
	switch report.ExecType {
	case ExecTrade, ExecCancel, ExecReplaced:
		if !known {
			return fmt.Errorf("replay %s for order %d: %w", report.ExecType, report.OrderID, ErrNotFound)
		}
	}

	change := CalculateDepthChange(report, prevLeaves)
	if change.SizeDiff != 0 {
		ab.apply(change)
	}

	switch report.ExecType {
	case ExecNew:
		ab.leaves[report.OrderID] = report.LeavesQty
	case ExecCancel:
		delete(ab.leaves, report.OrderID)
	case ExecTrade, ExecReplaced:
		if report.LeavesQty == 0 {
			delete(ab.leaves, report.OrderID)
		} else {
			ab.leaves[report.OrderID] = report.LeavesQty
		}
	}

	ab.replayed++
	return nil
}

func (ab *AggregatedBook) apply(change DepthChange) {
	tree := ab.side(change.Side)
	size, _ := tree.Get(change.Price)
	size += change.SizeDiff
	if size <= 0 {
		tree.Del(change.Price)
		return
	}
	tree.Set(change.Price, size)
}

// Depth returns the aggregated size at a specific price level for the given side.
// Returns zero if the price level does not exist.
func (ab *AggregatedBook) Depth(side Side, price decimal.Decimal) int64 {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	size, _ := ab.side(side).Get(price)
	return size
}

// Levels returns up to limit price levels of side, best price first.
func (ab *AggregatedBook) Levels(side Side, limit int) []DepthItem {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	result := make([]DepthItem, 0, limit)
	for it := ab.side(side).Iterator(); it.Valid() && len(result) < limit; it.Next() {
		result = append(result, DepthItem{Price: it.Key(), Size: it.Value()})
	}
	return result
}

func (ab *AggregatedBook) side(side Side) *treemap.TreeMap[decimal.Decimal, int64] {
	if side == Buy {
		return ab.bid
	}
	return ab.ask
}
