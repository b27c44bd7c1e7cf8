package match

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// priceLedger maps a normalized price to the aggregate resting quantity of one side.
// The window spans the tick-aligned prices in [max(close-band, 0), close+band].
// Entries are adjusted by exact deltas only.
type priceLedger struct {
	floor  decimal.Decimal
	tick   decimal.Decimal
	levels []int64
}

func newPriceLedger(closePrice, band, tick decimal.Decimal) *priceLedger {
	floor := closePrice.Sub(band).Div(tick).Ceil().Mul(tick)
	floor = decimal.Max(floor, decimal.Zero)
	size := closePrice.Add(band).Sub(floor).Div(tick).Floor().IntPart() + 1
	return &priceLedger{
		floor:  floor,
		tick:   tick,
		levels: make([]int64, size),
	}
}

// index returns the level slot of price, false when it falls outside the window
// or between two ticks.
func (l *priceLedger) index(price decimal.Decimal) (int, bool) {
	diff := price.Sub(l.floor)
	if diff.IsNegative() || !diff.Mod(l.tick).IsZero() {
		return 0, false
	}
	idx := diff.Div(l.tick).Floor().IntPart()
	if idx >= int64(len(l.levels)) {
		return 0, false
	}
	return int(idx), true
}

// add credits (or debits, with a negative delta) the level at price.
func (l *priceLedger) add(price decimal.Decimal, delta int64) {
	idx, ok := l.index(price)
	if !ok {
		panic(fmt.Sprintf("match: price %s outside ledger window", price))
	}
	l.levels[idx] += delta
	if l.levels[idx] < 0 {
		panic(fmt.Sprintf("match: ledger underflow at %s", price))
	}
}

// at returns the quantity resting at price, zero when price has no level.
func (l *priceLedger) at(price decimal.Decimal) int64 {
	idx, ok := l.index(price)
	if !ok {
		return 0
	}
	return l.levels[idx]
}

// headroom returns how much quantity the level at price can still take,
// zero when price has no level.
func (l *priceLedger) headroom(price decimal.Decimal) int64 {
	idx, ok := l.index(price)
	if !ok {
		return 0
	}
	return math.MaxInt64 - l.levels[idx]
}

func (l *priceLedger) priceOf(idx int) decimal.Decimal {
	return l.floor.Add(l.tick.Mul(decimal.NewFromInt(int64(idx))))
}

// highest returns the highest price with resting quantity.
func (l *priceLedger) highest() (decimal.Decimal, bool) {
	for i := len(l.levels) - 1; i >= 0; i-- {
		if l.levels[i] != 0 {
			return l.priceOf(i), true
		}
	}
	return decimal.Zero, false
}

// lowest returns the lowest price with resting quantity.
func (l *priceLedger) lowest() (decimal.Decimal, bool) {
	for i, qty := range l.levels {
		if qty != 0 {
			return l.priceOf(i), true
		}
	}
	return decimal.Zero, false
}

// depthCount returns the number of non-empty levels.
func (l *priceLedger) depthCount() int64 {
	var n int64
	for _, qty := range l.levels {
		if qty != 0 {
			n++
		}
	}
	return n
}
