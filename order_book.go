package match

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/0x5487/crossbook/protocol"
	"github.com/shopspring/decimal"
)

type bookState uint8

const (
	bookIdle bookState = iota
	bookOpen
	bookClosed
)

// OrderBookOption configures an OrderBook.
type OrderBookOption func(*OrderBook)

// WithTickSize sets the minimum price increment. Non-positive values are ignored.
func WithTickSize(tick decimal.Decimal) OrderBookOption {
	return func(book *OrderBook) {
		if tick.IsPositive() {
			book.tickSize = tick
		}
	}
}

// WithPriceBand sets the maximum distance of an order price from the close price.
func WithPriceBand(band decimal.Decimal) OrderBookOption {
	return func(book *OrderBook) {
		if !band.IsNegative() {
			book.priceBand = band
		}
	}
}

// WithRateLimit sets how many messages a trader may send inside any trailing window.
func WithRateLimit(limit int, window time.Duration) OrderBookOption {
	return func(book *OrderBook) {
		book.rateLimit = limit
		book.rateWindow = window
	}
}

// WithClock replaces the wall clock used for admission timestamps, rate checks and reports.
func WithClock(now func() time.Time) OrderBookOption {
	return func(book *OrderBook) {
		book.now = now
	}
}

// WithHaltOnCancelRateExceeded stops a cancel/amend request right after its
// Message_rate_exceeded reject. By default the request still goes on to resolve
// the original order after the reject is reported.
func WithHaltOnCancelRateExceeded(halt bool) OrderBookOption {
	return func(book *OrderBook) {
		book.haltOnCancelRate = halt
	}
}

// WithSerializer sets the serializer used to decode command payloads.
func WithSerializer(s protocol.Serializer) OrderBookOption {
	return func(book *OrderBook) {
		book.serializer = s
	}
}

// OrderBook is a single-instrument continuous double auction.
// Every mutation of queues, index, ledgers and the report queue happens under mu.
type OrderBook struct {
	symbol           string
	closePrice       decimal.Decimal
	tickSize         decimal.Decimal
	priceBand        decimal.Decimal
	rateLimit        int
	rateWindow       time.Duration
	haltOnCancelRate bool
	now              clock
	serializer       protocol.Serializer

	mu           sync.Mutex
	state        bookState
	oidSeed      uint64
	bidQueue     *queue
	askQueue     *queue
	rootOrders   map[uint64]*Order
	traders      map[int64]*Trader
	bidLevels    *priceLedger
	askLevels    *priceLedger
	reports      reportQueue
	tradedVolume int64

	wake     chan struct{}
	done     chan struct{}
	loopDone chan struct{}
}

// NewOrderBook creates a new order book instance around the instrument's reference close price.
func NewOrderBook(symbol string, closePrice decimal.Decimal, opts ...OrderBookOption) *OrderBook {
	book := &OrderBook{
		symbol:     symbol,
		closePrice: closePrice,
		tickSize:   DefaultTickSize,
		priceBand:  DefaultPriceBand,
		rateLimit:  DefaultRateLimit,
		rateWindow: DefaultRateWindow,
		now:        time.Now,
		serializer: protocol.DefaultJSONSerializer{},
		bidQueue:   NewBuyerQueue(),
		askQueue:   NewSellerQueue(),
		rootOrders: make(map[uint64]*Order),
		traders:    make(map[int64]*Trader),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		loopDone:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(book)
	}

	book.bidLevels = newPriceLedger(book.closePrice, book.priceBand, book.tickSize)
	book.askLevels = newPriceLedger(book.closePrice, book.priceBand, book.tickSize)
	return book
}

func (book *OrderBook) Symbol() string              { return book.symbol }
func (book *OrderBook) TickSize() decimal.Decimal   { return book.tickSize }
func (book *OrderBook) ClosePrice() decimal.Decimal { return book.closePrice }

// SubmitNewOrder admits a new limit order and returns the identifier assigned to it.
// The identifier is assigned even when the order is rejected; the outcome is
// reported on the execution report stream. The only errors are ErrInvalidParam
// for an unknown side and ErrBookClosed.
func (book *OrderBook) SubmitNewOrder(side Side, price decimal.Decimal, quantity int64, traderID int64) (uint64, error) {
	if side != Buy && side != Sell {
		return 0, ErrInvalidParam
	}

	book.mu.Lock()
	defer book.mu.Unlock()

	if book.state == bookClosed {
		return 0, ErrBookClosed
	}

	now := book.now()
	book.oidSeed++
	order := &Order{
		ID:        book.oidSeed,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		LeavesQty: quantity,
		TraderID:  traderID,
		Timestamp: now.UnixNano(),
	}

	if !book.isTickAligned(price) {
		book.rejectNewOrder(order, protocol.RejectReasonNotTickAligned, now)
		return order.ID, nil
	}

	if !book.isValidPrice(price) {
		book.rejectNewOrder(order, protocol.RejectReasonOutsideThreshold, now)
		return order.ID, nil
	}

	if quantity <= 0 {
		book.rejectNewOrder(order, protocol.RejectReasonQuantityNotPositive, now)
		return order.ID, nil
	}

	if quantity > book.levels(side).headroom(price) {
		book.rejectNewOrder(order, protocol.RejectReasonLevelCapacity, now)
		return order.ID, nil
	}

	trader, ok := book.traders[traderID]
	if !ok {
		trader = newTrader(traderID, book.rateLimit, book.rateWindow)
		book.traders[traderID] = trader
	}

	if trader.isRateExceeded(now) {
		book.rejectNewOrder(order, protocol.RejectReasonRateExceeded, now)
		return order.ID, nil
	}

	book.acceptNewOrder(order, now)
	return order.ID, nil
}

// CancelAmend cancels an order (quantity == 0) or sets its total working quantity.
// Outcomes, including rejections, are reported on the execution report stream.
func (book *OrderBook) CancelAmend(orderID uint64, traderID int64, quantity int64) error {
	book.mu.Lock()
	defer book.mu.Unlock()

	if book.state == bookClosed {
		return ErrBookClosed
	}

	now := book.now()
	request := &Order{
		ID:        orderID,
		TraderID:  traderID,
		Quantity:  quantity,
		LeavesQty: quantity,
		Status:    StatusRejected,
	}

	trader, ok := book.traders[traderID]
	if !ok {
		book.rejectCancel(request, protocol.RejectReasonTraderNotRegistered, now)
		return nil
	}

	if trader.isRateExceeded(now) {
		book.rejectCancel(request, protocol.RejectReasonRateExceeded, now)
		if book.haltOnCancelRate {
			return nil
		}
	}

	order, ok := book.rootOrders[orderID]
	if !ok {
		book.rejectCancel(request, protocol.RejectReasonOrderNotFound, now)
		return nil
	}

	oldFilled := order.CumQty
	if quantity < oldFilled {
		book.rejectCancel(order, protocol.RejectReasonAmendBelowFilled, now)
		return nil
	}

	if delta := quantity - order.Quantity; delta > book.levels(order.Side).headroom(order.Price) {
		book.rejectCancel(order, protocol.RejectReasonLevelCapacity, now)
		return nil
	}

	switch {
	case quantity == 0:
		book.cancel(order, now)
	case quantity < order.CumQty:
		// unreachable while the whole request runs under mu, kept as the last guard
		// against trading that slipped in after the first check
		book.rejectCancel(order, protocol.RejectReasonTooLateToCancel, now)
		book.cancel(order, now)
	default:
		book.amendDown(order, quantity, now)
	}

	return nil
}

// PollReport removes and returns the oldest pending execution report, nil when there is none.
// Reports stay pollable after Close.
func (book *OrderBook) PollReport() *ExecutionReport {
	book.mu.Lock()
	defer book.mu.Unlock()

	return book.reports.pop()
}

// BestBid returns the highest price with resting buy quantity.
func (book *OrderBook) BestBid() (decimal.Decimal, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()

	return book.bidLevels.highest()
}

// BestAsk returns the lowest price with resting sell quantity.
func (book *OrderBook) BestAsk() (decimal.Decimal, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()

	return book.askLevels.lowest()
}

// QuantityAt returns the resting quantity on side at price; zero outside the price window.
func (book *OrderBook) QuantityAt(side Side, price decimal.Decimal) int64 {
	book.mu.Lock()
	defer book.mu.Unlock()

	return book.levels(side).at(price)
}

// TradedVolume returns the cumulative quantity traded, saturating at math.MaxInt64.
func (book *OrderBook) TradedVolume() int64 {
	book.mu.Lock()
	defer book.mu.Unlock()

	return book.tradedVolume
}

// Stats returns usage statistics for the order book.
func (book *OrderBook) Stats() *BookStats {
	book.mu.Lock()
	defer book.mu.Unlock()

	return &BookStats{
		BidOrderCount: book.bidQueue.liveCount(),
		AskOrderCount: book.askQueue.liveCount(),
		BidDepthCount: book.bidLevels.depthCount(),
		AskDepthCount: book.askLevels.depthCount(),
		QueuedBids:    book.bidQueue.size(),
		QueuedAsks:    book.askQueue.size(),
		PendingReport: int64(book.reports.len()),
	}
}

// Open starts the continuous matching loop.
func (book *OrderBook) Open() error {
	book.mu.Lock()
	defer book.mu.Unlock()

	switch book.state {
	case bookOpen:
		return ErrBookOpened
	case bookClosed:
		return ErrBookClosed
	}

	book.state = bookOpen
	go book.run()
	return nil
}

// Close stops accepting order entry, signals the matching loop to stop and
// waits for it to exit or for ctx to be done.
// Closing a book twice returns ErrBookClosed.
func (book *OrderBook) Close(ctx context.Context) error {
	book.mu.Lock()
	prev := book.state
	book.state = bookClosed
	book.mu.Unlock()

	switch prev {
	case bookClosed:
		return ErrBookClosed
	case bookIdle:
		return nil
	}

	close(book.done)

	select {
	case <-book.loopDone:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}
}

// run is the matching loop. It keeps crossing while the book is crossed and
// parks on the wake signal otherwise.
func (book *OrderBook) run() {
	defer close(book.loopDone)

	logger.Info("continuous trading start", "symbol", book.symbol, "engine_version", EngineVersion)
	defer func() {
		logger.Info("continuous trading finish", "symbol", book.symbol, "total_volume", book.TradedVolume())
	}()

	for {
		select {
		case <-book.done:
			return
		default:
		}

		if book.match() {
			continue
		}

		select {
		case <-book.done:
			return
		case <-book.wake:
		}
	}
}

// signal wakes the matching loop without blocking.
func (book *OrderBook) signal() {
	select {
	case book.wake <- struct{}{}:
	default:
	}
}

// match attempts one crossing of the best live bid against the best live ask.
// It reports whether a trade happened.
func (book *OrderBook) match() bool {
	book.mu.Lock()
	defer book.mu.Unlock()

	if book.bidQueue.isEmpty() || book.askQueue.isEmpty() {
		return false
	}

	buyOrder := book.bidQueue.peekLive()
	sellOrder := book.askQueue.peekLive()
	if buyOrder == nil || sellOrder == nil {
		return false
	}

	if !canCross(buyOrder, sellOrder) {
		return false
	}

	crossQty := min(buyOrder.LeavesQty, sellOrder.LeavesQty)
	crossPx := decimal.Min(buyOrder.Price, sellOrder.Price)
	book.onTrade(buyOrder, sellOrder, crossPx, crossQty, book.now())
	return true
}

func canCross(buyOrder, sellOrder *Order) bool {
	return buyOrder.Price.GreaterThanOrEqual(sellOrder.Price)
}

func (book *OrderBook) onTrade(buyOrder, sellOrder *Order, crossPx decimal.Decimal, crossQty int64, now time.Time) {
	logger.Debug("trade", "symbol", book.symbol, "price", crossPx, "quantity", crossQty,
		"buy_order_id", buyOrder.ID, "sell_order_id", sellOrder.ID)

	buyOrder.fill(crossPx, crossQty)
	sellOrder.fill(crossPx, crossQty)

	if buyOrder.LeavesQty == 0 {
		book.bidQueue.remove(buyOrder)
		delete(book.rootOrders, buyOrder.ID)
	}
	if sellOrder.LeavesQty == 0 {
		book.askQueue.remove(sellOrder)
		delete(book.rootOrders, sellOrder.ID)
	}

	book.reports.push(newExecutionReport(book.symbol, sellOrder, ExecTrade, now))
	book.reports.push(newExecutionReport(book.symbol, buyOrder, ExecTrade, now))

	book.bidLevels.add(buyOrder.Price, -crossQty)
	book.askLevels.add(sellOrder.Price, -crossQty)
	if crossQty > math.MaxInt64-book.tradedVolume {
		book.tradedVolume = math.MaxInt64
	} else {
		book.tradedVolume += crossQty
	}
}

func (book *OrderBook) acceptNewOrder(order *Order, now time.Time) {
	logger.Debug("accepting new order", "symbol", book.symbol, "order_id", order.ID,
		"side", order.Side.String(), "price", order.Price, "quantity", order.Quantity)

	order.Status = StatusNew
	book.rootOrders[order.ID] = order
	book.reports.push(newExecutionReport(book.symbol, order, ExecNew, now))
	book.sideQueue(order.Side).push(order)
	book.levels(order.Side).add(order.Price, order.Quantity)
	book.signal()
}

func (book *OrderBook) rejectNewOrder(order *Order, reason RejectReason, now time.Time) {
	logger.Debug("rejecting new order", "symbol", book.symbol, "order_id", order.ID,
		"trader_id", order.TraderID, "reason", reason)

	order.Status = StatusRejected
	book.reports.push(newRejectReport(book.symbol, order, ExecReject, reason, now))
}

func (book *OrderBook) rejectCancel(order *Order, reason RejectReason, now time.Time) {
	logger.Debug("rejecting cancel request", "symbol", book.symbol, "order_id", order.ID,
		"trader_id", order.TraderID, "reason", reason)

	book.reports.push(newRejectReport(book.symbol, order, ExecCancelReject, reason, now))
}

// cancel retires the order. Its queue entry is left for the matching loop to discard.
func (book *OrderBook) cancel(order *Order, now time.Time) {
	order.Status = StatusCancelled
	delete(book.rootOrders, order.ID)
	book.levels(order.Side).add(order.Price, -order.LeavesQty)
	book.reports.push(newExecutionReport(book.symbol, order, ExecCancel, now))
}

// amendDown changes the working quantity in place; price is immutable so
// the order keeps its queue position.
func (book *OrderBook) amendDown(order *Order, quantity int64, now time.Time) {
	oldQty := order.Quantity
	order.amend(quantity)
	book.levels(order.Side).add(order.Price, quantity-oldQty)

	if order.LeavesQty == 0 {
		order.Status = StatusFilled
		delete(book.rootOrders, order.ID)
	}

	book.reports.push(newExecutionReport(book.symbol, order, ExecReplaced, now))
}

func (book *OrderBook) isTickAligned(price decimal.Decimal) bool {
	return price.Mod(book.tickSize).IsZero()
}

func (book *OrderBook) isValidPrice(price decimal.Decimal) bool {
	if !price.IsPositive() {
		return false
	}
	return book.closePrice.Sub(price).Abs().LessThanOrEqual(book.priceBand)
}

func (book *OrderBook) sideQueue(side Side) *queue {
	if side == Buy {
		return book.bidQueue
	}
	return book.askQueue
}

func (book *OrderBook) levels(side Side) *priceLedger {
	if side == Buy {
		return book.bidLevels
	}
	return book.askLevels
}
