package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	match "github.com/0x5487/crossbook"
	"github.com/0x5487/crossbook/protocol"
	"github.com/shopspring/decimal"
)

var errExit = errors.New("exit requested")

// operator is the interactive order entry loop. It remembers which order ids
// each trader submitted so modifications can be offered per trader.
type operator struct {
	book   *match.OrderBook
	in     *bufio.Scanner
	out    io.Writer
	orders map[int64]map[uint64]match.Side
}

func newOperator(book *match.OrderBook, in io.Reader, out io.Writer) *operator {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)
	return &operator{
		book:   book,
		in:     scanner,
		out:    out,
		orders: make(map[int64]map[uint64]match.Side),
	}
}

// loop runs until the operator exits or input ends.
func (op *operator) loop() error {
	op.printTop()
	for {
		err := op.step()
		switch {
		case errors.Is(err, errExit), errors.Is(err, io.EOF):
			return nil
		case err != nil:
			fmt.Fprintln(op.out, err)
		}
	}
}

func (op *operator) step() error {
	traderID, err := op.readInt("Enter TraderID: ")
	if err != nil {
		return err
	}
	op.printTop()

	request, err := op.read("New (N) or Modify (M) or Exit (E): ")
	if err != nil {
		return err
	}

	switch strings.ToUpper(request) {
	case "N":
		return op.newOrder(traderID)
	case "M":
		return op.modifyOrder(traderID)
	case "E":
		return errExit
	}
	return fmt.Errorf("option %s not recognised", request)
}

func (op *operator) newOrder(traderID int64) error {
	sideStr, err := op.read("Enter Side: ")
	if err != nil {
		return err
	}
	side := protocol.ParseSide(sideStr)
	if side == protocol.SideUnknown {
		return fmt.Errorf("unknown order side: %s", sideStr)
	}

	priceStr, err := op.read("Price: ")
	if err != nil {
		return err
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return fmt.Errorf("invalid price: %s", priceStr)
	}

	qty, err := op.readInt("Qty: ")
	if err != nil {
		return err
	}

	id, err := op.book.SubmitNewOrder(side, price, qty, traderID)
	if err != nil {
		return err
	}
	if op.orders[traderID] == nil {
		op.orders[traderID] = make(map[uint64]match.Side)
	}
	op.orders[traderID][id] = side
	op.printTop()
	return nil
}

func (op *operator) modifyOrder(traderID int64) error {
	ids := make([]uint64, 0, len(op.orders[traderID]))
	for id := range op.orders[traderID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fmt.Fprintf(op.out, "Trader [%d] ids=%v\n", traderID, ids)

	orderID, err := op.readInt("Enter OrderID to modify: ")
	if err != nil {
		return err
	}
	if _, ok := op.orders[traderID][uint64(orderID)]; !ok {
		return fmt.Errorf("order: %d not found", orderID)
	}

	qty, err := op.readInt("Enter Modified Qty (0 for cancel): ")
	if err != nil {
		return err
	}

	if err := op.book.CancelAmend(uint64(orderID), traderID, qty); err != nil {
		return err
	}
	op.printTop()
	return nil
}

func (op *operator) printTop() {
	bid, hasBid := op.book.BestBid()
	ask, hasAsk := op.book.BestAsk()
	fmt.Fprintf(op.out, "Bid: [%s] Ask: [%s]\n",
		op.level(match.Buy, bid, hasBid), op.level(match.Sell, ask, hasAsk))
}

func (op *operator) level(side match.Side, price decimal.Decimal, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%d@%s", op.book.QuantityAt(side, price), price)
}

func (op *operator) read(prompt string) (string, error) {
	fmt.Fprint(op.out, prompt)
	if !op.in.Scan() {
		if err := op.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return op.in.Text(), nil
}

func (op *operator) readInt(prompt string) (int64, error) {
	text, err := op.read(prompt)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", text)
	}
	return v, nil
}
