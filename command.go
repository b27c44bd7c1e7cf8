package match

import (
	"fmt"

	"github.com/0x5487/crossbook/protocol"
	"github.com/shopspring/decimal"
)

// ExecuteCommand decodes a recorded order-entry command and applies it to the book.
// For CmdNewOrder it returns the assigned order id; for CmdCancelAmend it returns the target id.
func (book *OrderBook) ExecuteCommand(cmd *protocol.Command) (uint64, error) {
	switch cmd.Type {
	case protocol.CmdNewOrder:
		payload := &protocol.NewOrderCommand{}
		if err := book.serializer.Unmarshal(cmd.Payload, payload); err != nil {
			return 0, fmt.Errorf("decode new order: %w", err)
		}
		price, err := decimal.NewFromString(payload.Price)
		if err != nil {
			return 0, fmt.Errorf("decode new order price %q: %w", payload.Price, ErrInvalidParam)
		}
		return book.SubmitNewOrder(payload.Side, price, payload.Quantity, payload.TraderID)
	case protocol.CmdCancelAmend:
		payload := &protocol.CancelAmendCommand{}
		if err := book.serializer.Unmarshal(cmd.Payload, payload); err != nil {
			return 0, fmt.Errorf("decode cancel/amend: %w", err)
		}
		return payload.OrderID, book.CancelAmend(payload.OrderID, payload.TraderID, payload.Quantity)
	}

	return 0, ErrUnknownCmd
}
