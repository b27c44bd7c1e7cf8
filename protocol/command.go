package protocol

// CommandType defines the type of the command (using uint8 for memory alignment and performance)
type CommandType uint8

const (
	CmdUnknown     CommandType = 0
	CmdNewOrder    CommandType = 51
	CmdCancelAmend CommandType = 52
)

// Command is the standard carrier for order-entry commands recorded or replayed
// against a book, one JSON object per line.
type Command struct {
	// Type identifies the payload type for fast routing.
	Type CommandType `json:"type"`

	// Payload contains the serialized business data (e.g. JSON bytes of NewOrderCommand).
	Payload []byte `json:"payload"`
}

// NewOrderCommand is the payload for submitting a new limit order.
type NewOrderCommand struct {
	Side     Side   `json:"side"`
	Price    string `json:"price"` // Using string to prevent precision loss in JSON
	Quantity int64  `json:"quantity"`
	TraderID int64  `json:"trader_id"`
}

// CancelAmendCommand is the payload for cancelling (Quantity == 0) or
// amending an existing order.
type CancelAmendCommand struct {
	OrderID  uint64 `json:"order_id"`
	TraderID int64  `json:"trader_id"`
	Quantity int64  `json:"quantity"`
}
