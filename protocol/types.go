package protocol

import "strings"

// Side represents the order side (Buy/Sell).
type Side int8

const (
	SideUnknown Side = 0
	SideBuy     Side = 1
	SideSell    Side = 2
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "Buy"
	case SideSell:
		return "Sell"
	}
	return "Unknown"
}

// ParseSide accepts "Buy"/"Sell" in any case as well as the "B"/"S" shorthands.
func ParseSide(s string) Side {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "b":
		return SideBuy
	case "sell", "s":
		return SideSell
	}
	return SideUnknown
}

// OrdStatus is the lifecycle status of an order.
type OrdStatus uint8

const (
	OrdStatusNew OrdStatus = iota
	OrdStatusPartiallyFilled
	OrdStatusFilled
	OrdStatusCancelled
	OrdStatusRejected
	OrdStatusReplaced
)

var ordStatusNames = [...]string{"New", "PartiallyFilled", "Filled", "Cancelled", "Rejected", "Replaced"}

func (s OrdStatus) String() string {
	if int(s) < len(ordStatusNames) {
		return ordStatusNames[s]
	}
	return "Unknown"
}

// ExecType identifies what an execution report describes.
type ExecType uint8

const (
	ExecTypeNew ExecType = iota
	ExecTypeReject
	ExecTypeCancelReject
	ExecTypeTrade
	ExecTypeCancel
	ExecTypeReplaced
)

var execTypeNames = [...]string{"New", "Reject", "CancelReject", "Trade", "Cancel", "Replaced"}

func (t ExecType) String() string {
	if int(t) < len(execTypeNames) {
		return execTypeNames[t]
	}
	return "Unknown"
}

// RejectReason is the free-text label carried by Reject and CancelReject reports.
// The values are opaque labels shared with downstream consumers.
type RejectReason string

const (
	RejectReasonNone                RejectReason = ""
	RejectReasonNotTickAligned      RejectReason = "Order_price_is_not_multiple_of_ticksize"
	RejectReasonOutsideThreshold    RejectReason = "Order_price_is_outside_threshold_of_closePrice"
	RejectReasonQuantityNotPositive RejectReason = "Order_quantity_is_not_positive"
	RejectReasonLevelCapacity       RejectReason = "Order_quantity_exceeds_price_level_capacity"
	RejectReasonRateExceeded        RejectReason = "Message_rate_exceeded"
	RejectReasonTraderNotRegistered RejectReason = "Trader_not_registered."
	RejectReasonOrderNotFound       RejectReason = "Order_not_found."
	RejectReasonAmendBelowFilled    RejectReason = "Quantity_amend_up_is_not_allowed"
	RejectReasonTooLateToCancel     RejectReason = "Too_late_to_cancel"
)
