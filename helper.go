package match

import "github.com/shopspring/decimal"

// DepthChange represents a change in the order book depth.
type DepthChange struct {
	Side     Side
	Price    decimal.Decimal
	SizeDiff int64
}

// CalculateDepthChange calculates the depth change an execution report implies.
// prevLeaves is the order's remaining quantity before the report, as last seen
// by the caller; it is only consulted for Cancel and Replaced reports.
func CalculateDepthChange(report *ExecutionReport, prevLeaves int64) DepthChange {
	change := DepthChange{Side: report.Side, Price: report.Price}

	switch report.ExecType {
	case ExecNew:
		change.SizeDiff = report.LeavesQty
	case ExecTrade:
		change.SizeDiff = -report.LastQty
	case ExecCancel:
		change.SizeDiff = -prevLeaves
	case ExecReplaced:
		// Priority kept, the price is unchanged and the size moves in place.
		change.SizeDiff = report.LeavesQty - prevLeaves
	case ExecReject, ExecCancelReject:
		// Rejected requests never change resting interest.
	}

	return change
}
