package match

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// EngineVersion is the current version of the matching engine
	EngineVersion = "v1.0.0"

	// DefaultRateLimit is the number of messages a trader may send inside one DefaultRateWindow.
	DefaultRateLimit = 100
	// DefaultRateWindow is the trailing window the rate limit slides over.
	DefaultRateWindow = time.Second
)

var (
	// DefaultTickSize is the minimum price increment.
	DefaultTickSize = decimal.RequireFromString("0.01")
	// DefaultPriceBand is the maximum distance of an order price from the close price.
	DefaultPriceBand = decimal.NewFromInt(10)
)
