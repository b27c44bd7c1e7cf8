package match

import "time"

// rateLimiter bounds a trader's admitted messages over a sliding window.
// It keeps the timestamps of the last `limit` admitted messages in a ring;
// a message is refused when the oldest of them is still inside the window.
type rateLimiter struct {
	limit  int
	window time.Duration
	stamps []time.Time // grows up to limit, then used as a ring
	head   int         // oldest entry once the ring is full
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:  limit,
		window: window,
	}
}

// allow records a message at now and reports whether it is within the rate.
// Refused messages are not recorded.
func (r *rateLimiter) allow(now time.Time) bool {
	if r.limit <= 0 {
		return false
	}

	if len(r.stamps) < r.limit {
		r.stamps = append(r.stamps, now)
		return true
	}

	if now.Sub(r.stamps[r.head]) < r.window {
		return false
	}

	r.stamps[r.head] = now
	r.head = (r.head + 1) % r.limit
	return true
}

// Trader is a registered message source, created on its first new order.
type Trader struct {
	ID      int64
	limiter *rateLimiter
}

func newTrader(id int64, limit int, window time.Duration) *Trader {
	return &Trader{
		ID:      id,
		limiter: newRateLimiter(limit, window),
	}
}

// isRateExceeded consumes one message slot and reports whether the trader is over its rate.
func (t *Trader) isRateExceeded(now time.Time) bool {
	return !t.limiter.allow(now)
}
