package transport

import (
	"math/rand/v2"
	"time"
)

// backoff returns an exponential back-off delay with Full Jitter.
//
//	attempt == 0  -> [0, base)
//	attempt == 1  -> [0, 2*base)
//	attempt == 2  -> [0, 4*base)
//	...
//
// The upper bound is capped at max.
func backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if base <= 0 {
		return 0
	}
	d := max
	if attempt < 62 && base <= max>>attempt {
		d = base << attempt
	}
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(d)))
}
