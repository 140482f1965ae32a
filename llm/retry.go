package llm

import (
	"math/rand/v2"
	"time"
)

// RetryConfig bounds per-endpoint retry behavior. The wait between attempts
// doubles from Base up to Cap.
type RetryConfig struct {
	// Attempts is the total tries per endpoint, including the first.
	Attempts int

	// Base is the wait window after the first failed attempt.
	Base time.Duration

	// Cap bounds the growth of the wait window.
	Cap time.Duration
}

// DefaultRetryConfig returns the retry policy used in production.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts: 3,
		Base:     2 * time.Second,
		Cap:      30 * time.Second,
	}
}

// Backoff returns the wait before retrying after the given failed attempt
// (1-based). The result is a random point in the upper half of the current
// window, so concurrent clients retrying the same endpoint spread out.
func (rc RetryConfig) Backoff(attempt int) time.Duration {
	window := rc.Base
	for i := 1; i < attempt && window < rc.Cap; i++ {
		window *= 2
	}
	if window > rc.Cap {
		window = rc.Cap
	}
	if window <= 0 {
		return 0
	}

	half := window / 2
	return half + time.Duration(rand.Int64N(int64(half)+1))
}
