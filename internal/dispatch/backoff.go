package dispatch

import "time"

// maxBackoffShift bounds the exponent so the doubling below cannot
// overflow time.Duration.
const maxBackoffShift = 32

// retryBackoff returns the delay before a failed item becomes eligible
// again: base * 2^retries, optionally capped. A zero ceiling means
// unbounded growth, matching the historical behavior; operators who need
// a bound set queue.retry_backoff_cap in the config.
func retryBackoff(base, ceiling time.Duration, retries int) time.Duration {
	if base <= 0 {
		return 0
	}
	if retries < 0 {
		retries = 0
	}
	if retries > maxBackoffShift {
		retries = maxBackoffShift
	}

	delay := base << uint(retries)
	if delay < base {
		delay = 1<<62 - 1
	}
	if ceiling > 0 && delay > ceiling {
		return ceiling
	}
	return delay
}
