package queue

import "time"

// Backoff returns the retry delay after the given failed attempt: initial
// doubled per attempt, capped at max.
func Backoff(attempt int, initial, max time.Duration) time.Duration {
	backoff := initial
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff >= max {
			return max
		}
	}
	if backoff > max {
		backoff = max
	}
	return backoff
}
