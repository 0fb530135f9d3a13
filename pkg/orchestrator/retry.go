package orchestrator

import (
	"context"
	"time"
)

// withRetry runs fn up to maxRetries times with exponential backoff between
// tries. An error classified permanent aborts immediately: retrying a broken
// credential only burns time. Backoff sleeps are cooperative and cancel with
// the context. Returns nil on the first success, otherwise the last error.
func withRetry(ctx context.Context, maxRetries int, initialBackoff time.Duration, permanent func(error) bool, fn func() error) error {
	var lastErr error
	for try := 1; try <= maxRetries; try++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if permanent(lastErr) {
			return lastErr
		}
		if try == maxRetries {
			break
		}

		backoff := initialBackoff << (try - 1)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}
