package utils

import (
	"context"
	"fmt"
	"time"
)

// Retry runs fn up to maxRetries times.
// If fn returns nil (success) it stops immediately.
// If fn keeps failing, it waits longer each attempt (exponential backoff
// starting at base: base, 2*base, 4*base...) and returns the last error
// after all attempts are exhausted. A cancelled ctx stops the loop.
//
// Usage:
//
//	err := utils.Retry(ctx, 3, 2*time.Second, func() error {
//	    return session.Open(ctx, spec)
//	})
func Retry(ctx context.Context, maxRetries int, base time.Duration, fn func() error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt < maxRetries {
			wait := base * time.Duration(1<<uint(attempt-1))
			Warn("Attempt %d/%d failed: %v, retrying in %v", attempt, maxRetries, lastErr, wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	return fmt.Errorf("all %d attempts failed, last error: %w", maxRetries, lastErr)
}
