package coord

import (
	"context"
	"fmt"
	"time"
)

// retry runs op until it succeeds, waiting delay between attempts. A
// maxAttempts of zero or below retries without bound. The last error is
// returned when the budget runs out or the context is cancelled.
func retry(ctx context.Context, maxAttempts int, delay time.Duration, op func() error) error {
	var lastErr error
	for attempt := 1; maxAttempts <= 0 || attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if maxAttempts > 0 && attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", maxAttempts, lastErr)
}
