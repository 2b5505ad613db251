package scraper

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"
)

// RetryPolicy bounds repeat attempts for a single page fetch. The zero
// value (and NoRetry) performs exactly one attempt, which is the default
// for the direct API path: repeated identical requests there are not
// expected to self-heal.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      time.Duration

	// OnRetry runs before each repeat attempt. The browser path uses it
	// to recycle the session and rotate the proxy.
	OnRetry func(attempt int, err error)
}

func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// BrowserRetry is the default policy when operating through a proxy or
// browser session: up to 3 attempts with jittered exponential backoff.
func BrowserRetry() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		Jitter:      time.Second,
	}
}

// Do executes fn, repeating retryable failures up to MaxAttempts.
// Configuration and parse errors propagate immediately.
func (p RetryPolicy) Do(ctx context.Context, name string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if p.OnRetry != nil {
				p.OnRetry(attempt, lastErr)
			}
			wait := delay
			if p.Jitter > 0 {
				wait += time.Duration(rand.Int63n(int64(p.Jitter)))
			}
			log.Printf("%s failed (attempt %d/%d): %v, retrying in %s", name, attempt-1, attempts, lastErr, wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}
