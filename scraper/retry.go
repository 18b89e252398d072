package scraper

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// retryPolicy wraps an operation with bounded retries and exponential
// backoff. MaxRetries counts retries after the initial attempt, so the
// total number of attempts is MaxRetries+1. Backoff doubles per attempt
// with ±25% jitter, capped at MaxDelay.
type retryPolicy struct {
	maxRetries  int
	baseDelay   time.Duration
	maxDelay    time.Duration
	shouldRetry func(error) bool
	onRetry     func(attempt int, err error)
}

const backoffJitterFraction = 0.25

func newRetryPolicy(maxRetries int, baseDelay, maxDelay time.Duration) *retryPolicy {
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	return &retryPolicy{
		maxRetries:  maxRetries,
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
		shouldRetry: retryable,
	}
}

// do runs fn until it succeeds, exhausts the retry budget, or fails with
// an error the predicate rules out. The last error is surfaced on
// exhaustion. Context cancellation stops retries immediately.
func (p *retryPolicy) do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if !p.shouldRetry(lastErr) {
			return lastErr
		}
		if attempt == p.maxRetries {
			break
		}

		if p.onRetry != nil {
			p.onRetry(attempt+1, lastErr)
		}

		timer := time.NewTimer(p.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

func (p *retryPolicy) backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}

	jitterRange := delay * backoffJitterFraction
	delay += (rand.Float64()*2 - 1) * jitterRange
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
