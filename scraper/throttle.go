package scraper

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Throttle enforces a minimum gap between requests issued by one scraper
// instance. The gap is measured from the completion of the previous Wait,
// so request starts are strictly serialized; this is not a token bucket
// and allows no bursts. An optional jitter is added on top of the gap.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	jitter   time.Duration
	last     time.Time
}

// NewThrottle builds a throttle from a requests-per-second budget.
func NewThrottle(requestsPerSecond float64, jitter time.Duration) *Throttle {
	var interval time.Duration
	if requestsPerSecond > 0 {
		interval = time.Duration(float64(time.Second) / requestsPerSecond)
	}
	return &Throttle{interval: interval, jitter: jitter}
}

// Wait blocks until the pacing gap since the previous Wait completion has
// elapsed, then records the new completion instant. The mutex is held
// across the sleep so concurrent callers queue up one at a time.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delay := t.interval + t.randomJitter()
	if !t.last.IsZero() {
		if elapsed := time.Since(t.last); elapsed < delay {
			timer := time.NewTimer(delay - elapsed)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	t.last = time.Now()
	return nil
}

func (t *Throttle) randomJitter() time.Duration {
	if t.jitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(t.jitter)))
}

// Interval reports the configured minimum gap, excluding jitter.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}
