package scraper

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestThrottleEnforcesMinimumGap(t *testing.T) {
	throttle := NewThrottle(50, 0) // 20ms gap

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := throttle.Wait(context.Background()); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	// First wait is immediate, the next two each wait the full gap.
	if elapsed < 40*time.Millisecond {
		t.Fatalf("3 waits took %v, want >= 40ms", elapsed)
	}
}

func TestThrottleSerializesConcurrentCallers(t *testing.T) {
	throttle := NewThrottle(100, 0) // 10ms gap

	var mu sync.Mutex
	var stamps []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := throttle.Wait(context.Background()); err != nil {
				t.Errorf("wait: %v", err)
				return
			}
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(stamps) != 4 {
		t.Fatalf("stamps = %d, want 4", len(stamps))
	}
	mu.Lock()
	defer mu.Unlock()
	first, last := stamps[0], stamps[0]
	for _, s := range stamps[1:] {
		if s.Before(first) {
			first = s
		}
		if s.After(last) {
			last = s
		}
	}
	if span := last.Sub(first); span < 25*time.Millisecond {
		t.Fatalf("4 concurrent waits spanned %v, want >= 25ms", span)
	}
}

func TestThrottleWaitHonorsCancellation(t *testing.T) {
	throttle := NewThrottle(0.1, 0) // 10s gap

	if err := throttle.Wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := throttle.Wait(ctx)
	if err == nil {
		t.Fatalf("expected context error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("cancelled wait took %v", elapsed)
	}
}

func TestThrottleInterval(t *testing.T) {
	if got := NewThrottle(2, 0).Interval(); got != 500*time.Millisecond {
		t.Fatalf("interval = %v, want 500ms", got)
	}
	if got := NewThrottle(0, 0).Interval(); got != 0 {
		t.Fatalf("interval = %v, want 0", got)
	}
}
