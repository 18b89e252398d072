package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	p := newRetryPolicy(3, time.Millisecond, 5*time.Millisecond)

	attempts := 0
	err := p.do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return ErrStatus{Code: http.StatusServiceUnavailable}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestRetryExhaustionSurfacesLastError(t *testing.T) {
	p := newRetryPolicy(2, time.Millisecond, 5*time.Millisecond)

	var retried []int
	p.onRetry = func(attempt int, _ error) {
		retried = append(retried, attempt)
	}

	attempts := 0
	err := p.do(context.Background(), func(context.Context) error {
		attempts++
		return ErrStatus{Code: http.StatusBadGateway}
	})

	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3 (initial + 2 retries)", attempts)
	}
	var status ErrStatus
	if !errors.As(err, &status) || status.Code != http.StatusBadGateway {
		t.Fatalf("err = %v, want status 502", err)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Fatalf("onRetry attempts = %v, want [1 2]", retried)
	}
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	p := newRetryPolicy(3, time.Millisecond, 5*time.Millisecond)

	attempts := 0
	err := p.do(context.Background(), func(context.Context) error {
		attempts++
		return ErrStatus{Code: http.StatusNotFound}
	})

	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
	var status ErrStatus
	if !errors.As(err, &status) || status.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want status 404", err)
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	p := newRetryPolicy(5, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := p.do(ctx, func(context.Context) error {
		attempts++
		cancel()
		return ErrStatus{Code: http.StatusInternalServerError}
	})

	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
	if err == nil {
		t.Fatalf("expected error after cancellation")
	}
}

func TestRetryBackoffCappedAndJittered(t *testing.T) {
	p := newRetryPolicy(5, 100*time.Millisecond, 300*time.Millisecond)

	// Cap plus 25% jitter is the hard ceiling.
	limit := time.Duration(float64(p.maxDelay) * (1 + backoffJitterFraction))
	for attempt := 0; attempt < 10; attempt++ {
		if delay := p.backoff(attempt); delay < 0 || delay > limit {
			t.Fatalf("backoff(%d) = %v, want within [0, %v]", attempt, delay, limit)
		}
	}

	// Early attempts stay near the doubling curve.
	if delay := p.backoff(0); delay > 150*time.Millisecond {
		t.Fatalf("backoff(0) = %v, want <= 125ms plus slack", delay)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", ErrTimeout{Err: context.DeadlineExceeded}, true},
		{"connection", ErrConnection{Err: errors.New("refused")}, true},
		{"rate limited", ErrStatus{Code: http.StatusTooManyRequests}, true},
		{"server error", ErrStatus{Code: http.StatusBadGateway}, true},
		{"not found", ErrStatus{Code: http.StatusNotFound}, false},
		{"forbidden", ErrStatus{Code: http.StatusForbidden}, false},
		{"net error", &net.DNSError{IsTimeout: false}, true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.want {
				t.Fatalf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: "connection"},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "server error", err: nil, statusCode: http.StatusBadGateway, expected: "server_error"},
		{name: "client error", err: nil, statusCode: http.StatusGone, expected: "client_error"},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorTypeLabel(classifyError(tt.err, tt.statusCode, "http://example.test/page")); got != tt.expected {
				t.Fatalf("classifyError(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}

func TestClassifyErrorCarriesURL(t *testing.T) {
	err := classifyError(nil, http.StatusNotFound, "http://example.test/page")

	var status ErrStatus
	if !errors.As(err, &status) {
		t.Fatalf("err = %v, want ErrStatus", err)
	}
	if status.URL != "http://example.test/page" {
		t.Fatalf("url = %q, want the request url", status.URL)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", ErrTimeout{Err: context.DeadlineExceeded}, "timeout: context deadline exceeded"},
		{"connection", ErrConnection{Err: errors.New("refused")}, "connection: refused"},
		{"status", ErrStatus{Code: http.StatusNotFound, URL: "http://example.test/page"}, "http status 404 for http://example.test/page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Fatalf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchErrorUnwraps(t *testing.T) {
	inner := ErrStatus{Code: http.StatusTooManyRequests, URL: "http://example.test"}
	err := fmt.Errorf("wrapped: %w", &FetchError{URL: "http://example.test", Err: inner})

	var status ErrStatus
	if !errors.As(err, &status) || status.Code != http.StatusTooManyRequests {
		t.Fatalf("expected ErrStatus through FetchError, got %v", err)
	}
}
