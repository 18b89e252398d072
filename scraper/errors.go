package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrTimeout indicates a timeout while issuing a request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Sprintf("timeout: %v", e.Err)
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Sprintf("connection: %v", e.Err)
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrStatus indicates a non-2xx terminal response.
type ErrStatus struct {
	Code int
	URL  string
}

func (e ErrStatus) Error() string {
	return fmt.Sprintf("http status %d for %s", e.Code, e.URL)
}

// FetchError is the boundary error surfaced by the fetcher after retries
// are exhausted or a terminal failure occurs.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// classifyError folds a transport error and status code into the typed
// taxonomy used for retry decisions and metrics labels.
func classifyError(err error, statusCode int, url string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}
	if statusCode != 0 {
		return ErrStatus{Code: statusCode, URL: url}
	}
	return err
}

// retryable reports whether an error is worth retrying: network failures,
// timeouts, 429, and 5xx. Other client errors are terminal.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return true
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return true
	}
	var status ErrStatus
	if errors.As(err, &status) {
		return status.Code == http.StatusTooManyRequests || status.Code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

// errorTypeLabel maps an error to its metrics label.
func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var status ErrStatus
	if errors.As(err, &status) {
		switch {
		case status.Code == http.StatusTooManyRequests:
			return "rate_limited"
		case status.Code == http.StatusNotFound:
			return "not_found"
		case status.Code == http.StatusForbidden:
			return "forbidden"
		case status.Code >= 500:
			return "server_error"
		default:
			return "client_error"
		}
	}
	return "other"
}
