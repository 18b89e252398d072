package scraper

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/mzansitravel/venue-scraper/config"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.RequestsPerSecond = 1000
	cfg.RandomJitter = 0
	cfg.RetryDelay = time.Millisecond
	cfg.RetryDelayMax = 5 * time.Millisecond
	return cfg
}

func newTestFetcher(t *testing.T, cfg *config.Config, transport *httpmock.MockTransport) *Fetcher {
	t.Helper()
	f, err := NewFetcher(cfg, NewMetrics(), "restaurant")
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	f.client.Transport = transport
	return f
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func TestFetcherSendsBrowserHeaders(t *testing.T) {
	cfg := testConfig()

	var mu sync.Mutex
	var captured http.Header
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://venue.test/page", func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		captured = req.Header.Clone()
		mu.Unlock()
		return httpmock.NewStringResponse(200, "<html></html>"), nil
	})

	f := newTestFetcher(t, cfg, transport)
	if _, err := f.FetchHTML(context.Background(), "http://venue.test/page"); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	ua := captured.Get("User-Agent")
	found := false
	for _, candidate := range cfg.UserAgents {
		if ua == candidate {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("user agent %q not from the configured pool", ua)
	}
	if got := captured.Get("Accept-Language"); got != "en-ZA,en;q=0.9" {
		t.Fatalf("accept-language = %q", got)
	}
	if got := captured.Get("Accept-Encoding"); got != "gzip" {
		t.Fatalf("accept-encoding = %q", got)
	}
	if got := captured.Get("Cache-Control"); got != "no-cache" {
		t.Fatalf("cache-control = %q", got)
	}
	if got := captured.Get("Accept"); got == "" {
		t.Fatalf("accept header should be set")
	}
}

func TestFetcherRetriesRateLimitThenSucceeds(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 3

	var mu sync.Mutex
	calls := 0
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://venue.test/busy", func(*http.Request) (*http.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return httpmock.NewStringResponse(http.StatusTooManyRequests, ""), nil
		}
		return httpmock.NewStringResponse(200, "<html><h1>ok</h1></html>"), nil
	})

	f := newTestFetcher(t, cfg, transport)
	body, err := f.FetchHTML(context.Background(), "http://venue.test/busy")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Contains(body, []byte("ok")) {
		t.Fatalf("unexpected body %q", body)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestFetcherDoesNotRetryNotFound(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 3

	var mu sync.Mutex
	calls := 0
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://venue.test/missing", func(*http.Request) (*http.Response, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return httpmock.NewStringResponse(http.StatusNotFound, ""), nil
	})

	f := newTestFetcher(t, cfg, transport)
	_, err := f.FetchHTML(context.Background(), "http://venue.test/missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (404 is terminal)", calls)
	}

	var status ErrStatus
	if !errors.As(err, &status) || status.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 status error", err)
	}
	if status.URL != "http://venue.test/missing" {
		t.Fatalf("status url = %q, want the request url", status.URL)
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.URL != "http://venue.test/missing" {
		t.Fatalf("err = %v, want *FetchError with url", err)
	}
}

func TestFetcherExhaustsRetryBudget(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 2

	var mu sync.Mutex
	calls := 0
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://venue.test/flaky", func(*http.Request) (*http.Response, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return httpmock.NewStringResponse(http.StatusInternalServerError, ""), nil
	})

	f := newTestFetcher(t, cfg, transport)
	_, err := f.FetchHTML(context.Background(), "http://venue.test/flaky")
	if err == nil {
		t.Fatalf("expected error after exhaustion")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3 (initial + 2 retries)", calls)
	}
}

func TestFetcherRejectsInvalidURL(t *testing.T) {
	for _, rawURL := range []string{"ftp://example.com/x", "/relative/path", "http://"} {
		f := newTestFetcher(t, testConfig(), httpmock.NewMockTransport())
		if _, err := f.FetchHTML(context.Background(), rawURL); err == nil {
			t.Fatalf("expected error for %q", rawURL)
		}
	}
}

func TestFetcherDecompressesGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte("<html><h1>Zipped Venue</h1></html>")); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://venue.test/zipped", func(*http.Request) (*http.Response, error) {
		resp := httpmock.NewBytesResponse(200, buf.Bytes())
		resp.Header.Set("Content-Encoding", "gzip")
		return resp, nil
	})

	f := newTestFetcher(t, testConfig(), transport)
	body, err := f.FetchHTML(context.Background(), "http://venue.test/zipped")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Contains(body, []byte("Zipped Venue")) {
		t.Fatalf("body not decompressed: %q", body)
	}
}

func TestFetchDocumentParses(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://venue.test/doc",
		htmlResponder(`<html><body><h1 class="restaurant-name">The Test Kitchen</h1></body></html>`))

	f := newTestFetcher(t, testConfig(), transport)
	doc, err := f.FetchDocument(context.Background(), "http://venue.test/doc")
	if err != nil {
		t.Fatalf("fetch document: %v", err)
	}
	if got := doc.Find("h1").Text(); got != "The Test Kitchen" {
		t.Fatalf("h1 = %q", got)
	}
}
