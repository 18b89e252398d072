package scraper

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mzansitravel/venue-scraper/config"
)

const maxResponseBytes = 2 * 1024 * 1024

// Fetcher performs throttled, retried HTTP GETs and parses the response
// into a queryable document. Each fetcher owns its throttle state, so
// pacing is never shared across scraper instances.
type Fetcher struct {
	cfg      *config.Config
	client   *http.Client
	throttle *Throttle
	retry    *retryPolicy
	metrics  *Metrics
	category string
}

// NewFetcher builds a fetcher from cfg. The configured proxy, timeout,
// and retry budget are honored on every request.
func NewFetcher(cfg *config.Config, metrics *Metrics, category string) (*Fetcher, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if cfg.Proxy != nil {
		proxyURL, err := cfg.Proxy.URL()
		if err != nil {
			return nil, fmt.Errorf("configure proxy: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	f := &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		throttle: NewThrottle(cfg.RequestsPerSecond, cfg.RandomJitter),
		metrics:  metrics,
		category: category,
	}

	f.retry = newRetryPolicy(cfg.MaxRetries, cfg.RetryDelay, cfg.RetryDelayMax)
	f.retry.onRetry = func(attempt int, err error) {
		f.metrics.IncRetries()
		slog.Debug("retrying fetch",
			slog.Int("attempt", attempt),
			slog.String("category", category),
			slog.Any("error", err),
		)
	}
	return f, nil
}

// FetchDocument fetches rawURL and parses the body into a document.
func (f *Fetcher) FetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	html, err := f.FetchHTML(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("parse html: %w", err)}
	}
	return doc, nil
}

// FetchHTML performs the throttled GET under the retry policy and returns
// the page body. Failures are logged and returned as *FetchError; nothing
// is swallowed at this layer.
func (f *Fetcher) FetchHTML(ctx context.Context, rawURL string) ([]byte, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	var body []byte
	err := f.retry.do(ctx, func(ctx context.Context) error {
		fetched, attemptErr := f.attempt(ctx, rawURL)
		if attemptErr != nil {
			return attemptErr
		}
		body = fetched
		return nil
	})
	if err != nil {
		slog.Error("fetch failed",
			slog.String("url", rawURL),
			slog.String("category", f.category),
			slog.String("error_type", errorTypeLabel(err)),
			slog.Any("error", err),
		)
		f.metrics.IncError(errorTypeLabel(err))
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	return body, nil
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.randomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-ZA,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := f.client.Do(req)
	f.metrics.IncRequest(f.category)
	if err != nil {
		return nil, classifyError(err, 0, rawURL)
	}
	defer func() { _ = resp.Body.Close() }()
	f.metrics.ObserveDuration(time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, classifyError(nil, resp.StatusCode, rawURL)
	}

	var reader io.Reader = io.LimitReader(resp.Body, maxResponseBytes)
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, gzErr := gzip.NewReader(reader)
		if gzErr != nil {
			return nil, fmt.Errorf("gzip reader: %w", gzErr)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, classifyError(err, 0, rawURL)
	}
	return body, nil
}

func (f *Fetcher) randomUserAgent() string {
	agents := f.cfg.UserAgents
	if len(agents) == 0 {
		return "Mozilla/5.0 (compatible; venue-scraper/1.0)"
	}
	return agents[rand.Intn(len(agents))]
}

// Throttle exposes the fetcher's pacing gate.
func (f *Fetcher) Throttle() *Throttle {
	return f.throttle
}

func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url must be absolute http(s): %q", rawURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url must include a host: %q", rawURL)
	}
	return nil
}
