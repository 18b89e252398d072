// Package config holds scraper configuration and validation.
package config

import (
	"fmt"
	"math"
	"net/url"
	"time"
)

// Proxy holds optional outbound proxy settings.
type Proxy struct {
	Host     string
	Port     int
	Username string
	Password string
}

// URL renders the proxy as an http URL with embedded credentials.
func (p *Proxy) URL() (*url.URL, error) {
	if p == nil {
		return nil, nil
	}
	if p.Host == "" || p.Port <= 0 {
		return nil, fmt.Errorf("proxy requires host and positive port")
	}
	u := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u, nil
}

// Config holds scraper configuration. Instances are treated as immutable
// once handed to a scraper.
type Config struct {
	MaxRetries        int
	RetryDelay        time.Duration
	RetryDelayMax     time.Duration
	RequestsPerSecond float64
	RandomJitter      time.Duration
	Timeout           time.Duration
	MaxConcurrency    int
	UserAgents        []string
	Proxy             *Proxy

	OutputFile   string
	OutputFormat string // csv, json, or dual
	MetricsAddr  string
	Verbose      bool
}

// DefaultConfig returns conservative defaults for public venue sites.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:        3,
		RetryDelay:        time.Second,
		RetryDelayMax:     30 * time.Second,
		RequestsPerSecond: 2,
		RandomJitter:      250 * time.Millisecond,
		Timeout:           30 * time.Second,
		MaxConcurrency:    2,
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
		},
		OutputFile:   "output/venues.csv",
		OutputFormat: "csv",
	}
}

// WithDefaults returns a copy of c where every unset field falls back to
// the default value. Explicitly set fields win.
func (c *Config) WithDefaults() *Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}

	out := *c
	if out.MaxRetries < 0 {
		out.MaxRetries = def.MaxRetries
	}
	if out.RetryDelay <= 0 {
		out.RetryDelay = def.RetryDelay
	}
	if out.RetryDelayMax <= 0 {
		out.RetryDelayMax = def.RetryDelayMax
	}
	if out.RequestsPerSecond <= 0 {
		out.RequestsPerSecond = def.RequestsPerSecond
	}
	if out.Timeout <= 0 {
		out.Timeout = def.Timeout
	}
	if out.MaxConcurrency <= 0 {
		// Sized from the request budget when not set explicitly.
		out.MaxConcurrency = int(math.Ceil(out.RequestsPerSecond))
	}
	if len(out.UserAgents) == 0 {
		out.UserAgents = def.UserAgents
	}
	if out.OutputFile == "" {
		out.OutputFile = def.OutputFile
	}
	if out.OutputFormat == "" {
		out.OutputFormat = def.OutputFormat
	}
	return &out
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	if c.RetryDelayMax > 0 && c.RetryDelay > c.RetryDelayMax {
		return fmt.Errorf("retry delay (%s) cannot exceed retry delay max (%s)", c.RetryDelay, c.RetryDelayMax)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	if c.RandomJitter < 0 {
		return fmt.Errorf("random jitter cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive")
	}
	if len(c.UserAgents) == 0 {
		return fmt.Errorf("user agent list cannot be empty")
	}
	for _, ua := range c.UserAgents {
		if ua == "" {
			return fmt.Errorf("user agent entries cannot be empty")
		}
	}
	if c.Proxy != nil {
		if _, err := c.Proxy.URL(); err != nil {
			return fmt.Errorf("invalid proxy: %w", err)
		}
	}
	if c.OutputFormat != "" && c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	return nil
}

// MinInterval is the pacing gap implied by the request budget.
func (c *Config) MinInterval() time.Duration {
	if c.RequestsPerSecond <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.RequestsPerSecond)
}
