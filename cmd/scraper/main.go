package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mzansitravel/venue-scraper/config"
	"github.com/mzansitravel/venue-scraper/job"
	"github.com/mzansitravel/venue-scraper/models"
	"github.com/mzansitravel/venue-scraper/pipeline"
	"github.com/mzansitravel/venue-scraper/scraper"
)

func main() {
	defaultCfg := config.DefaultConfig()

	rpsDefault := defaultCfg.RequestsPerSecond
	if value, ok, err := config.EnvFloat("VENUE_SCRAPER_RPS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid VENUE_SCRAPER_RPS: %v\n", err)
		os.Exit(1)
	} else if ok {
		rpsDefault = value
	}
	concurrencyDefault := defaultCfg.MaxConcurrency
	if value, ok, err := config.EnvInt("VENUE_SCRAPER_CONCURRENCY"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid VENUE_SCRAPER_CONCURRENCY: %v\n", err)
		os.Exit(1)
	} else if ok {
		concurrencyDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("VENUE_SCRAPER_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := ""
	if value, ok := config.EnvString("VENUE_SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	category := flag.String("category", "", "Venue category: restaurant, hotel, attraction, or activity")
	urlsFile := flag.String("urls-file", "", "File with one URL per line (remaining args are also treated as URLs)")
	rps := flag.Float64("rps", rpsDefault, "Requests per second budget")
	jitterMs := flag.Int("jitter", int(defaultCfg.RandomJitter/time.Millisecond), "Random pacing jitter (milliseconds)")
	maxRetries := flag.Int("max-retries", defaultCfg.MaxRetries, "Maximum retry attempts per URL")
	retryDelayMs := flag.Int("retry-delay", int(defaultCfg.RetryDelay/time.Millisecond), "Initial retry backoff (milliseconds)")
	retryDelayMaxMs := flag.Int("retry-delay-max", int(defaultCfg.RetryDelayMax/time.Millisecond), "Maximum retry backoff (milliseconds)")
	timeoutMs := flag.Int("timeout", int(defaultCfg.Timeout/time.Millisecond), "Per-request timeout (milliseconds)")
	concurrency := flag.Int("concurrency", concurrencyDefault, "Maximum in-flight URLs")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, _ := newLogger(*verbose)
	slog.SetDefault(logger)

	urls, err := collectURLs(*urlsFile, flag.Args())
	if err != nil {
		slog.Error("reading url list", slog.Any("error", err))
		os.Exit(1)
	}
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "no URLs given: pass -urls-file or URL arguments")
		os.Exit(1)
	}

	cfg := &config.Config{
		MaxRetries:        *maxRetries,
		RetryDelay:        time.Duration(*retryDelayMs) * time.Millisecond,
		RetryDelayMax:     time.Duration(*retryDelayMaxMs) * time.Millisecond,
		RequestsPerSecond: *rps,
		RandomJitter:      time.Duration(*jitterMs) * time.Millisecond,
		Timeout:           time.Duration(*timeoutMs) * time.Millisecond,
		MaxConcurrency:    *concurrency,
		OutputFile:        *outputFile,
		OutputFormat:      strings.ToLower(*outputFormat),
		MetricsAddr:       *metricsAddr,
		Verbose:           *verbose,
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	cat := models.Category(strings.ToLower(*category))
	s, err := scraper.New(cat, cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight work to finish")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		if provider, ok := s.(interface{ Metrics() *scraper.Metrics }); ok {
			metricsServer = &http.Server{
				Addr:    cfg.MetricsAddr,
				Handler: promhttp.HandlerFor(provider.Metrics().Registry, promhttp.HandlerOpts{}),
			}
			go func() {
				if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("metrics server failed", slog.Any("error", err))
				}
			}()
			slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
		}
	}

	manager := job.NewManagerWithFactory(func(models.Category, *config.Config) (scraper.Scraper, error) {
		return s, nil
	})

	submitted, err := manager.Submit(cat, urls, cfg)
	if err != nil {
		slog.Error("submitting job", slog.Any("error", err))
		os.Exit(1)
	}

	p := pipeline.NewPipeline(writer)
	p.Start(cfg.MaxConcurrency)

	startTime := time.Now()
	finished, err := manager.Run(ctx, submitted.ID)
	if err != nil {
		slog.Error("scraping failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := p.Process(finished.Results...); err != nil && !errors.Is(err, pipeline.ErrPipelineClosed) {
		slog.Error("pipeline process error", slog.Any("error", err))
	}
	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(finished, time.Since(startTime), cfg.OutputFile, p.GetMetrics())
}

func collectURLs(urlsFile string, args []string) ([]string, error) {
	var urls []string
	if urlsFile != "" {
		f, err := os.Open(urlsFile)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", urlsFile, err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			urls = append(urls, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read %s: %w", urlsFile, err)
		}
	}
	urls = append(urls, args...)
	return urls, nil
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(j *models.Job, duration time.Duration, outputFile string, metrics map[string]any) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")
	fmt.Printf("  Job:           %s (%s)\n", j.ID, j.Status)
	fmt.Printf("  URLs:          %d\n", len(j.URLs))
	fmt.Printf("  Succeeded:     %d\n", j.SuccessCount())
	fmt.Printf("  Failed:        %d\n", j.FailureCount())
	if processed, ok := metrics["processed_venues"].(int64); ok {
		fmt.Printf("  Written:       %d\n", processed)
	}
	if skipped, ok := metrics["skipped"].(map[string]int); ok && len(skipped) > 0 {
		fmt.Printf("  Skipped:       %v\n", skipped)
	}
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
