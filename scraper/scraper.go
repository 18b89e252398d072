// Package scraper implements the venue scraping core: a throttled,
// retrying HTML fetcher and four category scrapers that extract
// structured venue records through layered selector and regex heuristics.
package scraper

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/mzansitravel/venue-scraper/config"
	"github.com/mzansitravel/venue-scraper/extract"
	"github.com/mzansitravel/venue-scraper/models"
)

// Scraper is the capability shared by all category scrapers. Scrape never
// lets an internal failure escape: fetch and extraction errors become
// failure results. ScrapeList preserves input order and never aborts the
// batch on individual failures.
type Scraper interface {
	Category() models.Category
	Scrape(ctx context.Context, url string) models.Result
	ScrapeList(ctx context.Context, urls []string) []models.Result
}

// New constructs the scraper for a category.
func New(category models.Category, cfg *config.Config) (Scraper, error) {
	switch category {
	case models.CategoryRestaurant:
		return NewRestaurant(cfg)
	case models.CategoryHotel:
		return NewHotel(cfg)
	case models.CategoryAttraction:
		return NewAttraction(cfg)
	case models.CategoryActivity:
		return NewActivity(cfg)
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
}

// core carries the shared machinery each category scraper composes: the
// validated config, the throttled fetcher, and metrics. Each scraper owns
// its own core, so pacing state is never shared between instances.
type core struct {
	cfg      *config.Config
	fetcher  *Fetcher
	metrics  *Metrics
	category models.Category
}

func newCore(category models.Category, cfg *config.Config) (*core, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scraper config: %w", err)
	}

	metrics := NewMetrics()
	fetcher, err := NewFetcher(cfg, metrics, string(category))
	if err != nil {
		return nil, err
	}

	return &core{
		cfg:      cfg,
		fetcher:  fetcher,
		metrics:  metrics,
		category: category,
	}, nil
}

func (c *core) Category() models.Category {
	return c.category
}

// Metrics exposes the scraper's Prometheus registry for serving.
func (c *core) Metrics() *Metrics {
	return c.metrics
}

// scrape runs one fetch-and-extract cycle and converts any failure into
// a failure result at this boundary.
func (c *core) scrape(ctx context.Context, rawURL string, extractPage func(doc *goquery.Document, pageURL string) (any, error)) models.Result {
	doc, err := c.fetcher.FetchDocument(ctx, rawURL)
	if err != nil {
		return models.Fail(rawURL, err)
	}

	data, err := extractPage(doc, rawURL)
	if err != nil {
		c.metrics.IncError("extraction")
		return models.Fail(rawURL, err)
	}

	c.metrics.IncVenues(string(c.category))
	return models.Succeed(rawURL, data)
}

// scrapeList fans scrape out over urls under the concurrency cap, writing
// each outcome into its positional slot so output order always matches
// input order regardless of completion order.
func (c *core) scrapeList(ctx context.Context, urls []string, scrape func(ctx context.Context, url string) models.Result) []models.Result {
	results := make([]models.Result, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrency)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			results[i] = scrape(gctx, u)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// venueSelectors configures the shared base-field extraction per category.
type venueSelectors struct {
	name        []string
	address     []string
	description []string
	images      string
	coordAttrs  bool // also try data-lat/data-lng
}

// baseVenue extracts the fields every category shares. A venue without a
// name is rejected; everything else is optional.
func (c *core) baseVenue(doc *goquery.Document, pageURL string, sel venueSelectors) (models.Venue, error) {
	name := extract.FirstText(doc, sel.name, 100)
	if name == "" {
		return models.Venue{}, fmt.Errorf("venue name not found")
	}

	venue := models.Venue{
		Name:        name,
		Address:     extract.FirstText(doc, sel.address, 200),
		Phone:       extract.Phone(doc),
		Website:     extract.Website(doc, pageURL),
		Description: extract.FirstText(doc, sel.description, 2000),
		Images:      extract.Images(doc, sel.images, pageURL),
	}

	if rating, ok := extract.Rating(doc); ok {
		venue.Rating = rating
	}
	if lat, lng, ok := extract.Coordinates(doc, sel.coordAttrs); ok {
		venue.Coordinates = &models.Coordinates{Lat: lat, Lng: lng}
	}

	return venue, nil
}
