package scraper

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/mzansitravel/venue-scraper/models"
)

func newTestScraper(t *testing.T, category models.Category, transport *httpmock.MockTransport) Scraper {
	t.Helper()
	s, err := New(category, testConfig())
	if err != nil {
		t.Fatalf("new %s scraper: %v", category, err)
	}

	switch typed := s.(type) {
	case *RestaurantScraper:
		typed.fetcher.client.Transport = transport
	case *HotelScraper:
		typed.fetcher.client.Transport = transport
	case *AttractionScraper:
		typed.fetcher.client.Transport = transport
	case *ActivityScraper:
		typed.fetcher.client.Transport = transport
	default:
		t.Fatalf("unexpected scraper type %T", s)
	}
	return s
}

func TestNewScraperPerCategory(t *testing.T) {
	for _, category := range []models.Category{
		models.CategoryRestaurant,
		models.CategoryHotel,
		models.CategoryAttraction,
		models.CategoryActivity,
	} {
		s, err := New(category, testConfig())
		if err != nil {
			t.Fatalf("new %s: %v", category, err)
		}
		if s.Category() != category {
			t.Fatalf("category = %s, want %s", s.Category(), category)
		}
	}

	if _, err := New("museum", testConfig()); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestNewScraperRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = -1

	if _, err := NewRestaurant(cfg); err == nil {
		t.Fatalf("expected config validation error")
	}
}

func TestScrapeReturnsFailureResultOnFetchError(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://venue.test/gone",
		httpmock.NewStringResponder(http.StatusNotFound, ""))

	s := newTestScraper(t, models.CategoryRestaurant, transport)
	result := s.Scrape(context.Background(), "http://venue.test/gone")

	if result.Success {
		t.Fatalf("expected failure result")
	}
	if result.URL != "http://venue.test/gone" {
		t.Fatalf("result url = %q", result.URL)
	}
	if result.Error == "" {
		t.Fatalf("failure result should carry an error message")
	}
	if result.Data != nil {
		t.Fatalf("failure result should not carry data")
	}
}

func TestScrapeReturnsFailureResultWhenNameMissing(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://venue.test/empty",
		htmlResponder("<html><body><p>nothing here</p></body></html>"))

	s := newTestScraper(t, models.CategoryRestaurant, transport)
	result := s.Scrape(context.Background(), "http://venue.test/empty")

	if result.Success {
		t.Fatalf("expected failure for page without a venue name")
	}
}

func TestScrapeListPreservesInputOrder(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://venue.test/a",
		htmlResponder(`<html><h1>Venue A</h1></html>`))
	transport.RegisterResponder("GET", "http://venue.test/broken",
		httpmock.NewStringResponder(http.StatusForbidden, ""))
	transport.RegisterResponder("GET", "http://venue.test/b",
		htmlResponder(`<html><h1>Venue B</h1></html>`))

	s := newTestScraper(t, models.CategoryRestaurant, transport)
	urls := []string{"http://venue.test/a", "http://venue.test/broken", "http://venue.test/b"}
	results := s.ScrapeList(context.Background(), urls)

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for i, result := range results {
		if result.URL != urls[i] {
			t.Fatalf("results[%d].URL = %q, want %q", i, result.URL, urls[i])
		}
	}
	if !results[0].Success || results[1].Success || !results[2].Success {
		t.Fatalf("success pattern = [%v %v %v], want [true false true]",
			results[0].Success, results[1].Success, results[2].Success)
	}

	first, ok := results[0].Data.(*models.Restaurant)
	if !ok || first.Name != "Venue A" {
		t.Fatalf("results[0] = %+v, want Venue A", results[0].Data)
	}
}

func TestScrapeIsIdempotent(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://venue.test/stable",
		htmlResponder(`<html><h1>Stable Venue</h1><span class="rating-value">4.0</span></html>`))

	s := newTestScraper(t, models.CategoryRestaurant, transport)

	first := s.Scrape(context.Background(), "http://venue.test/stable")
	second := s.Scrape(context.Background(), "http://venue.test/stable")

	if !first.Success || !second.Success {
		t.Fatalf("both scrapes should succeed")
	}
	a := first.Data.(*models.Restaurant)
	b := second.Data.(*models.Restaurant)
	if a.Name != b.Name || a.Rating != b.Rating {
		t.Fatalf("repeated scrape diverged: %+v vs %+v", a, b)
	}
}
