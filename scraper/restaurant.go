package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mzansitravel/venue-scraper/config"
	"github.com/mzansitravel/venue-scraper/extract"
	"github.com/mzansitravel/venue-scraper/models"
)

// RestaurantScraper extracts restaurant records: cuisines, price band,
// features, and trading hours on top of the shared venue fields.
type RestaurantScraper struct {
	*core
}

// NewRestaurant builds a restaurant scraper from cfg.
func NewRestaurant(cfg *config.Config) (*RestaurantScraper, error) {
	c, err := newCore(models.CategoryRestaurant, cfg)
	if err != nil {
		return nil, err
	}
	return &RestaurantScraper{core: c}, nil
}

// Scrape fetches and extracts one restaurant page.
func (s *RestaurantScraper) Scrape(ctx context.Context, url string) models.Result {
	return s.scrape(ctx, url, s.extractPage)
}

// ScrapeList maps Scrape over urls, preserving input order.
func (s *RestaurantScraper) ScrapeList(ctx context.Context, urls []string) []models.Result {
	return s.scrapeList(ctx, urls, s.Scrape)
}

var restaurantSelectors = venueSelectors{
	name:        []string{`[itemprop="name"]`, "h1.restaurant-name", ".restaurant-name", "h1"},
	address:     []string{`[itemprop="address"]`, ".address", ".location", ".venue-address"},
	description: []string{`[itemprop="description"]`, ".description", ".about", ".overview"},
	images:      ".gallery img, .photos img, .restaurant-images img, img.venue-photo",
	coordAttrs:  true,
}

var restaurantHoursSelectors = []string{
	".opening-hours li", ".trading-hours li", ".hours li",
}

func (s *RestaurantScraper) extractPage(doc *goquery.Document, pageURL string) (any, error) {
	venue, err := s.baseVenue(doc, pageURL, restaurantSelectors)
	if err != nil {
		return nil, err
	}

	r := &models.Restaurant{Venue: venue}
	r.Cuisines = extractCuisines(doc)
	r.PriceRange = extractPriceBand(doc, venue.Description)
	r.Features = extract.MergeKeywordSets(
		extract.ListItems(doc, []string{".features li", ".restaurant-features li"}, 50),
		extract.MatchKeywords(doc.Text(), extract.FeatureKeywords),
	)
	r.OpeningHours = extract.OpeningHours(doc, restaurantHoursSelectors)

	return r, nil
}

// extractCuisines aggregates cuisine tags from selector-based elements and
// comma-separated meta content.
func extractCuisines(doc *goquery.Document) []string {
	tagged := extract.ListItems(doc, []string{
		".cuisine-tags span", ".cuisines li", `[itemprop="servesCuisine"]`,
	}, 50)

	var fromMeta []string
	for _, sel := range []string{`meta[name="cuisine"]`, `meta[property="restaurant:cuisine"]`} {
		content, ok := doc.Find(sel).First().Attr("content")
		if !ok {
			continue
		}
		for _, part := range strings.Split(content, ",") {
			if cleaned := extract.CleanText(part); cleaned != "" {
				fromMeta = append(fromMeta, cleaned)
			}
		}
	}

	return extract.MergeKeywordSets(tagged, fromMeta)
}

// extractPriceBand resolves the display price band: a literal $ band in
// structured markup wins, then rand amounts in price elements, then the
// free-text description.
func extractPriceBand(doc *goquery.Document, description string) string {
	literal := extract.FirstText(doc, []string{`[itemprop="priceRange"]`, ".price-range"}, 10)
	switch literal {
	case "$", "$$", "$$$", "$$$$":
		return literal
	}

	for _, text := range []string{
		extract.FirstText(doc, []string{".price-range", ".price", ".menu-price", ".average-price"}, 100),
		description,
	} {
		if band := extract.PriceRange(text); band != "" {
			return band
		}
	}
	return ""
}
