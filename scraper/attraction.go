package scraper

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mzansitravel/venue-scraper/config"
	"github.com/mzansitravel/venue-scraper/extract"
	"github.com/mzansitravel/venue-scraper/models"
)

// AttractionScraper extracts attraction records: ticket prices, opening
// hours, visit planning hints, and accessibility/facility keywords.
type AttractionScraper struct {
	*core
}

// NewAttraction builds an attraction scraper from cfg.
func NewAttraction(cfg *config.Config) (*AttractionScraper, error) {
	c, err := newCore(models.CategoryAttraction, cfg)
	if err != nil {
		return nil, err
	}
	return &AttractionScraper{core: c}, nil
}

// Scrape fetches and extracts one attraction page.
func (s *AttractionScraper) Scrape(ctx context.Context, url string) models.Result {
	return s.scrape(ctx, url, s.extractPage)
}

// ScrapeList maps Scrape over urls, preserving input order.
func (s *AttractionScraper) ScrapeList(ctx context.Context, urls []string) []models.Result {
	return s.scrapeList(ctx, urls, s.Scrape)
}

var attractionSelectors = venueSelectors{
	name:        []string{`[itemprop="name"]`, "h1.attraction-name", ".attraction-name", "h1"},
	address:     []string{`[itemprop="address"]`, ".address", ".location"},
	description: []string{`[itemprop="description"]`, ".description", ".about", ".overview"},
	images:      ".gallery img, .photos img, .attraction-images img",
}

var attractionHoursSelectors = []string{
	".opening-hours li", ".hours li", ".visiting-hours li",
}

func (s *AttractionScraper) extractPage(doc *goquery.Document, pageURL string) (any, error) {
	venue, err := s.baseVenue(doc, pageURL, attractionSelectors)
	if err != nil {
		return nil, err
	}

	pageText := extract.CleanText(doc.Text())

	a := &models.Attraction{Venue: venue}
	a.TicketPrices = extractTicketPrices(doc)
	a.OpeningHours = extract.OpeningHours(doc, attractionHoursSelectors)
	a.BestTimeToVisit = extractBestTime(doc, pageText)
	a.Duration = extractDuration(doc, pageText)
	a.Accessibility = extract.MatchKeywords(pageText, extract.AccessibilityKeywords)
	a.Facilities = extract.MergeKeywordSets(
		extract.ListItems(doc, []string{".facilities li", ".amenities li"}, 50),
		extract.MatchKeywords(pageText, extract.FacilityKeywords),
	)

	return a, nil
}

// ticketLineRe matches "Adults: R120" style plain list items.
var ticketLineRe = regexp.MustCompile(`^([^:]{2,40}):\s*(R\s*\d.*)$`)

// extractTicketPrices merges structured price-table rows with
// colon-delimited plain list items. A tier is accepted only with a
// non-empty type and a positive price; duplicate tiers keep the first
// occurrence.
func extractTicketPrices(doc *goquery.Document) []models.TicketPrice {
	var prices []models.TicketPrice
	seen := make(map[string]struct{})

	add := func(tierType string, price float64, description string) {
		tierType = extract.CleanText(tierType)
		if tierType == "" || price <= 0 {
			return
		}
		key := strings.ToLower(tierType)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		prices = append(prices, models.TicketPrice{
			Type:        tierType,
			Price:       price,
			Description: description,
		})
	}

	doc.Find(".ticket-prices tr, table.prices tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		tierType := extract.CleanText(cells.Eq(0).Text())
		price := extract.ParseZAR(cells.Eq(1).Text())
		description := ""
		if cells.Length() > 2 {
			description = extract.CleanText(cells.Eq(2).Text())
		}
		add(tierType, price, description)
	})

	doc.Find(".tickets li, .ticket-prices li, .prices li").Each(func(_ int, item *goquery.Selection) {
		m := ticketLineRe.FindStringSubmatch(extract.CleanText(item.Text()))
		if m == nil {
			return
		}
		add(m[1], extract.ParseZAR(m[2]), "")
	})

	return prices
}

var bestTimeRe = regexp.MustCompile(`(?i)best time to visit[:\s]+([^.!?]{3,80})`)

func extractBestTime(doc *goquery.Document, pageText string) string {
	if value := extract.FirstText(doc, []string{".best-time", ".best-time-to-visit"}, 80); value != "" {
		return value
	}
	if m := bestTimeRe.FindStringSubmatch(pageText); m != nil {
		return extract.CleanText(m[1])
	}
	return ""
}

var durationRe = regexp.MustCompile(`(?i)(?:duration|allow about|takes about|allow)[:\s]+([\w\s\-]{1,30}?(?:hours?|hrs?|minutes?|mins?|days?))`)

func extractDuration(doc *goquery.Document, pageText string) string {
	if value := extract.FirstText(doc, []string{".duration", ".visit-duration"}, 60); value != "" {
		return value
	}
	if m := durationRe.FindStringSubmatch(pageText); m != nil {
		return extract.CleanText(m[1])
	}
	return ""
}
