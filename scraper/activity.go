package scraper

import (
	"context"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/mzansitravel/venue-scraper/config"
	"github.com/mzansitravel/venue-scraper/extract"
	"github.com/mzansitravel/venue-scraper/models"
)

// ActivityScraper extracts activity records: duration, group size,
// difficulty tier, age restrictions, and inclusion/requirement lists.
type ActivityScraper struct {
	*core
}

// NewActivity builds an activity scraper from cfg.
func NewActivity(cfg *config.Config) (*ActivityScraper, error) {
	c, err := newCore(models.CategoryActivity, cfg)
	if err != nil {
		return nil, err
	}
	return &ActivityScraper{core: c}, nil
}

// Scrape fetches and extracts one activity page.
func (s *ActivityScraper) Scrape(ctx context.Context, url string) models.Result {
	return s.scrape(ctx, url, s.extractPage)
}

// ScrapeList maps Scrape over urls, preserving input order.
func (s *ActivityScraper) ScrapeList(ctx context.Context, urls []string) []models.Result {
	return s.scrapeList(ctx, urls, s.Scrape)
}

var activitySelectors = venueSelectors{
	name:        []string{`[itemprop="name"]`, "h1.activity-name", ".activity-name", "h1"},
	address:     []string{`[itemprop="address"]`, ".address", ".location", ".meeting-point"},
	description: []string{`[itemprop="description"]`, ".description", ".about", ".overview"},
	images:      ".gallery img, .photos img, .activity-images img",
}

func (s *ActivityScraper) extractPage(doc *goquery.Document, pageURL string) (any, error) {
	venue, err := s.baseVenue(doc, pageURL, activitySelectors)
	if err != nil {
		return nil, err
	}

	pageText := extract.CleanText(doc.Text())

	a := &models.Activity{Venue: venue}
	a.Duration = extractDuration(doc, pageText)
	a.GroupSize = extractGroupSize(doc, pageText)
	a.Difficulty = extract.DifficultyFrom(
		extract.FirstText(doc, []string{".difficulty", ".level", "[data-difficulty]"}, 50),
		extract.FirstAttr(doc, []string{"[data-difficulty]"}, "data-difficulty"),
		venue.Description,
	)
	a.AgeRestriction = extractAgeRestriction(doc, pageText)
	a.Included = extract.ListItems(doc, []string{
		".included li", ".includes li", ".whats-included li",
	}, 80)
	a.Requirements = extract.ListItems(doc, []string{
		".requirements li", ".what-to-bring li", ".bring li",
	}, 80)
	a.BestTime = extractBestTime(doc, pageText)

	return a, nil
}

var groupSizeRe = regexp.MustCompile(`(?i)(?:group size|max(?:imum)? group|groups? of)[:\s]*((?:up to )?\d+(?:\s*(?:-|to)\s*\d+)?(?:\s*(?:people|persons|pax))?)`)

func extractGroupSize(doc *goquery.Document, pageText string) string {
	if value := extract.FirstText(doc, []string{".group-size", ".max-group"}, 40); value != "" {
		return value
	}
	if m := groupSizeRe.FindStringSubmatch(pageText); m != nil {
		return extract.CleanText(m[1])
	}
	return ""
}

var ageRestrictionRe = regexp.MustCompile(`(?i)(?:minimum age|ages?)[:\s]*(\d{1,2}\s*(?:\+|years(?: and (?:up|older))?|and (?:up|older))?|\d{1,2}\s*-\s*\d{1,2})`)

func extractAgeRestriction(doc *goquery.Document, pageText string) string {
	if value := extract.FirstText(doc, []string{".age-restriction", ".age-limit"}, 40); value != "" {
		return value
	}
	if m := ageRestrictionRe.FindStringSubmatch(pageText); m != nil {
		return extract.CleanText(m[1])
	}
	return ""
}
