package scraper

import (
	"context"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/mzansitravel/venue-scraper/config"
	"github.com/mzansitravel/venue-scraper/extract"
	"github.com/mzansitravel/venue-scraper/models"
)

// HotelScraper extracts hotel records: star rating, room types with
// prices, amenities, and check-in/out times on top of the shared fields.
type HotelScraper struct {
	*core
}

// NewHotel builds a hotel scraper from cfg.
func NewHotel(cfg *config.Config) (*HotelScraper, error) {
	c, err := newCore(models.CategoryHotel, cfg)
	if err != nil {
		return nil, err
	}
	return &HotelScraper{core: c}, nil
}

// Scrape fetches and extracts one hotel page.
func (s *HotelScraper) Scrape(ctx context.Context, url string) models.Result {
	return s.scrape(ctx, url, s.extractPage)
}

// ScrapeList maps Scrape over urls, preserving input order.
func (s *HotelScraper) ScrapeList(ctx context.Context, urls []string) []models.Result {
	return s.scrapeList(ctx, urls, s.Scrape)
}

var hotelSelectors = venueSelectors{
	name:        []string{`[itemprop="name"]`, "h1.hotel-name", ".hotel-name", "h1"},
	address:     []string{`[itemprop="address"]`, ".address", ".location", ".hotel-address"},
	description: []string{`[itemprop="description"]`, ".description", ".about", ".overview"},
	images:      ".gallery img, .photos img, .hotel-images img, .room-gallery img",
}

func (s *HotelScraper) extractPage(doc *goquery.Document, pageURL string) (any, error) {
	venue, err := s.baseVenue(doc, pageURL, hotelSelectors)
	if err != nil {
		return nil, err
	}

	h := &models.Hotel{Venue: venue}
	h.StarRating = extractStarRating(doc)
	h.RoomTypes = extractRoomTypes(doc)
	h.Amenities = extract.MergeKeywordSets(
		extract.ListItems(doc, []string{".amenities li", ".facilities li", ".hotel-amenities li"}, 50),
		extract.MatchKeywords(doc.Text(), extract.AmenityKeywords),
	)
	h.CheckIn, h.CheckOut = extract.CheckInOut(extract.CleanText(doc.Text()))
	h.CancellationPolicy = extract.FirstText(doc, []string{
		".cancellation-policy", ".cancellation", ".booking-policy",
	}, 500)

	return h, nil
}

var starTextRe = regexp.MustCompile(`(?i)([1-5])[\s-]?star`)

// extractStarRating resolves the star rating by three methods in order: a
// numeric "N star" text match, a count of star icon elements, and a
// data-stars/data-rating attribute. The first method yielding 1-5 wins.
func extractStarRating(doc *goquery.Document) int {
	texts := []string{
		extract.FirstText(doc, []string{".star-rating", ".stars", ".hotel-stars"}, 60),
		extract.FirstText(doc, []string{"h1", ".subtitle", ".hotel-type"}, 100),
	}
	for _, text := range texts {
		if m := starTextRe.FindStringSubmatch(text); m != nil {
			if stars := mustAtoi(m[1]); stars >= 1 && stars <= 5 {
				return stars
			}
		}
	}

	icons := doc.Find(".stars .star, .star-rating .star, .stars .icon-star, .stars i").Length()
	if icons >= 1 && icons <= 5 {
		return icons
	}

	for _, attr := range []string{"data-stars", "data-rating"} {
		raw := extract.FirstAttr(doc, []string{"[" + attr + "]"}, attr)
		if raw == "" {
			continue
		}
		if stars, err := strconv.Atoi(raw); err == nil && stars >= 1 && stars <= 5 {
			return stars
		}
	}

	return 0
}

// extractRoomTypes collects room offerings. A row is accepted only when it
// has both a non-empty type name and a positive price.
func extractRoomTypes(doc *goquery.Document) []models.RoomType {
	var rooms []models.RoomType
	doc.Find(".room-types .room, .rooms li, table.rooms tr, .room-list .room").Each(func(_ int, row *goquery.Selection) {
		name := extract.CleanText(row.Find(".room-name, .type, h3, h4, td:first-child").First().Text())
		if name == "" || len(name) > 80 {
			return
		}
		price := extract.ParseZAR(row.Text())
		if price <= 0 {
			return
		}

		room := models.RoomType{Type: name, Price: price}
		row.Find(".room-amenities li, .amenities li").Each(func(_ int, item *goquery.Selection) {
			if amenity := extract.CleanText(item.Text()); amenity != "" {
				room.Amenities = append(room.Amenities, amenity)
			}
		})
		rooms = append(rooms, room)
	})
	return rooms
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
