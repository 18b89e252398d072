// Package extract provides the shared field extraction routines used by
// every category scraper. Extractors try an ordered list of CSS selector
// candidates first, then regex fallbacks over free text, and gate every
// candidate value through validation. "Not found" is a normal outcome and
// never an error: extractors return zero values for absent fields.
package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText collapses all whitespace runs, including newlines, to single
// spaces and trims the result.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// FirstText returns the cleaned text of the first selector candidate that
// yields a non-empty value no longer than maxLen characters.
func FirstText(doc *goquery.Document, selectors []string, maxLen int) string {
	for _, sel := range selectors {
		text := CleanText(doc.Find(sel).First().Text())
		if text != "" && (maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen) {
			return text
		}
	}
	return ""
}

// FirstAttr returns the first non-empty attribute value among the selector
// candidates.
func FirstAttr(doc *goquery.Document, selectors []string, attr string) string {
	for _, sel := range selectors {
		if value, ok := doc.Find(sel).First().Attr(attr); ok {
			if cleaned := CleanText(value); cleaned != "" {
				return cleaned
			}
		}
	}
	return ""
}

// ListItems collects the cleaned, deduplicated text of every element
// matching the selector candidates, preserving first-seen order.
func ListItems(doc *goquery.Document, selectors []string, maxLen int) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, sel := range selectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := CleanText(s.Text())
			if text == "" || (maxLen > 0 && utf8.RuneCountInString(text) > maxLen) {
				return
			}
			key := strings.ToLower(text)
			if _, ok := seen[key]; ok {
				return
			}
			seen[key] = struct{}{}
			out = append(out, text)
		})
	}
	return out
}

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".gif":  {},
}

// Images collects src and data-src attributes matching selector, resolves
// them against baseURL, rejects anything without a known image extension,
// and deduplicates preserving first-seen order.
func Images(doc *goquery.Document, selector, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	var out []string
	seen := make(map[string]struct{})
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"src", "data-src"} {
			raw, ok := s.Attr(attr)
			if !ok || strings.TrimSpace(raw) == "" {
				continue
			}
			resolved := resolveURL(base, strings.TrimSpace(raw))
			if resolved == "" || !validImageURL(resolved) {
				continue
			}
			if _, dup := seen[resolved]; dup {
				continue
			}
			seen[resolved] = struct{}{}
			out = append(out, resolved)
		}
	})
	return out
}

func validImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	dot := strings.LastIndex(path, ".")
	if dot < 0 {
		return false
	}
	_, ok := imageExtensions[path[dot:]]
	return ok
}

func resolveURL(base *url.URL, raw string) string {
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

var phoneSelectors = []string{
	`a[href^="tel:"]`,
	`[itemprop="telephone"]`,
	".phone",
	".contact-phone",
	".tel",
	".contact-number",
}

var nonDigitRe = regexp.MustCompile(`\D`)

// Phone tries tel: links and common phone selectors, strips non-digits,
// and normalizes South African national numbers (leading 0) to the
// international 27 prefix. Returns "" when no candidate has at least ten
// digits.
func Phone(doc *goquery.Document) string {
	var candidates []string
	if href, ok := doc.Find(`a[href^="tel:"]`).First().Attr("href"); ok {
		candidates = append(candidates, strings.TrimPrefix(href, "tel:"))
	}
	for _, sel := range phoneSelectors[1:] {
		if text := doc.Find(sel).First().Text(); text != "" {
			candidates = append(candidates, text)
		}
	}

	for _, raw := range candidates {
		if normalized := NormalizePhone(raw); normalized != "" {
			return normalized
		}
	}
	return ""
}

// NormalizePhone strips non-digits and rewrites a leading 0 to the 27
// country prefix. Inputs with fewer than ten digits are rejected.
func NormalizePhone(raw string) string {
	digits := nonDigitRe.ReplaceAllString(raw, "")
	if len(digits) < 10 {
		return ""
	}
	if strings.HasPrefix(digits, "0") {
		return "27" + digits[1:]
	}
	return digits
}

var websiteSelectors = []string{
	`a[itemprop="url"]`,
	".website a",
	"a.website",
	`.contact-details a[href^="http"]`,
	`a[rel="external"]`,
}

// Website tries the website selector candidates, resolves relative hrefs
// against currentURL, and rejects a link pointing back at the page itself.
func Website(doc *goquery.Document, currentURL string) string {
	current, err := url.Parse(currentURL)
	if err != nil {
		current = nil
	}

	for _, sel := range websiteSelectors {
		href, ok := doc.Find(sel).First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			continue
		}
		resolved := resolveURL(current, strings.TrimSpace(href))
		if resolved == "" {
			continue
		}
		if sameURL(resolved, currentURL) {
			continue
		}
		return resolved
	}
	return ""
}

func sameURL(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

var ratingSelectors = []string{
	`[itemprop="ratingValue"]`,
	".rating-value",
	".rating .value",
	".review-score",
	".score",
}

// Rating tries the rating selector candidates and accepts the first value
// parsing as a float within [0,5].
func Rating(doc *goquery.Document) (float64, bool) {
	for _, sel := range ratingSelectors {
		node := doc.Find(sel).First()
		raw, ok := node.Attr("content")
		if !ok {
			raw = node.Text()
		}
		raw = CleanText(raw)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			continue
		}
		if value < 0 || value > 5 {
			continue
		}
		return value, true
	}
	return 0, false
}

// priceBands maps rand amounts to the four display bands, checked in
// order. The first band whose pattern matches the text wins.
var priceBands = []struct {
	symbol  string
	pattern *regexp.Regexp
}{
	{"$", regexp.MustCompile(`R\s*[1-9]\d?(?:[.,]\d{2})?(?:\D|$)`)},
	{"$$", regexp.MustCompile(`R\s*[12]\d{2}(?:[.,]\d{2})?(?:\D|$)`)},
	{"$$$", regexp.MustCompile(`R\s*[3-5]\d{2}(?:[.,]\d{2})?(?:\D|$)`)},
	{"$$$$", regexp.MustCompile(`R\s*(?:[6-9]\d{2}|\d{4,})(?:[.,]\d{2})?(?:\D|$)`)},
}

// PriceRange matches rand amounts in text against four magnitude bands
// and returns "$".."$$$$", or "" when no band matches.
func PriceRange(text string) string {
	for _, band := range priceBands {
		if band.pattern.MatchString(text) {
			return band.symbol
		}
	}
	return ""
}

var zarAmountRe = regexp.MustCompile(`R\s*(\d+(?:\s?\d{3})*(?:[.,]\d{2})?)`)

// ParseZAR extracts the first rand amount from text as a float. Returns 0
// when no amount is present.
func ParseZAR(text string) float64 {
	m := zarAmountRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	normalized := whitespaceRe.ReplaceAllString(m[1], "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0
	}
	return value
}

var mapsLinkRe = regexp.MustCompile(`@(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`)

// Coordinates resolves a lat/lng pair in priority order: a Google Maps
// link carrying an "@lat,lng" fragment, schema.org latitude/longitude
// itemprops, and (when dataAttrs is set) data-lat/data-lng attributes.
// Values outside the valid ranges are discarded.
func Coordinates(doc *goquery.Document, dataAttrs bool) (lat, lng float64, ok bool) {
	mapsSel := `a[href*="google.com/maps"], a[href*="goo.gl/maps"], a[href*="maps.app.goo.gl"]`
	var found bool
	doc.Find(mapsSel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, hasHref := s.Attr("href")
		if !hasHref {
			return true
		}
		m := mapsLinkRe.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		lat, lng, found = parseCoordPair(m[1], m[2])
		return !found
	})
	if found {
		return lat, lng, true
	}

	latRaw := itempropValue(doc, "latitude")
	lngRaw := itempropValue(doc, "longitude")
	if latRaw != "" && lngRaw != "" {
		if lat, lng, ok = parseCoordPair(latRaw, lngRaw); ok {
			return lat, lng, true
		}
	}

	if dataAttrs {
		node := doc.Find("[data-lat][data-lng]").First()
		if lat, lng, ok = parseCoordPair(node.AttrOr("data-lat", ""), node.AttrOr("data-lng", "")); ok {
			return lat, lng, true
		}
	}

	return 0, 0, false
}

func itempropValue(doc *goquery.Document, name string) string {
	node := doc.Find(`[itemprop="` + name + `"]`).First()
	if content, ok := node.Attr("content"); ok {
		return CleanText(content)
	}
	return CleanText(node.Text())
}

func parseCoordPair(latRaw, lngRaw string) (float64, float64, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}
