package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var dayNames = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

var dayAbbrev = map[string]int{
	"mo": 0, "tu": 1, "we": 2, "th": 3, "fr": 4, "sa": 5, "su": 6,
}

var timeRangeRe = regexp.MustCompile(`(\d{1,2}[:h]\d{2})\s*(?:-|–|to)\s*(\d{1,2}[:h]\d{2})`)

// schemaHoursRe matches schema.org openingHours content strings such as
// "Mo-Fr 09:00-17:00" or "Sa 08:00-13:00".
var schemaHoursRe = regexp.MustCompile(`(?i)^([a-z]{2})(?:\s*-\s*([a-z]{2}))?\s+(\d{1,2}:\d{2})\s*-\s*(\d{1,2}:\d{2})$`)

// OpeningHours builds a day→time-range mapping from two sources: list
// items where a day name and a time range co-occur, and schema.org
// openingHours content strings with day-range expansion. The first value
// seen for a day wins.
func OpeningHours(doc *goquery.Document, itemSelectors []string) map[string]string {
	hours := make(map[string]string)

	for _, sel := range itemSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := CleanText(s.Text())
			if text == "" {
				return
			}
			day := dayInText(text)
			if day == "" {
				return
			}
			m := timeRangeRe.FindStringSubmatch(text)
			if m == nil {
				return
			}
			if _, exists := hours[day]; !exists {
				hours[day] = normalizeTime(m[1]) + "-" + normalizeTime(m[2])
			}
		})
	}

	doc.Find(`[itemprop="openingHours"]`).Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok {
			content = s.Text()
		}
		for day, rng := range parseSchemaHours(CleanText(content)) {
			if _, exists := hours[day]; !exists {
				hours[day] = rng
			}
		}
	})

	if len(hours) == 0 {
		return nil
	}
	return hours
}

// parseSchemaHours expands a "Mo-Fr 09:00-17:00" style range into
// individual day keys.
func parseSchemaHours(content string) map[string]string {
	m := schemaHoursRe.FindStringSubmatch(content)
	if m == nil {
		return nil
	}

	from, ok := dayAbbrev[strings.ToLower(m[1])]
	if !ok {
		return nil
	}
	to := from
	if m[2] != "" {
		if to, ok = dayAbbrev[strings.ToLower(m[2])]; !ok {
			return nil
		}
	}
	if to < from {
		return nil
	}

	rng := m[3] + "-" + m[4]
	out := make(map[string]string, to-from+1)
	for i := from; i <= to; i++ {
		out[dayNames[i]] = rng
	}
	return out
}

func dayInText(text string) string {
	lower := strings.ToLower(text)
	for _, day := range dayNames {
		if strings.Contains(lower, strings.ToLower(day)) {
			return day
		}
	}
	return ""
}

// normalizeTime rewrites "09h00" to "09:00".
func normalizeTime(t string) string {
	return strings.ReplaceAll(t, "h", ":")
}

var checkInRe = regexp.MustCompile(`(?i)check[\s-]?in\D{0,10}?(\d{1,2}[:h]\d{2})`)
var checkOutRe = regexp.MustCompile(`(?i)check[\s-]?out\D{0,10}?(\d{1,2}[:h]\d{2})`)

// CheckInOut scans text for check-in and check-out times in HH:MM form.
func CheckInOut(text string) (checkIn, checkOut string) {
	if m := checkInRe.FindStringSubmatch(text); m != nil {
		checkIn = normalizeTime(m[1])
	}
	if m := checkOutRe.FindStringSubmatch(text); m != nil {
		checkOut = normalizeTime(m[1])
	}
	return checkIn, checkOut
}
