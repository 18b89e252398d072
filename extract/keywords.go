package extract

import (
	"strings"

	"github.com/mzansitravel/venue-scraper/models"
)

// Fixed vocabularies checked by substring against the full page text.
// Matches are reported using the canonical casing below, in vocabulary
// order.
var (
	AmenityKeywords = []string{
		"WiFi", "Pool", "Gym", "Spa", "Parking", "Breakfast",
		"Air Conditioning", "Restaurant", "Bar", "Laundry",
		"Airport Shuttle", "Room Service", "Conference Facilities",
	}

	FeatureKeywords = []string{
		"Outdoor Seating", "Takeaway", "Delivery", "Halaal", "Vegan Options",
		"Wine List", "Live Music", "Family Friendly", "Wheelchair Accessible",
		"Craft Beer", "Ocean View",
	}

	AccessibilityKeywords = []string{
		"Wheelchair Accessible", "Wheelchair Friendly", "Accessible Parking",
		"Accessible Toilets", "Guide Dogs Welcome", "Step-Free Access",
	}

	FacilityKeywords = []string{
		"Parking", "Restrooms", "Gift Shop", "Cafe", "Restaurant",
		"Picnic Area", "Guided Tours", "Audio Guide", "Visitor Centre",
		"Braai Area",
	}
)

// MatchKeywords returns the vocabulary entries present in text as
// case-insensitive substrings, in vocabulary order.
func MatchKeywords(text string, vocab []string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, keyword := range vocab {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			out = append(out, keyword)
		}
	}
	return out
}

// MergeKeywordSets merges explicit list entries with keyword matches,
// deduplicating case-insensitively while preserving first-seen order.
func MergeKeywordSets(explicit, matched []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, group := range [][]string{explicit, matched} {
		for _, entry := range group {
			key := strings.ToLower(entry)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, entry)
		}
	}
	return out
}

// difficultyLadder maps synonym substrings to tiers, most accessible tier
// first. Within one text the first tier with a matching synonym wins.
var difficultyLadder = []struct {
	tier     models.Difficulty
	synonyms []string
}{
	{models.DifficultyEasy, []string{"easy", "beginner"}},
	{models.DifficultyModerate, []string{"moderate", "intermediate"}},
	{models.DifficultyChallenging, []string{"challenging", "difficult", "advanced"}},
	{models.DifficultyExpert, []string{"expert", "extreme"}},
}

// DifficultyFrom checks each source text in priority order (dedicated
// selector fields before free-text description) and returns the tier of
// the first text that matches the ladder.
func DifficultyFrom(texts ...string) models.Difficulty {
	for _, text := range texts {
		lower := strings.ToLower(text)
		if lower == "" {
			continue
		}
		for _, rung := range difficultyLadder {
			for _, synonym := range rung.synonyms {
				if strings.Contains(lower, synonym) {
					return rung.tier
				}
			}
		}
	}
	return ""
}
