package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mzansitravel/venue-scraper/models"
)

func TestMatchKeywords(t *testing.T) {
	text := "Free WIFI throughout, secure parking, and a heated pool."

	got := MatchKeywords(text, AmenityKeywords)
	assert.Equal(t, []string{"WiFi", "Pool", "Parking"}, got)

	assert.Nil(t, MatchKeywords("nothing relevant", AmenityKeywords))
}

func TestMergeKeywordSets(t *testing.T) {
	got := MergeKeywordSets(
		[]string{"Secure Parking", "WiFi"},
		[]string{"wifi", "Pool"},
	)
	assert.Equal(t, []string{"Secure Parking", "WiFi", "Pool"}, got)

	assert.Nil(t, MergeKeywordSets(nil, nil))
}

func TestDifficultyFrom(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		want  models.Difficulty
	}{
		{"direct match", []string{"Moderate"}, models.DifficultyModerate},
		{"synonym", []string{"suitable for beginners"}, models.DifficultyEasy},
		{"first source wins", []string{"expert", "easy"}, models.DifficultyExpert},
		{"skips empty sources", []string{"", "a challenging climb"}, models.DifficultyChallenging},
		{"ladder order within one text", []string{"easy start, extreme finish"}, models.DifficultyEasy},
		{"no match", []string{"a lovely day out"}, ""},
		{"extreme", []string{"extreme abseiling"}, models.DifficultyExpert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DifficultyFrom(tt.texts...))
		})
	}
}
