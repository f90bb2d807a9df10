package badger

import (
	"strings"

	"github.com/poiesic/recall/core"
)

// Stop words to filter out of query terms before lexical scoring
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// Per-word weights for lexical scoring. A word hitting the title counts
// more than one buried in the text; tag hits sit in between, and the
// capture context trails everything. The scale tops out around ten for
// a short query matching everywhere, which is what the hybrid fusion
// normalizes against.
const (
	titleWeight   = 3.0
	tagWeight     = 2.0
	textWeight    = 1.0
	contextWeight = 0.5
)

// lexicalScore rates how well a memory matches the query words.
// Zero means no word matched anywhere.
func lexicalScore(m *core.Memory, queryWords []string) float64 {
	title := strings.ToLower(m.Title)
	text := strings.ToLower(m.Text)
	context := strings.ToLower(m.Context)

	var score float64
	for _, word := range queryWords {
		if strings.Contains(title, word) {
			score += titleWeight
		}
		if strings.Contains(text, word) {
			score += textWeight
		}
		if context != "" && strings.Contains(context, word) {
			score += contextWeight
		}
		for _, tag := range m.Tags {
			if strings.Contains(tag, word) {
				score += tagWeight
				break
			}
		}
	}
	return score
}
