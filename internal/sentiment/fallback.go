// Package sentiment labels generated text as positive, negative or neutral.
package sentiment

import (
	"strings"

	"github.com/liliang-cn/chatrelay/internal/domain"
)

var (
	positiveKeywords = []string{"good", "great", "excellent", "happy", "love", "fantastic", "positive", "fortunate", "correct", "superior"}
	negativeKeywords = []string{"bad", "terrible", "awful", "sad", "hate", "horrible", "negative", "unfortunate", "wrong", "inferior"}
)

// Fallback classifies text by counting keyword occurrences. Matches are
// case-insensitive substrings, so "unfortunate" also counts as "fortunate".
func Fallback(text string) domain.Sentiment {
	lower := strings.ToLower(text)

	positive := countAll(lower, positiveKeywords)
	negative := countAll(lower, negativeKeywords)

	switch {
	case positive > negative:
		return domain.SentimentPositive
	case negative > positive:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

func countAll(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		n += strings.Count(text, kw)
	}
	return n
}
