// Package sentiment scores text polarity with a VADER lexicon model.
package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"
)

// Scorer computes a compound polarity score for a piece of text. It holds
// only the immutable lexicon, is safe for concurrent use, and does no I/O.
type Scorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewScorer creates a scorer with the default VADER lexicon.
func NewScorer() *Scorer {
	return &Scorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the compound polarity of text in [-1, 1]. Empty or
// whitespace-only text is neutral.
func (s *Scorer) Score(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0.0
	}
	return s.analyzer.PolarityScores(text).Compound
}
