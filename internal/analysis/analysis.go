// Package analysis implements the pure signal math: volume anomaly
// detection, sentiment aggregation, and the combined signal reading.
package analysis

import (
	"math"

	"github.com/finwatch/sentinel/internal/models"
)

// MinHistorySamples is the smallest trailing window the anomaly detector
// will score against. Below it there is no verdict, not an error.
const MinHistorySamples = 5

// DetectAnomaly computes the z-score of currentVolume against the trailing
// history and classifies it against threshold. The history must be queried
// before the current sample is appended, so the value is compared against
// genuinely prior observations.
//
// Fewer than minSamples samples (MinHistorySamples when minSamples is not
// positive), or a flat series (sigma == 0), yields (false, 0). Only upward
// spikes trigger: isAnomalous iff z > threshold, strictly.
func DetectAnomaly(history []models.MarketSample, currentVolume int64, threshold float64, minSamples int) (bool, float64) {
	if minSamples <= 0 {
		minSamples = MinHistorySamples
	}
	if len(history) < minSamples {
		return false, 0.0
	}

	mean := 0.0
	for _, s := range history {
		mean += float64(s.Volume)
	}
	mean /= float64(len(history))

	// Population standard deviation: divide by N, not N-1.
	variance := 0.0
	for _, s := range history {
		d := float64(s.Volume) - mean
		variance += d * d
	}
	variance /= float64(len(history))
	sigma := math.Sqrt(variance)

	if sigma == 0 {
		return false, 0.0
	}

	z := (float64(currentVolume) - mean) / sigma
	return z > threshold, z
}

// AggregateSentiment returns the arithmetic mean sentiment of a freshly
// ingested batch. An empty batch is neutral, not an error.
func AggregateSentiment(samples []models.TextSample) float64 {
	if len(samples) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.Sentiment
	}
	return sum / float64(len(samples))
}

// ClassifySentiment checks an aggregate score against a threshold. The
// comparison is strict: an aggregate exactly at the threshold does not
// breach. Direction is Positive for scores above zero, Negative otherwise.
func ClassifySentiment(aggregate, threshold float64) (bool, string) {
	direction := "Negative"
	if aggregate > 0 {
		direction = "Positive"
	}
	return math.Abs(aggregate) > threshold, direction
}

// SignalSummary combines the cycle's volume z-score and aggregate sentiment
// into a one-line reading for the report.
func SignalSummary(sentiment, zScore float64) string {
	if zScore > 3.0 {
		switch {
		case sentiment > 0.2:
			return "Bullish breakout: high volume spike backed by positive news suggests strong buying momentum."
		case sentiment < -0.2:
			return "Panic selling: heavy volume with negative sentiment indicates a potential crash or correction."
		default:
			return "Volatile uncertainty: massive volume spike without clear sentiment direction."
		}
	}
	switch {
	case sentiment > 0.4:
		return "Silent accumulation: strong positive chatter despite normal volume."
	case sentiment < -0.4:
		return "Bearish sentiment: negative rumors circulating, price may drift lower."
	default:
		return "Market is neutral. No major signals detected."
	}
}
