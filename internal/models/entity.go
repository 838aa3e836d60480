// Package models defines the core domain entities: tracked instruments, samples, and alerts.
package models

import (
	"errors"
	"strings"
)

// Default alert thresholds applied when an entity is registered without
// explicit values.
const (
	DefaultSentimentThreshold = 0.2
	DefaultAnomalyThreshold   = 3.0
)

// TrackedEntity is a financial instrument under watch. ID is the ticker
// symbol (uppercased); Keyword is the free-text term used for news and
// social searches.
type TrackedEntity struct {
	ID                 string  `json:"id"`
	Keyword            string  `json:"keyword"`
	SentimentThreshold float64 `json:"sentiment_threshold"`
	AnomalyThreshold   float64 `json:"anomaly_threshold"`
}

// Validate checks entity field constraints.
func (e *TrackedEntity) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("entity ID must not be empty")
	}
	if strings.TrimSpace(e.Keyword) == "" {
		return errors.New("search keyword must not be empty")
	}
	if e.SentimentThreshold <= 0 || e.SentimentThreshold > 1 {
		return errors.New("sentiment threshold must be in (0, 1]")
	}
	if e.AnomalyThreshold <= 0 {
		return errors.New("anomaly threshold must be positive")
	}
	return nil
}
