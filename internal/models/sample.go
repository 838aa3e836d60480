package models

import (
	"errors"
	"time"
)

// MarketSample is one appended (timestamp, price, volume) observation for an
// entity. Samples are append-only and never mutated.
type MarketSample struct {
	EntityID  string    `json:"entity_id"`
	Price     float64   `json:"price"`
	Volume    int64     `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks sample field constraints.
func (s *MarketSample) Validate() error {
	if s.EntityID == "" {
		return errors.New("sample entity ID must not be empty")
	}
	if s.Price < 0 {
		return errors.New("price must not be negative")
	}
	if s.Volume < 0 {
		return errors.New("volume must not be negative")
	}
	return nil
}

// TextSample is one scored textual item (headline, forum thread, social
// post) ingested for an entity. Source is a provenance tag such as
// "Google News" or "Reddit".
type TextSample struct {
	EntityID  string    `json:"entity_id"`
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	Sentiment float64   `json:"sentiment"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks text sample field constraints.
func (s *TextSample) Validate() error {
	if s.EntityID == "" {
		return errors.New("sample entity ID must not be empty")
	}
	if s.Source == "" {
		return errors.New("sample source must not be empty")
	}
	if s.Sentiment < -1.0 || s.Sentiment > 1.0 {
		return errors.New("sentiment must be between -1.0 and 1.0")
	}
	return nil
}

// AlertType distinguishes the two breach kinds the pipeline can raise.
type AlertType string

const (
	AlertVolumeAnomaly  AlertType = "VOLUME_ANOMALY"
	AlertSentimentShift AlertType = "SENTIMENT_SHIFT"
)

// AlertEvent records a single threshold breach. Alerts are append-only and
// deliberately not de-duplicated across cycles: a condition that persists
// keeps alerting, which is itself a signal.
type AlertEvent struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entity_id"`
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Signal    float64   `json:"signal"`
	Timestamp time.Time `json:"timestamp"`
}
