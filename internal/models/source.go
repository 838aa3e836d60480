package models

import "time"

// Quote is the latest price/volume observation returned by a market data
// source, before it is persisted as a MarketSample.
type Quote struct {
	Symbol    string
	Price     float64
	Volume    int64
	Timestamp time.Time
}

// TextItem is one unscored item returned by a text data source. Engagement
// carries upvotes/comment counts when the source exposes them.
type TextItem struct {
	Source     string
	Title      string
	URL        string
	Engagement int
	Timestamp  time.Time
}

// OHLCBar is one historical candle, used by the presentation layer for
// charting.
type OHLCBar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Fundamentals holds extended per-entity reference data. Every field is
// independently optional; nil means the upstream API did not report it, and
// rendering "N/A" is the caller's concern.
type Fundamentals struct {
	Symbol string
	Name   string

	MarketCap    *int64
	TrailingPE   *float64
	ForwardPE    *float64
	EPS          *float64
	BookValue    *float64
	DividendRate *float64

	FiftyTwoWeekHigh *float64
	FiftyTwoWeekLow  *float64
}
