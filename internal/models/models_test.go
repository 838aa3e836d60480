package models

import (
	"testing"
	"time"
)

func TestTrackedEntityValidate(t *testing.T) {
	tests := []struct {
		name    string
		entity  TrackedEntity
		wantErr bool
	}{
		{
			name: "valid entity",
			entity: TrackedEntity{
				ID:                 "RELIANCE.NS",
				Keyword:            "Reliance",
				SentimentThreshold: 0.2,
				AnomalyThreshold:   3.0,
			},
			wantErr: false,
		},
		{
			name: "empty ID",
			entity: TrackedEntity{
				Keyword:            "Reliance",
				SentimentThreshold: 0.2,
				AnomalyThreshold:   3.0,
			},
			wantErr: true,
		},
		{
			name: "empty keyword",
			entity: TrackedEntity{
				ID:                 "RELIANCE.NS",
				SentimentThreshold: 0.2,
				AnomalyThreshold:   3.0,
			},
			wantErr: true,
		},
		{
			name: "zero sentiment threshold",
			entity: TrackedEntity{
				ID:                 "RELIANCE.NS",
				Keyword:            "Reliance",
				SentimentThreshold: 0,
				AnomalyThreshold:   3.0,
			},
			wantErr: true,
		},
		{
			name: "sentiment threshold above 1",
			entity: TrackedEntity{
				ID:                 "RELIANCE.NS",
				Keyword:            "Reliance",
				SentimentThreshold: 1.5,
				AnomalyThreshold:   3.0,
			},
			wantErr: true,
		},
		{
			name: "negative anomaly threshold",
			entity: TrackedEntity{
				ID:                 "RELIANCE.NS",
				Keyword:            "Reliance",
				SentimentThreshold: 0.2,
				AnomalyThreshold:   -1.0,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entity.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("TrackedEntity.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMarketSampleValidate(t *testing.T) {
	tests := []struct {
		name    string
		sample  MarketSample
		wantErr bool
	}{
		{
			name:    "valid sample",
			sample:  MarketSample{EntityID: "TCS.NS", Price: 3521.45, Volume: 120000, Timestamp: time.Now()},
			wantErr: false,
		},
		{
			name:    "empty entity",
			sample:  MarketSample{Price: 3521.45, Volume: 120000},
			wantErr: true,
		},
		{
			name:    "negative price",
			sample:  MarketSample{EntityID: "TCS.NS", Price: -1, Volume: 120000},
			wantErr: true,
		},
		{
			name:    "negative volume",
			sample:  MarketSample{EntityID: "TCS.NS", Price: 3521.45, Volume: -5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sample.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("MarketSample.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTextSampleValidate(t *testing.T) {
	tests := []struct {
		name    string
		sample  TextSample
		wantErr bool
	}{
		{
			name:    "valid sample",
			sample:  TextSample{EntityID: "TCS.NS", Source: "Google News", Content: "TCS wins large deal", Sentiment: 0.6},
			wantErr: false,
		},
		{
			name:    "empty source",
			sample:  TextSample{EntityID: "TCS.NS", Content: "TCS wins large deal", Sentiment: 0.6},
			wantErr: true,
		},
		{
			name:    "sentiment out of range",
			sample:  TextSample{EntityID: "TCS.NS", Source: "Reddit", Content: "to the moon", Sentiment: 1.2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sample.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("TextSample.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCycleReportSummary(t *testing.T) {
	empty := CycleReport{}
	if got := empty.Summary(); got != "No entities tracked." {
		t.Errorf("empty report summary = %q", got)
	}

	r := CycleReport{
		Entities: []EntityResult{
			{EntityID: "INFY.NS", Price: 1520.30, PriceOK: true},
			{EntityID: "TCS.NS"},
		},
	}
	want := "INFY.NS: 1520.30 | TCS.NS: unavailable"
	if got := r.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestCycleReportAlertCount(t *testing.T) {
	r := CycleReport{
		Entities: []EntityResult{
			{EntityID: "A", Alerts: []AlertEvent{{Type: AlertVolumeAnomaly}, {Type: AlertSentimentShift}}},
			{EntityID: "B"},
			{EntityID: "C", Alerts: []AlertEvent{{Type: AlertSentimentShift}}},
		},
	}
	if got := r.AlertCount(); got != 3 {
		t.Errorf("AlertCount() = %d, want 3", got)
	}
}
