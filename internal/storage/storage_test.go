package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/finwatch/sentinel/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testEntity(id string) *models.TrackedEntity {
	return &models.TrackedEntity{
		ID:                 id,
		Keyword:            "Test Corp",
		SentimentThreshold: 0.2,
		AnomalyThreshold:   3.0,
	}
}

func TestStorage_UpsertAndGetEntity(t *testing.T) {
	s := newTestStorage(t)
	e := testEntity("TCS.NS")

	if err := s.UpsertEntity(e); err != nil {
		t.Fatalf("UpsertEntity: %v", err)
	}
	got, err := s.GetEntity("TCS.NS")
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if got.Keyword != e.Keyword {
		t.Errorf("got keyword %q, want %q", got.Keyword, e.Keyword)
	}
	if got.SentimentThreshold != 0.2 || got.AnomalyThreshold != 3.0 {
		t.Errorf("thresholds not round-tripped: %+v", got)
	}
}

func TestStorage_GetEntity_NotFound(t *testing.T) {
	s := newTestStorage(t)
	if _, err := s.GetEntity("NOPE"); err == nil {
		t.Error("expected error for missing entity")
	}
}

func TestStorage_UpsertEntity_Invalid(t *testing.T) {
	s := newTestStorage(t)
	e := testEntity("TCS.NS")
	e.SentimentThreshold = 0 // rejected at the boundary
	if err := s.UpsertEntity(e); err == nil {
		t.Error("expected error for invalid thresholds")
	}
}

func TestStorage_ListEntities(t *testing.T) {
	s := newTestStorage(t)
	for _, id := range []string{"INFY.NS", "TCS.NS", "RELIANCE.NS"} {
		if err := s.UpsertEntity(testEntity(id)); err != nil {
			t.Fatalf("UpsertEntity %s: %v", id, err)
		}
	}
	entities, err := s.ListEntities()
	if err != nil {
		t.Fatalf("ListEntities: %v", err)
	}
	if len(entities) != 3 {
		t.Errorf("got %d entities, want 3", len(entities))
	}
}

func TestStorage_UpdateEntityThresholds(t *testing.T) {
	s := newTestStorage(t)
	if err := s.UpsertEntity(testEntity("TCS.NS")); err != nil {
		t.Fatalf("UpsertEntity: %v", err)
	}
	if err := s.UpdateEntityThresholds("TCS.NS", 0.4, 2.5); err != nil {
		t.Fatalf("UpdateEntityThresholds: %v", err)
	}
	got, _ := s.GetEntity("TCS.NS")
	if got.SentimentThreshold != 0.4 || got.AnomalyThreshold != 2.5 {
		t.Errorf("thresholds not updated: %+v", got)
	}
}

func TestStorage_UpdateEntityThresholds_NotFound(t *testing.T) {
	s := newTestStorage(t)
	if err := s.UpdateEntityThresholds("NOPE", 0.4, 2.5); err == nil {
		t.Error("expected error updating nonexistent entity")
	}
}

func TestStorage_RemoveEntity_KeepsHistory(t *testing.T) {
	s := newTestStorage(t)
	if err := s.UpsertEntity(testEntity("TCS.NS")); err != nil {
		t.Fatalf("UpsertEntity: %v", err)
	}
	now := time.Now()
	if err := s.AppendMarket(&models.MarketSample{EntityID: "TCS.NS", Price: 10, Volume: 100, Timestamp: now}); err != nil {
		t.Fatalf("AppendMarket: %v", err)
	}
	if err := s.AppendText(&models.TextSample{EntityID: "TCS.NS", Source: "Google News", Content: "headline", Sentiment: 0.1, Timestamp: now}); err != nil {
		t.Fatalf("AppendText: %v", err)
	}
	if err := s.AddAlert(&models.AlertEvent{ID: "a-1", EntityID: "TCS.NS", Type: models.AlertVolumeAnomaly, Message: "spike", Signal: 4.2, Timestamp: now}); err != nil {
		t.Fatalf("AddAlert: %v", err)
	}

	if err := s.RemoveEntity("TCS.NS"); err != nil {
		t.Fatalf("RemoveEntity: %v", err)
	}
	if _, err := s.GetEntity("TCS.NS"); err == nil {
		t.Error("entity should be gone from registry")
	}

	// History outlives removal.
	market, _ := s.RecentMarket("TCS.NS", 10)
	if len(market) != 1 {
		t.Errorf("market history purged: got %d samples", len(market))
	}
	text, _ := s.RecentText("TCS.NS", 10, "")
	if len(text) != 1 {
		t.Errorf("text history purged: got %d samples", len(text))
	}
	alerts, _ := s.RecentAlerts(10, "TCS.NS")
	if len(alerts) != 1 {
		t.Errorf("alert history purged: got %d alerts", len(alerts))
	}
}

func TestStorage_AppendMarket_ImmediatelyVisible(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		sample := &models.MarketSample{
			EntityID:  "INFY.NS",
			Price:     1500 + float64(i),
			Volume:    int64(1000 * (i + 1)),
			Timestamp: now.Add(time.Duration(i) * time.Minute),
		}
		if err := s.AppendMarket(sample); err != nil {
			t.Fatalf("AppendMarket %d: %v", i, err)
		}
		got, err := s.RecentMarket("INFY.NS", 1)
		if err != nil {
			t.Fatalf("RecentMarket: %v", err)
		}
		if len(got) != 1 || got[0].Volume != sample.Volume {
			t.Fatalf("append %d not immediately visible: %+v", i, got)
		}
	}
}

func TestStorage_RecentMarket_NewestFirstAndBounded(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now()
	for i := 0; i < 25; i++ {
		if err := s.AppendMarket(&models.MarketSample{
			EntityID:  "INFY.NS",
			Price:     100,
			Volume:    int64(i),
			Timestamp: now,
		}); err != nil {
			t.Fatalf("AppendMarket %d: %v", i, err)
		}
	}
	got, err := s.RecentMarket("INFY.NS", 20)
	if err != nil {
		t.Fatalf("RecentMarket: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("got %d samples, want 20", len(got))
	}
	if got[0].Volume != 24 {
		t.Errorf("newest sample first: got volume %d, want 24", got[0].Volume)
	}
	if got[19].Volume != 5 {
		t.Errorf("window tail: got volume %d, want 5", got[19].Volume)
	}
}

func TestStorage_RecentMarket_IsolatedPerEntity(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now()
	_ = s.AppendMarket(&models.MarketSample{EntityID: "A", Price: 1, Volume: 1, Timestamp: now})
	_ = s.AppendMarket(&models.MarketSample{EntityID: "B", Price: 2, Volume: 2, Timestamp: now})

	got, err := s.RecentMarket("A", 10)
	if err != nil {
		t.Fatalf("RecentMarket: %v", err)
	}
	if len(got) != 1 || got[0].EntityID != "A" {
		t.Errorf("expected only entity A samples, got %+v", got)
	}
}

func TestStorage_RecentText_ExcludeSource(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now()
	samples := []models.TextSample{
		{EntityID: "TCS.NS", Source: "Google News", Content: "headline one", Sentiment: 0.3, Timestamp: now},
		{EntityID: "TCS.NS", Source: "Reddit", Content: "post one", Sentiment: -0.2, Timestamp: now},
		{EntityID: "TCS.NS", Source: "Google News", Content: "headline two", Sentiment: 0.1, Timestamp: now},
	}
	for i := range samples {
		if err := s.AppendText(&samples[i]); err != nil {
			t.Fatalf("AppendText %d: %v", i, err)
		}
	}

	all, err := s.RecentText("TCS.NS", 10, "")
	if err != nil {
		t.Fatalf("RecentText: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d samples, want 3", len(all))
	}

	news, err := s.RecentText("TCS.NS", 10, "Reddit")
	if err != nil {
		t.Fatalf("RecentText exclude: %v", err)
	}
	if len(news) != 2 {
		t.Fatalf("got %d samples excluding Reddit, want 2", len(news))
	}
	for _, ts := range news {
		if ts.Source == "Reddit" {
			t.Errorf("excluded source leaked through: %+v", ts)
		}
	}
	// Newest first.
	if news[0].Content != "headline two" {
		t.Errorf("order: got %q first", news[0].Content)
	}
}

func TestStorage_RecentAlerts(t *testing.T) {
	s := newTestStorage(t)
	base := time.Now()
	for i := 0; i < 5; i++ {
		entity := "A"
		if i%2 == 1 {
			entity = "B"
		}
		alert := &models.AlertEvent{
			ID:        fmt.Sprintf("alert-%d", i),
			EntityID:  entity,
			Type:      models.AlertVolumeAnomaly,
			Message:   fmt.Sprintf("spike %d", i),
			Signal:    float64(i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.AddAlert(alert); err != nil {
			t.Fatalf("AddAlert %d: %v", i, err)
		}
	}

	recent, err := s.RecentAlerts(3, "")
	if err != nil {
		t.Fatalf("RecentAlerts: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("got %d alerts, want 3", len(recent))
	}
	if recent[0].ID != "alert-4" {
		t.Errorf("newest alert first: got %s", recent[0].ID)
	}

	onlyB, err := s.RecentAlerts(10, "B")
	if err != nil {
		t.Fatalf("RecentAlerts filtered: %v", err)
	}
	if len(onlyB) != 2 {
		t.Errorf("got %d alerts for B, want 2", len(onlyB))
	}
	for _, a := range onlyB {
		if a.EntityID != "B" {
			t.Errorf("filter leaked entity %s", a.EntityID)
		}
	}
}

func TestStorage_DuplicateAlertsAllowed(t *testing.T) {
	// Repeat alerts across cycles are a sustained-condition signal; only the
	// uuid primary key differs.
	s := newTestStorage(t)
	now := time.Now()
	for i := 0; i < 2; i++ {
		alert := &models.AlertEvent{
			ID:        fmt.Sprintf("cycle-%d", i),
			EntityID:  "TCS.NS",
			Type:      models.AlertSentimentShift,
			Message:   "News Sentiment Shift: Positive (0.45 > 0.20)",
			Signal:    0.45,
			Timestamp: now,
		}
		if err := s.AddAlert(alert); err != nil {
			t.Fatalf("AddAlert cycle %d: %v", i, err)
		}
	}
	alerts, _ := s.RecentAlerts(10, "TCS.NS")
	if len(alerts) != 2 {
		t.Errorf("got %d alerts, want 2 identical alerts from consecutive cycles", len(alerts))
	}
}

func TestStorage_DefaultPath(t *testing.T) {
	s, err := New("")
	if err != nil {
		t.Fatalf("New with empty path: %v", err)
	}
	defer s.Close()
}
