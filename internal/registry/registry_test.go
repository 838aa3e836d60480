package registry

import (
	"testing"

	"github.com/finwatch/sentinel/internal/storage"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	s, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return New(s)
}

func TestRegistry_AddAppliesDefaults(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Add("reliance.ns", "Reliance"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := r.Get("RELIANCE.NS")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "RELIANCE.NS" {
		t.Errorf("id not uppercased: %q", got.ID)
	}
	if got.SentimentThreshold != 0.2 || got.AnomalyThreshold != 3.0 {
		t.Errorf("defaults not applied: %+v", got)
	}
}

func TestRegistry_GetIsCaseInsensitive(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Add("TCS.NS", "TCS"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := r.Get("tcs.ns"); err != nil {
		t.Errorf("Get with lowercase id: %v", err)
	}
}

func TestRegistry_RejectsInvalidThresholds(t *testing.T) {
	r := newTestRegistry(t)
	tests := []struct {
		name       string
		sentThresh float64
		anomThresh float64
	}{
		{"zero sentiment", 0, 3.0},
		{"negative sentiment", -0.2, 3.0},
		{"sentiment above one", 1.5, 3.0},
		{"zero anomaly", 0.2, 0},
		{"negative anomaly", 0.2, -3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.AddWithThresholds("TCS.NS", "TCS", tt.sentThresh, tt.anomThresh); err == nil {
				t.Error("expected validation error on add")
			}
		})
	}

	// Same rules on update.
	if err := r.Add("TCS.NS", "TCS"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.UpdateThresholds("TCS.NS", 0, 3.0); err == nil {
		t.Error("expected validation error on update")
	}
}

func TestRegistry_UpdateThresholds(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Add("TCS.NS", "TCS"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.UpdateThresholds("tcs.ns", 0.5, 2.0); err != nil {
		t.Fatalf("UpdateThresholds: %v", err)
	}
	got, _ := r.Get("TCS.NS")
	if got.SentimentThreshold != 0.5 || got.AnomalyThreshold != 2.0 {
		t.Errorf("thresholds not updated: %+v", got)
	}
}

func TestRegistry_UpdateThresholds_Missing(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.UpdateThresholds("NOPE", 0.5, 2.0); err == nil {
		t.Error("expected error for unknown entity")
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := newTestRegistry(t)
	snap, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap) != 0 {
		t.Errorf("expected empty snapshot, got %d", len(snap))
	}

	for _, id := range []string{"INFY.NS", "TCS.NS"} {
		if err := r.Add(id, id); err != nil {
			t.Fatalf("Add %s: %v", id, err)
		}
	}
	snap, err = r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap) != 2 {
		t.Errorf("got %d entities, want 2", len(snap))
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Add("TCS.NS", "TCS"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Remove("tcs.ns"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := r.Get("TCS.NS"); err == nil {
		t.Error("entity should be removed")
	}
}
