package models

import (
	"fmt"
	"strings"
	"time"
)

// EntityResult summarizes one entity's outcome within a cycle. A fetch that
// produced no data leaves PriceOK false; the entity still appears in the
// report so a run never looks hung or partially lost.
type EntityResult struct {
	EntityID  string
	Price     float64
	PriceOK   bool
	ZScore    float64
	Sentiment float64
	TextCount int
	Alerts    []AlertEvent
	Summary   string
}

// CycleReport is the aggregate outcome of one full pass over all tracked
// entities.
type CycleReport struct {
	StartedAt time.Time
	Duration  time.Duration
	Entities  []EntityResult
}

// AlertCount returns the total number of alerts raised during the cycle.
func (r *CycleReport) AlertCount() int {
	n := 0
	for _, e := range r.Entities {
		n += len(e.Alerts)
	}
	return n
}

// Summary renders the per-entity outcomes as a single status line.
func (r *CycleReport) Summary() string {
	if len(r.Entities) == 0 {
		return "No entities tracked."
	}
	parts := make([]string, 0, len(r.Entities))
	for _, e := range r.Entities {
		if e.PriceOK {
			parts = append(parts, fmt.Sprintf("%s: %.2f", e.EntityID, e.Price))
		} else {
			parts = append(parts, fmt.Sprintf("%s: unavailable", e.EntityID))
		}
	}
	return strings.Join(parts, " | ")
}
