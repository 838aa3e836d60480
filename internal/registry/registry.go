// Package registry manages the set of tracked entities and their alert
// thresholds. All threshold validation happens here so invalid configuration
// never reaches the detectors.
package registry

import (
	"fmt"
	"strings"

	"github.com/finwatch/sentinel/internal/models"
	"github.com/finwatch/sentinel/internal/storage"
)

// Registry owns the tracked-entity table. The pipeline only ever reads a
// snapshot; mutations apply starting with the next cycle.
type Registry struct {
	store *storage.Storage
}

// New creates a registry backed by the given storage.
func New(store *storage.Storage) *Registry {
	return &Registry{store: store}
}

func validateThresholds(sentimentThreshold, anomalyThreshold float64) error {
	if sentimentThreshold <= 0 || sentimentThreshold > 1 {
		return fmt.Errorf("sentiment threshold must be in (0, 1], got %v", sentimentThreshold)
	}
	if anomalyThreshold <= 0 {
		return fmt.Errorf("anomaly threshold must be positive, got %v", anomalyThreshold)
	}
	return nil
}

// Add starts tracking an entity with default thresholds. The id is
// uppercased; re-adding an existing id replaces its row.
func (r *Registry) Add(id, keyword string) error {
	return r.AddWithThresholds(id, keyword, models.DefaultSentimentThreshold, models.DefaultAnomalyThreshold)
}

// AddWithThresholds starts tracking an entity with explicit thresholds.
func (r *Registry) AddWithThresholds(id, keyword string, sentimentThreshold, anomalyThreshold float64) error {
	if err := validateThresholds(sentimentThreshold, anomalyThreshold); err != nil {
		return err
	}
	entity := &models.TrackedEntity{
		ID:                 strings.ToUpper(strings.TrimSpace(id)),
		Keyword:            strings.TrimSpace(keyword),
		SentimentThreshold: sentimentThreshold,
		AnomalyThreshold:   anomalyThreshold,
	}
	if err := entity.Validate(); err != nil {
		return err
	}
	return r.store.UpsertEntity(entity)
}

// UpdateThresholds changes the alert thresholds of an existing entity.
func (r *Registry) UpdateThresholds(id string, sentimentThreshold, anomalyThreshold float64) error {
	if err := validateThresholds(sentimentThreshold, anomalyThreshold); err != nil {
		return err
	}
	return r.store.UpdateEntityThresholds(strings.ToUpper(strings.TrimSpace(id)), sentimentThreshold, anomalyThreshold)
}

// Remove stops tracking an entity. Historical samples and alerts are kept.
func (r *Registry) Remove(id string) error {
	return r.store.RemoveEntity(strings.ToUpper(strings.TrimSpace(id)))
}

// Get returns one tracked entity.
func (r *Registry) Get(id string) (*models.TrackedEntity, error) {
	return r.store.GetEntity(strings.ToUpper(strings.TrimSpace(id)))
}

// Snapshot returns the current set of tracked entities. The pipeline calls
// this once at cycle start; registry changes during a cycle are picked up on
// the next one.
func (r *Registry) Snapshot() ([]models.TrackedEntity, error) {
	return r.store.ListEntities()
}
