// Package pipeline orchestrates collection cycles: market and text data is
// fetched for every tracked entity, persisted, analyzed, and turned into
// alerts. A cycle is best effort: one entity or source failing never stops
// the rest of the cycle.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finwatch/sentinel/internal/analysis"
	"github.com/finwatch/sentinel/internal/logger"
	"github.com/finwatch/sentinel/internal/models"
	"github.com/finwatch/sentinel/internal/registry"
	"github.com/finwatch/sentinel/internal/sources"
)

// Scorer assigns a sentiment score in [-1, 1] to a piece of text.
type Scorer interface {
	Score(text string) float64
}

// Store is the slice of the storage layer the pipeline writes through.
type Store interface {
	AppendMarket(sample *models.MarketSample) error
	RecentMarket(entityID string, n int) ([]models.MarketSample, error)
	AppendText(sample *models.TextSample) error
	AddAlert(alert *models.AlertEvent) error
}

// Notifier delivers alerts to an external channel. Delivery failures are
// logged and never fail the cycle.
type Notifier interface {
	NotifyAlert(entity models.TrackedEntity, alert models.AlertEvent) error
}

// Config holds the tunables of a collection cycle.
type Config struct {
	HistoryWindow int
	MinSamples    int
	FetchTimeout  time.Duration
}

// DefaultConfig returns the standard cycle tunables.
func DefaultConfig() Config {
	return Config{
		HistoryWindow: 20,
		MinSamples:    analysis.MinHistorySamples,
		FetchTimeout:  10 * time.Second,
	}
}

// Pipeline runs collection cycles over the tracked entity registry.
type Pipeline struct {
	store    Store
	registry *registry.Registry
	market   sources.MarketDataSource
	texts    []sources.TextDataSource
	scorer   Scorer
	notifier Notifier
	config   Config
	now      func() time.Time
}

// New creates a pipeline. The notifier may be nil.
func New(store Store, reg *registry.Registry, market sources.MarketDataSource, texts []sources.TextDataSource, scorer Scorer, config Config) *Pipeline {
	if config.HistoryWindow <= 0 {
		config.HistoryWindow = DefaultConfig().HistoryWindow
	}
	if config.MinSamples <= 0 {
		config.MinSamples = analysis.MinHistorySamples
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultConfig().FetchTimeout
	}
	return &Pipeline{
		store:    store,
		registry: reg,
		market:   market,
		texts:    texts,
		scorer:   scorer,
		config:   config,
		now:      time.Now,
	}
}

// SetNotifier attaches an alert notifier.
func (p *Pipeline) SetNotifier(n Notifier) {
	p.notifier = n
}

// RunCycle executes one collection cycle over a snapshot of the registry
// taken at cycle start. Entities added or removed mid-cycle take effect on
// the next cycle. The returned report covers every snapshot entity; the
// error is non-nil only when the snapshot itself cannot be read.
func (p *Pipeline) RunCycle(ctx context.Context) (*models.CycleReport, error) {
	start := p.now()
	entities, err := p.registry.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot registry: %w", err)
	}

	report := &models.CycleReport{StartedAt: start}
	for _, entity := range entities {
		if ctx.Err() != nil {
			break
		}
		report.Entities = append(report.Entities, p.processEntity(ctx, entity))
	}
	report.Duration = p.now().Sub(start)

	logger.Info("Cycle complete: %d entities, %d alerts in %v",
		len(report.Entities), report.AlertCount(), report.Duration.Round(time.Millisecond))
	return report, nil
}

// processEntity runs the market and text branches for one entity. The two
// branches are independent: a market fetch failure still leaves the text
// branch running, and vice versa.
func (p *Pipeline) processEntity(ctx context.Context, entity models.TrackedEntity) models.EntityResult {
	res := models.EntityResult{EntityID: entity.ID}

	p.runMarketBranch(ctx, entity, &res)
	p.runTextBranch(ctx, entity, &res)

	res.Summary = analysis.SignalSummary(res.Sentiment, res.ZScore)
	return res
}

func (p *Pipeline) runMarketBranch(ctx context.Context, entity models.TrackedEntity, res *models.EntityResult) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.config.FetchTimeout)
	defer cancel()

	quote, err := p.market.Latest(fetchCtx, entity.ID)
	if err != nil {
		logger.Warn("Market data unavailable for %s: %v", entity.ID, err)
		return
	}
	res.Price = quote.Price
	res.PriceOK = true

	// Anomaly detection compares the fresh sample against history that
	// does not yet include it. A storage failure skips the rest of the
	// branch for this cycle; appending without a history read would let
	// the sample dodge detection entirely.
	history, err := p.store.RecentMarket(entity.ID, p.config.HistoryWindow)
	if err != nil {
		logger.Error("Failed to load market history for %s, skipping market branch: %v", entity.ID, err)
		return
	}
	anomalous, z := analysis.DetectAnomaly(history, quote.Volume, entity.AnomalyThreshold, p.config.MinSamples)
	res.ZScore = z

	sample := &models.MarketSample{
		EntityID:  entity.ID,
		Price:     quote.Price,
		Volume:    quote.Volume,
		Timestamp: p.now(),
	}
	if err := p.store.AppendMarket(sample); err != nil {
		logger.Error("Failed to store market sample for %s: %v", entity.ID, err)
	}

	if anomalous {
		msg := fmt.Sprintf("Volume Spike (Z=%.2f > %.2f)", z, entity.AnomalyThreshold)
		p.emitAlert(entity, models.AlertVolumeAnomaly, msg, z, res)
	}
}

func (p *Pipeline) runTextBranch(ctx context.Context, entity models.TrackedEntity, res *models.EntityResult) {
	batch := p.collectText(ctx, entity)
	res.TextCount = len(batch)

	// The aggregate covers only this cycle's fresh batch. No fresh text
	// means a neutral reading, not an alert.
	aggregate := analysis.AggregateSentiment(batch)
	res.Sentiment = aggregate

	shifted, direction := analysis.ClassifySentiment(aggregate, entity.SentimentThreshold)
	if shifted {
		msg := fmt.Sprintf("News Sentiment Shift: %s (%.2f > %.2f)", direction, aggregate, entity.SentimentThreshold)
		p.emitAlert(entity, models.AlertSentimentShift, msg, aggregate, res)
	}
}

// collectText queries every text source, scores each item, and persists the
// scored samples. Source failures are logged and skipped.
func (p *Pipeline) collectText(ctx context.Context, entity models.TrackedEntity) []models.TextSample {
	var batch []models.TextSample
	for _, src := range p.texts {
		fetchCtx, cancel := context.WithTimeout(ctx, p.config.FetchTimeout)
		items, err := src.Search(fetchCtx, entity.Keyword)
		cancel()
		if err != nil {
			logger.Warn("%s search failed for %s: %v", src.Name(), entity.ID, err)
			continue
		}
		for _, item := range items {
			sample := models.TextSample{
				EntityID:  entity.ID,
				Source:    item.Source,
				Content:   item.Title,
				Sentiment: p.scorer.Score(item.Title),
				Timestamp: p.now(),
			}
			if err := p.store.AppendText(&sample); err != nil {
				logger.Error("Failed to store text sample for %s: %v", entity.ID, err)
				continue
			}
			batch = append(batch, sample)
		}
	}
	return batch
}

// emitAlert records one breach. signal carries the numeric value that
// crossed the threshold: the z-score for volume anomalies, the aggregate
// sentiment for sentiment shifts.
func (p *Pipeline) emitAlert(entity models.TrackedEntity, alertType models.AlertType, message string, signal float64, res *models.EntityResult) {
	alert := models.AlertEvent{
		ID:        uuid.New().String(),
		EntityID:  entity.ID,
		Type:      alertType,
		Message:   message,
		Signal:    signal,
		Timestamp: p.now(),
	}
	if err := p.store.AddAlert(&alert); err != nil {
		logger.Error("Failed to store alert for %s: %v", entity.ID, err)
	}
	res.Alerts = append(res.Alerts, alert)
	logger.Info("ALERT [%s] %s: %s", alert.Type, entity.ID, message)

	if p.notifier != nil {
		if err := p.notifier.NotifyAlert(entity, alert); err != nil {
			logger.Warn("Failed to deliver alert for %s: %v", entity.ID, err)
		}
	}
}
