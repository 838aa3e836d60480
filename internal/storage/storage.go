// Package storage provides SQLite-backed persistence for tracked entities,
// time series samples, and alerts.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/finwatch/sentinel/internal/models"
	_ "modernc.org/sqlite"
)

// Storage wraps a SQLite database for all persistence operations. Sample
// and alert tables are append-only: rows are never updated or deleted, and
// removing a tracked entity leaves its history in place.
type Storage struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/sentinel/data.db.
func New(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "sentinel", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tracked_entities (
			id                  TEXT PRIMARY KEY,
			keyword             TEXT NOT NULL,
			sentiment_threshold REAL NOT NULL DEFAULT 0.2,
			anomaly_threshold   REAL NOT NULL DEFAULT 3.0,
			created_at          INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS market_samples (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_id TEXT NOT NULL,
			price     REAL NOT NULL,
			volume    INTEGER NOT NULL,
			timestamp INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS text_samples (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_id TEXT NOT NULL,
			source    TEXT NOT NULL,
			content   TEXT NOT NULL,
			sentiment REAL NOT NULL,
			timestamp INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id        TEXT PRIMARY KEY,
			entity_id TEXT NOT NULL,
			type      TEXT NOT NULL,
			message   TEXT NOT NULL,
			signal    REAL NOT NULL,
			timestamp INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_market_samples_entity ON market_samples(entity_id, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_text_samples_entity ON text_samples(entity_id, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_entity ON alerts(entity_id, timestamp DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ─── Registry table ─────────────────────────────────────────────────────────

// UpsertEntity inserts or replaces a tracked entity row.
func (s *Storage) UpsertEntity(e *models.TrackedEntity) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid entity: %w", err)
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO tracked_entities
			(id, keyword, sentiment_threshold, anomaly_threshold, created_at)
		VALUES (?,?,?,?,?)`,
		e.ID, e.Keyword, e.SentimentThreshold, e.AnomalyThreshold,
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entity: %w", err)
	}
	return nil
}

// GetEntity returns one tracked entity by id.
func (s *Storage) GetEntity(id string) (*models.TrackedEntity, error) {
	row := s.db.QueryRow(`
		SELECT id, keyword, sentiment_threshold, anomaly_threshold
		FROM tracked_entities WHERE id = ?`, id)
	var e models.TrackedEntity
	err := row.Scan(&e.ID, &e.Keyword, &e.SentimentThreshold, &e.AnomalyThreshold)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("entity not tracked: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return &e, nil
}

// ListEntities returns all tracked entities.
func (s *Storage) ListEntities() ([]models.TrackedEntity, error) {
	rows, err := s.db.Query(`
		SELECT id, keyword, sentiment_threshold, anomaly_threshold
		FROM tracked_entities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()
	entities := []models.TrackedEntity{}
	for rows.Next() {
		var e models.TrackedEntity
		if err := rows.Scan(&e.ID, &e.Keyword, &e.SentimentThreshold, &e.AnomalyThreshold); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// UpdateEntityThresholds changes the alert thresholds for an existing entity.
func (s *Storage) UpdateEntityThresholds(id string, sentimentThreshold, anomalyThreshold float64) error {
	res, err := s.db.Exec(`
		UPDATE tracked_entities
		SET sentiment_threshold = ?, anomaly_threshold = ?
		WHERE id = ?`,
		sentimentThreshold, anomalyThreshold, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update thresholds: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("entity not tracked: %s", id)
	}
	return nil
}

// RemoveEntity deletes the registry row only. Historical samples and alerts
// for the id are left untouched.
func (s *Storage) RemoveEntity(id string) error {
	if _, err := s.db.Exec(`DELETE FROM tracked_entities WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to remove entity: %w", err)
	}
	return nil
}

// ─── Time series tables ─────────────────────────────────────────────────────

// AppendMarket appends one market sample. Duplicate timestamps are allowed.
func (s *Storage) AppendMarket(sample *models.MarketSample) error {
	if err := sample.Validate(); err != nil {
		return fmt.Errorf("invalid market sample: %w", err)
	}
	_, err := s.db.Exec(`
		INSERT INTO market_samples (entity_id, price, volume, timestamp)
		VALUES (?,?,?,?)`,
		sample.EntityID, sample.Price, sample.Volume, sample.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert market sample: %w", err)
	}
	return nil
}

// RecentMarket returns up to n of the newest market samples for an entity,
// newest first.
func (s *Storage) RecentMarket(entityID string, n int) ([]models.MarketSample, error) {
	rows, err := s.db.Query(`
		SELECT entity_id, price, volume, timestamp
		FROM market_samples WHERE entity_id = ?
		ORDER BY id DESC LIMIT ?`, entityID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query market samples: %w", err)
	}
	defer rows.Close()
	samples := []models.MarketSample{}
	for rows.Next() {
		var m models.MarketSample
		var tsNano int64
		if err := rows.Scan(&m.EntityID, &m.Price, &m.Volume, &tsNano); err != nil {
			return nil, fmt.Errorf("failed to scan market sample: %w", err)
		}
		m.Timestamp = time.Unix(0, tsNano)
		samples = append(samples, m)
	}
	return samples, rows.Err()
}

// AppendText appends one scored text sample.
func (s *Storage) AppendText(sample *models.TextSample) error {
	if err := sample.Validate(); err != nil {
		return fmt.Errorf("invalid text sample: %w", err)
	}
	_, err := s.db.Exec(`
		INSERT INTO text_samples (entity_id, source, content, sentiment, timestamp)
		VALUES (?,?,?,?,?)`,
		sample.EntityID, sample.Source, sample.Content, sample.Sentiment,
		sample.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert text sample: %w", err)
	}
	return nil
}

// RecentText returns up to n of the newest text samples for an entity,
// newest first. A non-empty excludeSource filters that provenance tag out,
// which lets callers separate news from social views.
func (s *Storage) RecentText(entityID string, n int, excludeSource string) ([]models.TextSample, error) {
	query := `
		SELECT entity_id, source, content, sentiment, timestamp
		FROM text_samples WHERE entity_id = ?`
	args := []any{entityID}
	if excludeSource != "" {
		query += ` AND source != ?`
		args = append(args, excludeSource)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, n)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query text samples: %w", err)
	}
	defer rows.Close()
	samples := []models.TextSample{}
	for rows.Next() {
		var ts models.TextSample
		var tsNano int64
		if err := rows.Scan(&ts.EntityID, &ts.Source, &ts.Content, &ts.Sentiment, &tsNano); err != nil {
			return nil, fmt.Errorf("failed to scan text sample: %w", err)
		}
		ts.Timestamp = time.Unix(0, tsNano)
		samples = append(samples, ts)
	}
	return samples, rows.Err()
}

// ─── Alert log ──────────────────────────────────────────────────────────────

// AddAlert appends one alert event. Alerts are never de-duplicated here.
func (s *Storage) AddAlert(alert *models.AlertEvent) error {
	_, err := s.db.Exec(`
		INSERT INTO alerts (id, entity_id, type, message, signal, timestamp)
		VALUES (?,?,?,?,?,?)`,
		alert.ID, alert.EntityID, string(alert.Type), alert.Message, alert.Signal,
		alert.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// RecentAlerts returns up to limit alerts, newest first. A non-empty
// entityID restricts results to that entity.
func (s *Storage) RecentAlerts(limit int, entityID string) ([]models.AlertEvent, error) {
	query := `SELECT id, entity_id, type, message, signal, timestamp FROM alerts`
	args := []any{}
	if entityID != "" {
		query += ` WHERE entity_id = ?`
		args = append(args, entityID)
	}
	query += ` ORDER BY timestamp DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()
	alerts := []models.AlertEvent{}
	for rows.Next() {
		var a models.AlertEvent
		var typ string
		var tsNano int64
		if err := rows.Scan(&a.ID, &a.EntityID, &typ, &a.Message, &a.Signal, &tsNano); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Type = models.AlertType(typ)
		a.Timestamp = time.Unix(0, tsNano)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
