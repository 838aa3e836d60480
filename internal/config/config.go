// Package config loads and validates service configuration.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Entities   []EntityConfig   `mapstructure:"entities"`
	Market     MarketConfig     `mapstructure:"market"`
	News       NewsConfig       `mapstructure:"news"`
	Reddit     RedditConfig     `mapstructure:"reddit"`
	ValuePickr ValuePickrConfig `mapstructure:"valuepickr"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// EntityConfig describes an entity to track at startup. Zero thresholds
// mean the registry defaults apply.
type EntityConfig struct {
	ID                 string  `mapstructure:"id"`
	Keyword            string  `mapstructure:"keyword"`
	SentimentThreshold float64 `mapstructure:"sentiment_threshold"`
	AnomalyThreshold   float64 `mapstructure:"anomaly_threshold"`
}

// MarketConfig holds quote-fetch configuration.
type MarketConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// NewsConfig holds RSS news source configuration.
type NewsConfig struct {
	Sites        []string      `mapstructure:"sites"`
	Language     string        `mapstructure:"language"`
	Country      string        `mapstructure:"country"`
	ItemsPerFeed int           `mapstructure:"items_per_feed"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// RedditConfig holds social search configuration.
type RedditConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	Limit          int           `mapstructure:"limit"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// ValuePickrConfig holds forum search configuration.
type ValuePickrConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	MaxItems       int           `mapstructure:"max_items"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// PipelineConfig holds collection-cycle behavior configuration.
type PipelineConfig struct {
	Schedule      string        `mapstructure:"schedule"`
	HistoryWindow int           `mapstructure:"history_window"`
	MinSamples    int           `mapstructure:"min_samples"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("SENTINEL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("market.timeout", "10s")

	v.SetDefault("news.sites", []string{})
	v.SetDefault("news.language", "en-IN")
	v.SetDefault("news.country", "IN")
	v.SetDefault("news.items_per_feed", 3)
	v.SetDefault("news.timeout", "10s")

	v.SetDefault("reddit.enabled", false)
	v.SetDefault("reddit.base_url", "https://www.reddit.com")
	v.SetDefault("reddit.user_agent", "sentinel-monitor/1.0")
	v.SetDefault("reddit.limit", 15)
	v.SetDefault("reddit.timeout", "10s")
	v.SetDefault("reddit.max_retries", 3)
	v.SetDefault("reddit.retry_delay_base", "1s")

	v.SetDefault("valuepickr.enabled", false)
	v.SetDefault("valuepickr.base_url", "https://forum.valuepickr.com")
	v.SetDefault("valuepickr.user_agent", "sentinel-monitor/1.0")
	v.SetDefault("valuepickr.max_items", 10)
	v.SetDefault("valuepickr.timeout", "10s")
	v.SetDefault("valuepickr.max_retries", 3)
	v.SetDefault("valuepickr.retry_delay_base", "1s")

	v.SetDefault("pipeline.schedule", "@every 1m")
	v.SetDefault("pipeline.history_window", 20)
	v.SetDefault("pipeline.min_samples", 5)
	v.SetDefault("pipeline.fetch_timeout", "10s")

	v.SetDefault("storage.db_path", "./data/sentinel.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	for i, e := range c.Entities {
		if e.ID == "" {
			return fmt.Errorf("entities[%d].id is required", i)
		}
		if e.Keyword == "" {
			return fmt.Errorf("entities[%d].keyword is required", i)
		}
	}

	if c.Market.Timeout <= 0 {
		return fmt.Errorf("market.timeout must be positive")
	}

	if c.News.ItemsPerFeed < 1 {
		return fmt.Errorf("news.items_per_feed must be at least 1")
	}
	if c.News.Timeout <= 0 {
		return fmt.Errorf("news.timeout must be positive")
	}

	if c.Reddit.Enabled {
		if c.Reddit.BaseURL == "" {
			return fmt.Errorf("reddit.base_url is required when reddit is enabled")
		}
		if c.Reddit.UserAgent == "" {
			return fmt.Errorf("reddit.user_agent is required when reddit is enabled")
		}
		if c.Reddit.Limit < 1 || c.Reddit.Limit > 100 {
			return fmt.Errorf("reddit.limit must be between 1 and 100")
		}
	}

	if c.ValuePickr.Enabled {
		if c.ValuePickr.BaseURL == "" {
			return fmt.Errorf("valuepickr.base_url is required when valuepickr is enabled")
		}
		if c.ValuePickr.UserAgent == "" {
			return fmt.Errorf("valuepickr.user_agent is required when valuepickr is enabled")
		}
		if c.ValuePickr.MaxItems < 1 {
			return fmt.Errorf("valuepickr.max_items must be at least 1")
		}
	}

	if c.Pipeline.Schedule == "" {
		return fmt.Errorf("pipeline.schedule is required")
	}
	if c.Pipeline.HistoryWindow < 2 {
		return fmt.Errorf("pipeline.history_window must be at least 2")
	}
	if c.Pipeline.MinSamples < 2 || c.Pipeline.MinSamples > c.Pipeline.HistoryWindow {
		return fmt.Errorf("pipeline.min_samples must be between 2 and pipeline.history_window")
	}
	if c.Pipeline.FetchTimeout <= 0 || c.Pipeline.FetchTimeout > time.Minute {
		return fmt.Errorf("pipeline.fetch_timeout must be in (0, 1m]")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
