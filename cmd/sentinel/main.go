package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/finwatch/sentinel/internal/config"
	"github.com/finwatch/sentinel/internal/logger"
	"github.com/finwatch/sentinel/internal/models"
	"github.com/finwatch/sentinel/internal/pipeline"
	"github.com/finwatch/sentinel/internal/registry"
	"github.com/finwatch/sentinel/internal/sentiment"
	"github.com/finwatch/sentinel/internal/sources"
	"github.com/finwatch/sentinel/internal/storage"
	"github.com/finwatch/sentinel/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env file: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	reg := registry.New(store)
	seedEntities(reg, cfg.Entities)

	marketSource := sources.NewYahooClient(cfg.Market.Timeout)

	textSources := []sources.TextDataSource{
		sources.NewNewsSource(cfg.News.Sites, cfg.News.Language, cfg.News.Country, cfg.News.ItemsPerFeed),
	}
	if cfg.Reddit.Enabled {
		textSources = append(textSources, sources.NewRedditSource(
			cfg.Reddit.BaseURL,
			cfg.Reddit.UserAgent,
			cfg.Reddit.Limit,
			cfg.Reddit.Timeout,
			cfg.Reddit.MaxRetries,
			cfg.Reddit.RetryDelayBase,
		))
		logger.Info("Reddit source enabled")
	}
	if cfg.ValuePickr.Enabled {
		textSources = append(textSources, sources.NewValuePickrSource(
			cfg.ValuePickr.BaseURL,
			cfg.ValuePickr.UserAgent,
			cfg.ValuePickr.MaxItems,
			cfg.ValuePickr.Timeout,
			cfg.ValuePickr.MaxRetries,
			cfg.ValuePickr.RetryDelayBase,
		))
		logger.Info("ValuePickr source enabled")
	}

	p := pipeline.New(store, reg, marketSource, textSources, sentiment.NewScorer(), pipeline.Config{
		HistoryWindow: cfg.Pipeline.HistoryWindow,
		MinSamples:    cfg.Pipeline.MinSamples,
		FetchTimeout:  cfg.Pipeline.FetchTimeout,
	})

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		telegramClient.AttachRegistry(reg)
		p.SetNotifier(telegramClient)
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if cfg.Telegram.Enabled && telegramClient != nil {
		telegramClient.ListenForCommands(ctx)
	}

	consecutiveFailures := 0
	runCycle := func() {
		report, err := p.RunCycle(ctx)
		if err != nil {
			consecutiveFailures++
			logger.Error("Collection cycle failed: %v", err)
			if consecutiveFailures == 1 && telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
			return
		}
		if consecutiveFailures > 0 && telegramClient != nil {
			if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
				logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
			}
		}
		consecutiveFailures = 0
		logger.Info("Watch: %s", report.Summary())
		if telegramClient != nil {
			if sendErr := telegramClient.SendReport(report); sendErr != nil {
				logger.Warn("Failed to send cycle digest to Telegram: %v", sendErr)
			}
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Pipeline.Schedule, runCycle); err != nil {
		logger.Fatal("Invalid pipeline schedule %q: %v", cfg.Pipeline.Schedule, err)
	}

	logger.Info("Starting monitoring service (schedule: %s, history_window: %d, min_samples: %d)",
		cfg.Pipeline.Schedule, cfg.Pipeline.HistoryWindow, cfg.Pipeline.MinSamples)

	runCycle()
	scheduler.Start()

	<-ctx.Done()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("Service stopped")
}

// seedEntities registers configured entities on startup. Entities already in
// the registry are updated in place; entities removed from the config are
// left tracked, removal stays an explicit operation.
func seedEntities(reg *registry.Registry, entities []config.EntityConfig) {
	for _, e := range entities {
		sentimentThreshold := e.SentimentThreshold
		if sentimentThreshold == 0 {
			sentimentThreshold = models.DefaultSentimentThreshold
		}
		anomalyThreshold := e.AnomalyThreshold
		if anomalyThreshold == 0 {
			anomalyThreshold = models.DefaultAnomalyThreshold
		}
		if err := reg.AddWithThresholds(e.ID, e.Keyword, sentimentThreshold, anomalyThreshold); err != nil {
			logger.Warn("Failed to register entity %s: %v", e.ID, err)
			continue
		}
		logger.Debug("Tracking %s (%s)", e.ID, e.Keyword)
	}
}
