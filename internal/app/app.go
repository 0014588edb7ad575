package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/engines"
	"github.com/ternarybob/scout/internal/handlers"
	"github.com/ternarybob/scout/internal/services/analyzer"
	"github.com/ternarybob/scout/internal/services/bulk"
	"github.com/ternarybob/scout/internal/services/events"
	"github.com/ternarybob/scout/internal/services/extract"
	"github.com/ternarybob/scout/internal/services/intent"
	"github.com/ternarybob/scout/internal/services/llm"
	"github.com/ternarybob/scout/internal/services/orchestrator"
	"github.com/ternarybob/scout/internal/services/postprocess"
	"github.com/ternarybob/scout/internal/services/scheduler"
	"github.com/ternarybob/scout/internal/services/strategy"
	"github.com/ternarybob/scout/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager *badger.Manager
	Provider       llm.Provider
	Registry       *engines.Registry
	Analyzer       *analyzer.Service
	Builder        *strategy.Builder
	Processor      *postprocess.Processor
	Crawler        *orchestrator.Service
	Hub            *events.Hub
	BulkManager    *bulk.Manager
	IntentRouter   *intent.Router
	Extractor      *extract.Extractor
	Scheduler      *scheduler.Service

	// HTTP handlers
	APIHandler    *handlers.APIHandler
	CrawlHandler  *handlers.CrawlHandler
	JobHandler    *handlers.JobHandler
	EngineHandler *handlers.EngineHandler
	WSHandler     *handlers.WSHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	ctx := context.Background()

	// Storage layer
	storageManager, err := badger.NewManager(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager
	logger.Debug().
		Str("storage", "badger").
		Str("path", cfg.Storage.Badger.Path).
		Msg("Storage layer initialized")

	// LLM provider. Optional: without one the AI engine runs unrefined.
	provider, err := llm.NewProvider(cfg, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("LLM provider unavailable, AI refinement disabled")
		provider = nil
	}
	app.Provider = provider

	// Engine registry
	app.Registry = engines.NewRegistry(ctx, cfg, provider, logger)
	if len(app.Registry.Names()) == 0 {
		storageManager.Close()
		return nil, fmt.Errorf("no crawl engines available")
	}

	// Crawl pipeline
	app.Analyzer = analyzer.NewService(cfg, logger)
	if cfg.Engines.Browser.Enabled {
		// Borderline sites get a rendered second-pass sample
		app.Analyzer.UseProber(app.Registry)
	}
	app.Builder = strategy.NewBuilder(logger)
	app.Processor = postprocess.NewProcessor(logger)
	app.Crawler = orchestrator.NewService(
		cfg,
		app.Registry,
		app.Analyzer,
		app.Builder,
		app.Processor,
		storageManager.CacheStorage(),
		logger,
	)

	// Progress hub and bulk manager
	app.Hub = events.NewHub(logger)
	app.BulkManager = bulk.NewManager(cfg, app.Crawler, storageManager.JobStorage(), app.Hub, logger)

	// Intent router
	vocab, err := intent.LoadVocabulary(cfg.Intent.KeywordsFile)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to load intent keywords: %w", err)
	}
	app.IntentRouter = intent.NewRouter(vocab, logger)

	// Selective extractor
	app.Extractor = extract.NewExtractor(logger)

	// Cleanup scheduler
	app.Scheduler = scheduler.NewService(cfg, storageManager.CacheSweeper(), logger)
	if err := app.Scheduler.Start(); err != nil {
		logger.Warn().Err(err).Msg("Failed to start cleanup scheduler")
	}

	// HTTP handlers
	app.APIHandler = handlers.NewAPIHandler()
	app.CrawlHandler = handlers.NewCrawlHandler(
		app.Crawler,
		app.BulkManager,
		app.IntentRouter,
		app.Extractor,
		app.Hub,
		logger,
	)
	app.JobHandler = handlers.NewJobHandler(
		storageManager.JobStorage(),
		app.BulkManager,
		bulk.NewReportGenerator(logger),
		bulk.NewSummaryWriter(cfg.Storage.ResultsDir, logger),
		logger,
	)
	app.EngineHandler = handlers.NewEngineHandler(app.Registry, logger)
	app.WSHandler = handlers.NewWSHandler(app.Hub, &cfg.WebSocket, logger)

	logger.Info().
		Strs("engines", app.Registry.Names()).
		Bool("cache_enabled", cfg.Cache.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// Close releases all application resources in reverse dependency order
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}

	if a.Registry != nil {
		a.Registry.Cleanup()
	}

	if a.Provider != nil {
		if err := a.Provider.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM provider")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
