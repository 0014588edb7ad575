package engines

import (
	"context"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/interfaces"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/services/llm"
)

var engineDescriptions = map[string]string{
	models.EngineRequests:   "Plain HTTP fetcher for static pages",
	models.EnginePlaywright: "Headless Chrome renderer for JavaScript-heavy and protected sites",
	models.EngineCrawl4AI:   "Browser renderer with LLM content refinement",
	models.EngineFirecrawl:  "Hosted premium scrape service",
}

// Registry holds the engines that initialized successfully. Engines that
// fail Initialize are dropped with a warning instead of registering broken;
// the strategy builder only ever sees working engines.
type Registry struct {
	logger  arbor.ILogger
	engines map[string]interfaces.Engine
	order   []string
	runtime *browserRuntime
}

// NewRegistry constructs every configured engine, initializes each and
// keeps the survivors. provider may be nil; the AI engine then runs
// without refinement.
func NewRegistry(ctx context.Context, cfg *common.Config, provider llm.Provider, logger arbor.ILogger) *Registry {
	r := &Registry{
		logger:  logger,
		engines: make(map[string]interfaces.Engine),
		runtime: newBrowserRuntime(cfg, logger),
	}

	candidates := []interfaces.Engine{
		NewRequestsEngine(cfg, logger),
	}
	if cfg.Engines.Browser.Enabled {
		candidates = append(candidates,
			NewBrowserEngine(r.runtime, logger),
			NewCrawl4AIEngine(r.runtime, provider, logger),
		)
	}
	if cfg.Firecrawl.APIKey != "" {
		candidates = append(candidates, NewFirecrawlEngine(&cfg.Firecrawl, logger))
	}

	for _, engine := range candidates {
		if err := engine.Initialize(ctx); err != nil {
			logger.Warn().
				Str("engine", engine.Name()).
				Err(err).
				Msg("Engine failed to initialize, dropping from registry")
			continue
		}
		r.engines[engine.Name()] = engine
		r.order = append(r.order, engine.Name())
		logger.Info().
			Str("engine", engine.Name()).
			Strs("capabilities", engine.Capabilities()).
			Msg("Engine registered")
	}

	return r
}

// Get returns a registered engine by name
func (r *Registry) Get(name string) (interfaces.Engine, bool) {
	engine, ok := r.engines[name]
	return engine, ok
}

// Available reports whether the named engine registered successfully
func (r *Registry) Available(name string) bool {
	_, ok := r.engines[name]
	return ok
}

// Names returns registered engine names in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Status returns the per-engine entries for GET /engines/status, sorted
// by name for stable output
func (r *Registry) Status() []models.EngineStatus {
	statuses := make([]models.EngineStatus, 0, len(r.engines))
	for name, engine := range r.engines {
		statuses = append(statuses, models.EngineStatus{
			Name:         name,
			Available:    true,
			Capabilities: engine.Capabilities(),
			Stats:        engine.Stats(),
			Description:  engineDescriptions[name],
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// Cleanup shuts every engine down, then the shared browser runtime
func (r *Registry) Cleanup() {
	for name, engine := range r.engines {
		if err := engine.Cleanup(); err != nil {
			r.logger.Warn().
				Str("engine", name).
				Err(err).
				Msg("Engine cleanup failed")
		}
	}
	if err := r.runtime.stop(); err != nil {
		r.logger.Warn().Err(err).Msg("Browser runtime shutdown failed")
	}
}

// Probe renders a URL with the shared browser runtime. Used by the site
// analyzer for its dynamic second-pass sample without registering as an
// engine.
func (r *Registry) Probe(ctx context.Context, url string, strategy *models.CrawlStrategy) (string, error) {
	if strategy == nil {
		strategy = models.NewDefaultStrategy()
	}
	if !r.runtime.ready() {
		if err := r.runtime.start(); err != nil {
			return "", err
		}
	}
	return r.runtime.render(ctx, url, strategy)
}
