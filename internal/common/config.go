package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	Crawler     CrawlerConfig   `toml:"crawler"`
	Engines     EnginesConfig   `toml:"engines"`
	Bulk        BulkConfig      `toml:"bulk"`
	Debug       DebugConfig     `toml:"debug"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	Intent      IntentConfig    `toml:"intent"`
	Cache       CacheConfig     `toml:"cache"`
	Cleanup     CleanupConfig   `toml:"cleanup"`
	Firecrawl   FirecrawlConfig `toml:"firecrawl"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	LLM         LLMConfig       `toml:"llm"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

type StorageConfig struct {
	Badger     BadgerConfig `toml:"badger"`
	ResultsDir string       `toml:"results_dir"` // Directory for bulk job summary files
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup; jobs are process-scoped
}

// CrawlerConfig contains shared fetch behavior for all engines
type CrawlerConfig struct {
	UserAgent       string        `toml:"user_agent"`       // Default user agent string
	RequestTimeout  time.Duration `toml:"request_timeout"`  // Initial-connection timeout
	ActivityTimeout time.Duration `toml:"activity_timeout"` // Max silence between chunks / DOM changes
	MaxTotalTime    time.Duration `toml:"max_total_time"`   // Hard ceiling for a single fetch
	MaxRetries      int           `toml:"max_retries"`      // Retry attempts per engine
	WaitTime        time.Duration `toml:"wait_time"`        // Retry back-off base
	MaxBodySize     int           `toml:"max_body_size"`    // Maximum response body size in bytes
	RequestDelay    time.Duration `toml:"request_delay"`    // Minimum delay between requests to same domain
}

// EnginesConfig enables/disables individual engines
type EnginesConfig struct {
	Browser BrowserConfig `toml:"browser"`
}

// BrowserConfig contains chromedp settings for the browser-backed engines
type BrowserConfig struct {
	Enabled    bool   `toml:"enabled"`
	Headless   bool   `toml:"headless"`
	DisableGPU bool   `toml:"disable_gpu"`
	NoSandbox  bool   `toml:"no_sandbox"`
	UserAgent  string `toml:"user_agent"`
}

// BulkConfig contains bulk job execution settings
type BulkConfig struct {
	DefaultConcurrency int `toml:"default_concurrency"` // Workers per job when the request omits max_concurrent
	MaxConcurrency     int `toml:"max_concurrency"`     // Hard cap on workers per job
}

// DebugConfig controls failure dump files referenced by API error payloads
type DebugConfig struct {
	Dir       string `toml:"dir"`       // Directory for crawl failure dumps
	Retention string `toml:"retention"` // Max age before cleanup, duration string
}

// WebSocketConfig contains settings for the progress hub
type WebSocketConfig struct {
	ThrottleInterval string `toml:"throttle_interval"` // Min interval between broadcasts per connection
	WriteTimeout     string `toml:"write_timeout"`     // Per-message write deadline
}

// IntentConfig points at the externalized keyword table
type IntentConfig struct {
	KeywordsFile string `toml:"keywords_file"` // YAML keyword table; embedded defaults used when empty
}

// CacheConfig controls the crawl result cache
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	TTL     string `toml:"ttl"` // Duration string, e.g. "15m"
}

// CleanupConfig controls the scheduled purge of old results and debug dumps
type CleanupConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
}

// FirecrawlConfig contains the premium crawl service settings
type FirecrawlConfig struct {
	APIKey  string `toml:"api_key"`  // FIRECRAWL_API_KEY env overrides
	BaseURL string `toml:"base_url"` // API endpoint
	Timeout string `toml:"timeout"`  // HTTP timeout as duration string
}

// ClaudeConfig contains Anthropic Claude API configuration for AI services
type ClaudeConfig struct {
	APIKey    string `toml:"api_key"`    // Anthropic API key (ANTHROPIC_API_KEY env overrides)
	Model     string `toml:"model"`      // Model for AI operations
	MaxTokens int    `toml:"max_tokens"` // Maximum tokens in response
	Timeout   string `toml:"timeout"`    // Operation timeout as duration string
}

// GeminiConfig contains Google Gemini API configuration for AI services
type GeminiConfig struct {
	APIKey  string `toml:"api_key"` // Google Gemini API key (GEMINI_API_KEY env overrides)
	Model   string `toml:"model"`   // Model for AI operations
	Timeout string `toml:"timeout"` // Operation timeout as duration string
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig selects the provider backing the AI-assisted engine
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "claude" or "gemini" (default: "claude")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in scout.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data",
				ResetOnStartup: true, // Jobs are scoped to the process lifetime
			},
			ResultsDir: "./results",
		},
		Crawler: CrawlerConfig{
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout:  30 * time.Second,
			ActivityTimeout: 15 * time.Second,
			MaxTotalTime:    300 * time.Second,
			MaxRetries:      3,
			WaitTime:        2 * time.Second,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			RequestDelay:    1 * time.Second,
		},
		Engines: EnginesConfig{
			Browser: BrowserConfig{
				Enabled:    true,
				Headless:   true,
				DisableGPU: true,
				NoSandbox:  true,
			},
		},
		Bulk: BulkConfig{
			DefaultConcurrency: 5,
			MaxConcurrency:     16,
		},
		Debug: DebugConfig{
			Dir:       "./debug",
			Retention: "24h",
		},
		WebSocket: WebSocketConfig{
			ThrottleInterval: "200ms",
			WriteTimeout:     "10s",
		},
		Intent: IntentConfig{
			KeywordsFile: "", // Embedded defaults
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     "15m",
		},
		Cleanup: CleanupConfig{
			Enabled:  true,
			Schedule: "0 * * * *", // Hourly
		},
		Firecrawl: FirecrawlConfig{
			APIKey:  "",
			BaseURL: "https://api.firecrawl.dev/v1",
			Timeout: "90s",
		},
		Claude: ClaudeConfig{
			APIKey:    "",
			Model:     "claude-haiku-3-5-20241022",
			MaxTokens: 8192,
			Timeout:   "5m",
		},
		Gemini: GeminiConfig{
			APIKey:  "",
			Model:   "gemini-3-flash-preview",
			Timeout: "5m",
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files. Later files override
// earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SCOUT_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration. Bare PORT is honored for container platforms.
	if port := os.Getenv("SCOUT_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	} else if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SCOUT_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("SCOUT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("SCOUT_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("SCOUT_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("SCOUT_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if resultsDir := os.Getenv("SCOUT_RESULTS_DIR"); resultsDir != "" {
		config.Storage.ResultsDir = resultsDir
	}

	// Crawler configuration
	if userAgent := os.Getenv("SCOUT_CRAWLER_USER_AGENT"); userAgent != "" {
		config.Crawler.UserAgent = userAgent
	}
	if requestTimeout := os.Getenv("SCOUT_CRAWLER_REQUEST_TIMEOUT"); requestTimeout != "" {
		if rt, err := time.ParseDuration(requestTimeout); err == nil {
			config.Crawler.RequestTimeout = rt
		}
	}
	if activityTimeout := os.Getenv("SCOUT_CRAWLER_ACTIVITY_TIMEOUT"); activityTimeout != "" {
		if at, err := time.ParseDuration(activityTimeout); err == nil {
			config.Crawler.ActivityTimeout = at
		}
	}
	if maxTotalTime := os.Getenv("SCOUT_CRAWLER_MAX_TOTAL_TIME"); maxTotalTime != "" {
		if mt, err := time.ParseDuration(maxTotalTime); err == nil {
			config.Crawler.MaxTotalTime = mt
		}
	}
	if maxRetries := os.Getenv("SCOUT_CRAWLER_MAX_RETRIES"); maxRetries != "" {
		if mr, err := strconv.Atoi(maxRetries); err == nil {
			config.Crawler.MaxRetries = mr
		}
	}
	if waitTime := os.Getenv("SCOUT_CRAWLER_WAIT_TIME"); waitTime != "" {
		if wt, err := time.ParseDuration(waitTime); err == nil {
			config.Crawler.WaitTime = wt
		}
	}
	if maxBodySize := os.Getenv("SCOUT_CRAWLER_MAX_BODY_SIZE"); maxBodySize != "" {
		if mbs, err := strconv.Atoi(maxBodySize); err == nil {
			config.Crawler.MaxBodySize = mbs
		}
	}

	// Browser configuration
	if headless := os.Getenv("SCOUT_BROWSER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Engines.Browser.Headless = h
		}
	}
	if enabled := os.Getenv("SCOUT_BROWSER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Engines.Browser.Enabled = e
		}
	}

	// Bulk configuration
	if concurrency := os.Getenv("SCOUT_BULK_DEFAULT_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Bulk.DefaultConcurrency = c
		}
	}
	if maxConcurrency := os.Getenv("SCOUT_BULK_MAX_CONCURRENCY"); maxConcurrency != "" {
		if mc, err := strconv.Atoi(maxConcurrency); err == nil {
			config.Bulk.MaxConcurrency = mc
		}
	}

	// Debug configuration
	if debugDir := os.Getenv("SCOUT_DEBUG_DIR"); debugDir != "" {
		config.Debug.Dir = debugDir
	}

	// Intent configuration
	if keywordsFile := os.Getenv("SCOUT_INTENT_KEYWORDS_FILE"); keywordsFile != "" {
		config.Intent.KeywordsFile = keywordsFile
	}

	// Cache configuration
	if enabled := os.Getenv("SCOUT_CACHE_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Cache.Enabled = e
		}
	}
	if ttl := os.Getenv("SCOUT_CACHE_TTL"); ttl != "" {
		if _, err := time.ParseDuration(ttl); err == nil {
			config.Cache.TTL = ttl
		}
	}

	// Firecrawl configuration
	if apiKey := os.Getenv("FIRECRAWL_API_KEY"); apiKey != "" {
		config.Firecrawl.APIKey = apiKey
	}
	if apiKey := os.Getenv("SCOUT_FIRECRAWL_API_KEY"); apiKey != "" {
		config.Firecrawl.APIKey = apiKey // SCOUT_ prefix takes priority
	}
	if baseURL := os.Getenv("SCOUT_FIRECRAWL_BASE_URL"); baseURL != "" {
		config.Firecrawl.BaseURL = baseURL
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("SCOUT_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // SCOUT_ prefix takes priority
	}
	if model := os.Getenv("SCOUT_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("SCOUT_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}

	// Gemini configuration
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("SCOUT_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey // SCOUT_ prefix takes priority
	}
	if model := os.Getenv("SCOUT_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	// LLM provider configuration
	if provider := os.Getenv("SCOUT_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
