package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/engines"
	"github.com/ternarybob/scout/internal/services/analyzer"
	"github.com/ternarybob/scout/internal/services/extract"
	"github.com/ternarybob/scout/internal/services/llm"
	"github.com/ternarybob/scout/internal/services/orchestrator"
	"github.com/ternarybob/scout/internal/services/postprocess"
	"github.com/ternarybob/scout/internal/services/strategy"
)

func main() {
	configPath := os.Getenv("SCOUT_CONFIG")
	if configPath == "" {
		if _, err := os.Stat("scout.toml"); err == nil {
			configPath = "scout.toml"
		}
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal console logger; stdio carries the MCP protocol
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	provider, err := llm.NewProvider(config, logger)
	if err != nil {
		provider = nil
	}

	ctx := context.Background()
	registry := engines.NewRegistry(ctx, config, provider, logger)
	if len(registry.Names()) == 0 {
		logger.Fatal().Msg("No crawl engines available")
	}
	defer registry.Cleanup()
	if provider != nil {
		defer provider.Close()
	}

	siteAnalyzer := analyzer.NewService(config, logger)
	builder := strategy.NewBuilder(logger)
	processor := postprocess.NewProcessor(logger)

	// No result cache on the MCP path; the HTTP server owns the Badger
	// directory and the protocol is request scoped anyway
	crawler := orchestrator.NewService(config, registry, siteAnalyzer, builder, processor, nil, logger)
	extractor := extract.NewExtractor(logger)

	mcpServer := server.NewMCPServer(
		"scout",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createAnalyzeSiteTool(), handleAnalyzeSite(siteAnalyzer, builder, logger))
	mcpServer.AddTool(createCrawlPageTool(), handleCrawlPage(crawler, logger))
	mcpServer.AddTool(createExtractContentTool(), handleExtractContent(crawler, extractor, logger))

	// Blocks on stdio
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
