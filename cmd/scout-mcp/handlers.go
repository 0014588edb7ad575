package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/services/analyzer"
	"github.com/ternarybob/scout/internal/services/extract"
	"github.com/ternarybob/scout/internal/services/orchestrator"
	"github.com/ternarybob/scout/internal/services/strategy"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func jsonResult(v interface{}) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return textResult(fmt.Sprintf("Error: failed to encode result: %v", err))
	}
	return textResult(string(data))
}

// handleAnalyzeSite implements the analyze_site tool
func handleAnalyzeSite(siteAnalyzer *analyzer.Service, builder *strategy.Builder, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil || url == "" {
			return textResult("Error: url parameter is required"), nil
		}
		if err := orchestrator.ValidateURL(url); err != nil {
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}

		analysis, err := siteAnalyzer.Analyze(ctx, url, "")
		var crawlStrategy *models.CrawlStrategy
		if err != nil {
			logger.Warn().Str("url", url).Err(err).Msg("Analysis failed, using domain heuristic")
			crawlStrategy = builder.Fallback(url)
		} else {
			crawlStrategy = builder.FromAnalysis(analysis)
		}

		return jsonResult(map[string]interface{}{
			"analysis": analysis,
			"strategy": crawlStrategy,
		}), nil
	}
}

// handleCrawlPage implements the crawl_page tool
func handleCrawlPage(crawler *orchestrator.Service, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil || url == "" {
			return textResult("Error: url parameter is required"), nil
		}

		var override *models.CrawlStrategy
		if engine := request.GetString("engine", ""); engine != "" {
			override = models.NewDefaultStrategy()
			override.EnginePriority = []string{engine}
		}
		cleanText := request.GetBool("clean_text", false)

		result := crawler.CrawlCleaned(ctx, url, override, cleanText)
		if !result.IsSuccess() {
			logger.Warn().Str("url", url).Str("error", result.Error).Msg("Crawl failed")
			return textResult(orchestrator.FormatCrawlError(result.Error, result.Metadata.AttemptedEngines)), nil
		}

		return jsonResult(map[string]interface{}{
			"url":           result.URL,
			"title":         result.Title,
			"content":       result.Text,
			"engine":        result.Metadata.EngineUsed,
			"quality_score": result.Metadata.QualityScore,
		}), nil
	}
}

// handleExtractContent implements the extract_content tool
func handleExtractContent(crawler *orchestrator.Service, extractor *extract.Extractor, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil || url == "" {
			return textResult("Error: url parameter is required"), nil
		}
		target, err := request.RequireString("target")
		if err != nil || target == "" {
			return textResult("Error: target parameter is required"), nil
		}

		result := crawler.Crawl(ctx, url, nil)
		if !result.IsSuccess() {
			logger.Warn().Str("url", url).Str("error", result.Error).Msg("Crawl failed")
			return textResult(orchestrator.FormatCrawlError(result.Error, result.Metadata.AttemptedEngines)), nil
		}

		return jsonResult(extractor.Extract(result, target, 1.0)), nil
	}
}
