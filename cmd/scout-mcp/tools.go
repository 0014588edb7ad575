package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createAnalyzeSiteTool returns the analyze_site tool definition
func createAnalyzeSiteTool() mcp.Tool {
	return mcp.NewTool("analyze_site",
		mcp.WithDescription("Analyze a website's rendering complexity and anti-bot posture, and recommend a crawl engine order"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("URL of the site to analyze"),
		),
	)
}

// createCrawlPageTool returns the crawl_page tool definition
func createCrawlPageTool() mcp.Tool {
	return mcp.NewTool("crawl_page",
		mcp.WithDescription("Crawl a single page with automatic engine selection and fallback, returning markdown content"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("URL of the page to crawl"),
		),
		mcp.WithString("engine",
			mcp.Description("Pin a specific engine: requests, playwright, crawl4ai, firecrawl"),
		),
		mcp.WithBoolean("clean_text",
			mcp.Description("Apply whitespace and boilerplate cleanup to the extracted text"),
		),
	)
}

// createExtractContentTool returns the extract_content tool definition
func createExtractContentTool() mcp.Tool {
	return mcp.NewTool("extract_content",
		mcp.WithDescription("Crawl a page and extract one content type from it"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("URL of the page to extract from"),
		),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Content type to extract: title, price, body, review, summary, image, link, date"),
		),
	)
}
