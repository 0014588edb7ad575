package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Crawl operations
	mux.HandleFunc("/crawl/single", s.app.CrawlHandler.SingleHandler)
	mux.HandleFunc("/crawl/bulk", s.app.CrawlHandler.BulkHandler)
	mux.HandleFunc("/crawl/smart", s.app.CrawlHandler.SmartHandler)
	mux.HandleFunc("/crawl/unified", s.app.CrawlHandler.UnifiedHandler)

	// Bulk job lifecycle
	mux.HandleFunc("/jobs/", s.handleJobRoutes)

	// Engine status
	mux.HandleFunc("/engines/status", s.app.EngineHandler.StatusHandler)

	// Progress WebSocket: /ws/{connection_id}
	mux.HandleFunc("/ws/", s.app.WSHandler.HandleWebSocket)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// System
	mux.HandleFunc("/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/health", s.app.APIHandler.HealthHandler)

	// 404 for everything else
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleJobRoutes routes /jobs/{id} and its subpaths
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		matched := RouteByPathSuffix(w, r, "/jobs/", []PathSuffixRouter{
			{Suffix: "/status", Handler: s.app.JobHandler.StatusHandler},
			{Suffix: "/results", Handler: s.app.JobHandler.ResultsHandler},
			{Suffix: "/download", Handler: s.app.JobHandler.DownloadHandler},
		})
		if matched {
			return
		}
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	// DELETE /jobs/{id}
	if r.Method == "DELETE" && len(r.URL.Path) > len("/jobs/") && !strings.Contains(strings.TrimPrefix(r.URL.Path, "/jobs/"), "/") {
		s.app.JobHandler.DeleteHandler(w, r)
		return
	}

	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
